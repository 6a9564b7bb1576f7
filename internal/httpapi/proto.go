package httpapi

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"google.golang.org/protobuf/proto"
)

// maxRequestBody bounds every request body the API reads, JSON or protobuf.
const maxRequestBody = 4096

const protobufType = "application/x-protobuf"

var errBodyTooLarge = errors.New("request body too large")

// protobufTypes are the media types readers use for binary frames.
var protobufTypes = map[string]bool{
	protobufType:               true,
	"application/protobuf":     true,
	"application/octet-stream": true,
}

// isProtobuf reports whether the request body is a protobuf frame.
// Parameters such as charset are ignored.
func isProtobuf(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && protobufTypes[mt]
}

// acceptsProtobuf reports whether any entry of the Accept header names a
// protobuf media type.
func acceptsProtobuf(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && protobufTypes[mt] && mt != "application/octet-stream" {
			return true
		}
	}
	return false
}

// readProto decodes the body into msg. Bodies over maxRequestBody are
// rejected rather than truncated.
func readProto(r *http.Request, msg proto.Message) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody+1))
	if err != nil {
		return err
	}
	if len(body) > maxRequestBody {
		return errBodyTooLarge
	}
	return proto.Unmarshal(body, msg)
}

func writeProto(w http.ResponseWriter, status int, msg proto.Message) {
	data, err := proto.Marshal(msg)
	if err != nil {
		http.Error(w, "encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", protobufType)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
