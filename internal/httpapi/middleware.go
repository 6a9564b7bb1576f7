package httpapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/safeway/server/internal/safeway/service"
)

// requestLogger logs every request through zap and appends it to the HTTP
// request log when logs is non-nil. JSON request bodies are captured as the
// payload; binary bodies are not.
func requestLogger(logger *zap.Logger, logs *service.LogService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			payload := capturePayload(r)

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote", r.RemoteAddr),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			)

			if logs != nil {
				logs.RecordRequest(context.WithoutCancel(r.Context()), r.Method, r.URL.Path, status, payload)
			}
		})
	}
}

// capturePayload reads up to maxRequestBody bytes of a JSON body and puts
// them back so the handler sees the same stream.
func capturePayload(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return ""
	}

	buf, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(buf), r.Body))
	return string(buf)
}
