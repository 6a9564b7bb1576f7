package httpapi

import (
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/safeway/server/internal/safeway/types"
)

// Readers speak google.protobuf.Struct with the same keys as the JSON API.

// ── Access ───────────────────────────────────────────────────────────────────

func validateRequestFromProto(p *structpb.Struct) types.ValidateAccessRequest {
	f := p.GetFields()
	return types.ValidateAccessRequest{
		CardID:   f["card_id"].GetStringValue(),
		Location: f["location"].GetStringValue(),
	}
}

func validateResponseToProto(r types.ValidateAccessResponse) *structpb.Struct {
	fields := map[string]*structpb.Value{
		"access_granted":       structpb.NewBoolValue(r.AccessGranted),
		"outcome":              structpb.NewStringValue(string(r.Outcome)),
		"message":              structpb.NewStringValue(r.Message),
		"has_time_restriction": structpb.NewBoolValue(r.HasTimeRestriction),
		"decision_id":          structpb.NewStringValue(r.DecisionID),
		"server_time":          structpb.NewStringValue(r.ServerTime),
	}
	optional := map[string]string{
		"user_id":           r.UserID,
		"user_name":         r.UserName,
		"user_email":        r.UserEmail,
		"time_window_start": r.TimeWindowStart,
		"time_window_end":   r.TimeWindowEnd,
	}
	for k, v := range optional {
		if v != "" {
			fields[k] = structpb.NewStringValue(v)
		}
	}
	return &structpb.Struct{Fields: fields}
}

// ── Errors ───────────────────────────────────────────────────────────────────

func errorToProto(code, msg string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"error":   structpb.NewStringValue(code),
		"message": structpb.NewStringValue(msg),
	}}
}

// ── Sync feed ────────────────────────────────────────────────────────────────

func syncPageToProto(p types.SyncPage) *structpb.Struct {
	entries := make([]*structpb.Value, 0, len(p.Data))
	for _, e := range p.Data {
		entries = append(entries, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"card_id":              structpb.NewStringValue(e.CardID),
			"user_name":            structpb.NewStringValue(e.UserName),
			"has_time_restriction": structpb.NewBoolValue(e.HasTimeRestriction),
			"time_window_start":    structpb.NewStringValue(e.TimeWindowStart),
			"time_window_end":      structpb.NewStringValue(e.TimeWindowEnd),
		}}))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"page":        structpb.NewNumberValue(float64(p.Page)),
		"page_size":   structpb.NewNumberValue(float64(p.PageSize)),
		"total":       structpb.NewNumberValue(float64(p.Total)),
		"total_pages": structpb.NewNumberValue(float64(p.TotalPages)),
		"data":        structpb.NewListValue(&structpb.ListValue{Values: entries}),
	}}
}
