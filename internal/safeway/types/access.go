package types

// Outcome is the tri-state result of an access evaluation. The string values
// are what the audit table stores.
type Outcome string

const (
	OutcomeGranted      Outcome = "access_granted"
	OutcomeDenied       Outcome = "access_denied"
	OutcomeCardNotFound Outcome = "card_not_found"
)

func (o Outcome) Valid() bool {
	switch o {
	case OutcomeGranted, OutcomeDenied, OutcomeCardNotFound:
		return true
	}
	return false
}

type ValidateAccessRequest struct {
	CardID   string `json:"card_id"`
	Location string `json:"location"`
}

type ValidateAccessResponse struct {
	AccessGranted      bool    `json:"access_granted"`
	Outcome            Outcome `json:"outcome"`
	Message            string  `json:"message"`
	UserID             string  `json:"user_id,omitempty"`
	UserName           string  `json:"user_name,omitempty"`
	UserEmail          string  `json:"user_email,omitempty"`
	HasTimeRestriction bool    `json:"has_time_restriction"`
	TimeWindowStart    string  `json:"time_window_start,omitempty"`
	TimeWindowEnd      string  `json:"time_window_end,omitempty"`
	DecisionID         string  `json:"decision_id"`
	ServerTime         string  `json:"server_time"`
}
