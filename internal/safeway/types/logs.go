package types

import "time"

type AccessLog struct {
	ID               string    `json:"id"`
	EventType        Outcome   `json:"event_type"`
	Location         string    `json:"location"`
	Description      string    `json:"description"`
	UserID           string    `json:"user_id,omitempty"`
	RFIDCredentialID string    `json:"rfid_credential_id,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// ErrorReport is posted by readers when something goes wrong on the device
// side (lost connectivity, antenna fault, ...).
type ErrorReport struct {
	ErrorType   string   `json:"error_type"`
	Component   string   `json:"component"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

type ErrorLog struct {
	ID          string    `json:"id"`
	ErrorType   string    `json:"error_type"`
	Component   string    `json:"component"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	Timestamp   time.Time `json:"timestamp"`
}

type HTTPLog struct {
	ID         string    `json:"id"`
	Method     string    `json:"method"`
	Endpoint   string    `json:"endpoint"`
	StatusCode int       `json:"status_code"`
	Payload    string    `json:"payload,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
