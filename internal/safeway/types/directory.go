package types

import "time"

type User struct {
	ID        string     `json:"id"`
	FullName  string     `json:"full_name"`
	Email     string     `json:"email"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type UserCreate struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	IsActive *bool  `json:"is_active,omitempty"` // defaults to true
}

// UserUpdate carries a partial update; nil fields are left unchanged.
type UserUpdate struct {
	FullName *string `json:"full_name,omitempty"`
	Email    *string `json:"email,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type Credential struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	CardID             string     `json:"card_id"`
	IsActive           bool       `json:"is_active"`
	HasTimeRestriction bool       `json:"has_time_restriction"`
	TimeWindowStart    string     `json:"time_window_start,omitempty"`
	TimeWindowEnd      string     `json:"time_window_end,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}

type CredentialCreate struct {
	UserID             string `json:"user_id"`
	CardID             string `json:"card_id"`
	IsActive           *bool  `json:"is_active,omitempty"` // defaults to true
	HasTimeRestriction bool   `json:"has_time_restriction"`
	TimeWindowStart    string `json:"time_window_start,omitempty"`
	TimeWindowEnd      string `json:"time_window_end,omitempty"`
}

type CredentialUpdate struct {
	CardID             *string `json:"card_id,omitempty"`
	IsActive           *bool   `json:"is_active,omitempty"`
	HasTimeRestriction *bool   `json:"has_time_restriction,omitempty"`
	TimeWindowStart    *string `json:"time_window_start,omitempty"`
	TimeWindowEnd      *string `json:"time_window_end,omitempty"`
}

// SyncEntry is one row of the credential feed pulled by embedded readers.
type SyncEntry struct {
	CardID             string `json:"card_id"`
	UserName           string `json:"user_name"`
	HasTimeRestriction bool   `json:"has_time_restriction"`
	TimeWindowStart    string `json:"time_window_start"`
	TimeWindowEnd      string `json:"time_window_end"`
}

type SyncPage struct {
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	Total      int         `json:"total"`
	TotalPages int         `json:"total_pages"`
	Data       []SyncEntry `json:"data"`
}
