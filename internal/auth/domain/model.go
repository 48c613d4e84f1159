package domain

import "time"

// Profile is the users/{uid} document.
// UID is the auth identity and the document key.
type Profile struct {
	UID         string    `json:"uid"`
	Number      string    `json:"number"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// SignUpRequest represents the sign-up form.
type SignUpRequest struct {
	Number   string `json:"number"`
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

// SignInRequest represents the sign-in form.
type SignInRequest struct {
	Number   string `json:"number"`
	Password string `json:"password"`
}
