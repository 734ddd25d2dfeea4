package model

import "encoding/json"

// Envelope — обёртка ответов бэкенда: {success, message, data}.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// LoginRequest тело POST /login/.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest тело POST /signup/.
type SignupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	DOB             string `json:"dob"`
	PhoneNumber     string `json:"phone_number,omitempty"`
}

// RefreshRequest тело POST /token/refresh/.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}
