package models

type User struct {
	ID                int     `json:"id"`
	Username          string  `json:"username"`
	Email             string  `json:"email"`
	FullName          *string `json:"full_name,omitempty"`
	PreferredLanguage string  `json:"preferred_language"`
	IsActive          bool    `json:"is_active"`
	IsAdmin           bool    `json:"is_admin"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
