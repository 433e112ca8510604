package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds the login form. Any name and email are accepted.
type LoginRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Role       Role   `json:"role" validate:"required,oneof=admin faculty student"`
	Program    string `json:"program"`
	Department string `json:"department"`
}

// LoginResponse returns the issued session token and the session user.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	User        User      `json:"user"`
}

// JWTClaims represents the JWT payload for session tokens.
type JWTClaims struct {
	User User `json:"user"`
	jwt.RegisteredClaims
}
