package models

import "time"

// Session is an authenticated credential for one shop, produced by the
// OAuth callback and read by the Admin API client.
type Session struct {
	Shop        string    `json:"shop"         validate:"required,hostname"`
	AccessToken string    `json:"access_token" validate:"required"`
	Scope       string    `json:"scope"`
	IsOnline    bool      `json:"is_online"`
	CreatedAt   time.Time `json:"created_at"`
}
