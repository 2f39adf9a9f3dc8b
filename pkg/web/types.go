// Package web provides the HTTP entry points for OAuth and store builds.
package web

import "github.com/tailorbase/storesmith/pkg/models"

// BuildStoreRequest is the body for POST /api/build-store. AccessToken is
// optional when a session for the shop already exists.
type BuildStoreRequest struct {
	Shop        string `json:"shop"         validate:"required,hostname"`
	AccessToken string `json:"access_token"`
}

// BuildStoreResponse reports the outcome of a build run. Success is false
// only when the run could not complete; per-step failures live in Report.
type BuildStoreResponse struct {
	Success  bool                `json:"success"`
	Message  string              `json:"message"`
	StoreURL string              `json:"store_url,omitempty"`
	Report   *models.BuildReport `json:"report,omitempty"`
}
