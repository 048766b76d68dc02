// Copyright (c) 2025 BVK Chaitanya

package api

// SignInRedirect is the location clients are sent to when they do not have a
// valid session.
const SignInRedirect = "/sign-in"

// ErrorResponse is the body of all non-200 responses.
type ErrorResponse struct {
	Error string

	// Redirect is non-empty when the client should navigate elsewhere (eg: to
	// the sign-in page) before retrying.
	Redirect string `json:",omitempty"`
}
