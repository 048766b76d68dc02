// Copyright (c) 2025 BVK Chaitanya

package api

import "time"

const UserSignUpPath = "/user/signup"

type UserSignUpRequest struct {
	Email string
	Name  string
}

type UserSignUpResponse struct {
	UserID string
}

const UserSignInPath = "/user/signin"

type UserSignInRequest struct {
	Email string
}

type UserSignInResponse struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}

const UserSignOutPath = "/user/signout"

type UserSignOutRequest struct {
}

type UserSignOutResponse struct {
}
