// Copyright (c) 2025 BVK Chaitanya

package gobs

import "time"

type User struct {
	ID    string
	Email string
	Name  string

	CreatedAt time.Time
}

type Session struct {
	Token  string
	UserID string
	Email  string

	CreatedAt time.Time
	ExpiresAt time.Time
}
