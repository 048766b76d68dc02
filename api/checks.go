// Copyright (c) 2025 BVK Chaitanya

package api

import (
	"fmt"
	"strings"
)

func (r *WatchlistAddRequest) Check() error {
	if len(strings.TrimSpace(r.Symbol)) == 0 {
		return fmt.Errorf("symbol cannot be empty")
	}
	return nil
}

func (r *WatchlistRemoveRequest) Check() error {
	if len(strings.TrimSpace(r.Symbol)) == 0 {
		return fmt.Errorf("symbol cannot be empty")
	}
	return nil
}

func (r *UserSignUpRequest) Check() error {
	if !strings.Contains(r.Email, "@") {
		return fmt.Errorf("email address %q is invalid", r.Email)
	}
	return nil
}

func (r *UserSignInRequest) Check() error {
	if len(strings.TrimSpace(r.Email)) == 0 {
		return fmt.Errorf("email cannot be empty")
	}
	return nil
}
