// Copyright (c) 2025 BVK Chaitanya

package quote

import "fmt"

type Credentials struct {
	Token string `json:"token"`
}

func (v *Credentials) Check() error {
	if len(v.Token) == 0 {
		return fmt.Errorf("finnhub api token cannot be empty")
	}
	return nil
}
