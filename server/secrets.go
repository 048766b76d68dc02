// Copyright (c) 2023 BVK Chaitanya

package server

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bvk/stockwatch/pushover"
	"github.com/bvk/stockwatch/quote"
	"github.com/bvk/stockwatch/telegram"
)

// Secrets holds the third-party credentials. All sections are optional: the
// server degrades to quote-less watchlists and log-only notifications.
type Secrets struct {
	Finnhub  *quote.Credentials `json:"finnhub,omitempty"`
	Pushover *pushover.Keys     `json:"pushover,omitempty"`
	Telegram *telegram.Secrets  `json:"telegram,omitempty"`
}

func SecretsFromFile(fpath string) (*Secrets, error) {
	data, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}
	s := new(Secrets)
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("could not parse secrets file %q: %w", fpath, err)
	}
	if err := s.Check(); err != nil {
		return nil, fmt.Errorf("secrets file %q is invalid: %w", fpath, err)
	}
	return s, nil
}

func (v *Secrets) Check() error {
	if v.Finnhub != nil {
		if err := v.Finnhub.Check(); err != nil {
			return err
		}
	}
	if v.Pushover != nil {
		if err := v.Pushover.Check(); err != nil {
			return err
		}
	}
	if v.Telegram != nil {
		if err := v.Telegram.Check(); err != nil {
			return err
		}
	}
	return nil
}

// SaveSecrets writes the secrets into a file with owner-only permissions. File
// is replaced atomically.
func SaveSecrets(fpath string, secrets *Secrets) error {
	if err := secrets.Check(); err != nil {
		return err
	}
	js, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal secrets: %w", err)
	}
	tmp := fpath + ".tmp"
	if err := os.WriteFile(tmp, js, os.FileMode(0600)); err != nil {
		return fmt.Errorf("could not write secrets file: %w", err)
	}
	if err := os.Rename(tmp, fpath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("could not replace secrets file %q: %w", fpath, err)
	}
	return nil
}
