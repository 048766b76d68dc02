// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bvk/stockwatch/pushover"
	"github.com/bvk/stockwatch/quote"
)

func TestSecretsFile(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "secrets.json")

	secrets := &Secrets{Finnhub: &quote.Credentials{Token: "finnhub-token"}}
	if err := SaveSecrets(fpath, secrets); err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(fpath); err != nil || fi.Mode().Perm() != 0600 {
		t.Fatalf("wanted owner-only secrets file, got %v (%v)", fi, err)
	}

	loaded, err := SecretsFromFile(fpath)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Finnhub == nil || loaded.Finnhub.Token != "finnhub-token" || loaded.Pushover != nil {
		t.Fatalf("unexpected secrets %+v", loaded)
	}

	loaded.Pushover = &pushover.Keys{ApplicationKey: "app"}
	if err := SaveSecrets(fpath, loaded); err == nil {
		t.Fatalf("wanted error for incomplete pushover keys")
	}
}
