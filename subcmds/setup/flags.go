// Copyright (c) 2025 BVK Chaitanya

// Package setup has the commands that record third-party credentials in the
// secrets file.
package setup

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bvk/stockwatch/server"
	"github.com/bvk/stockwatch/subcmds/defaults"
	"golang.org/x/term"
)

type Flags struct {
	dataDir     string
	skipTesting bool
}

func (f *Flags) SetFlags(fset *flag.FlagSet) {
	fset.StringVar(&f.dataDir, "data-dir", defaults.DataDir(), "path to the data directory")
	fset.BoolVar(&f.skipTesting, "skip-testing", false, "don't test the parameters")
}

func (f *Flags) secretsPath() (string, error) {
	if err := os.MkdirAll(f.dataDir, 0700); err != nil {
		return "", fmt.Errorf("could not create data directory %q: %w", f.dataDir, err)
	}
	dataDir, err := filepath.Abs(f.dataDir)
	if err != nil {
		return "", fmt.Errorf("could not determine data-dir %q absolute path: %w", f.dataDir, err)
	}
	return filepath.Join(dataDir, "secrets.json"), nil
}

// update loads the current secrets, lets fn modify them and saves them back.
func (f *Flags) update(fn func(*server.Secrets) error) error {
	fpath, err := f.secretsPath()
	if err != nil {
		return err
	}
	secrets, err := server.SecretsFromFile(fpath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		secrets = new(server.Secrets)
	}
	if err := fn(secrets); err != nil {
		return err
	}
	return server.SaveSecrets(fpath, secrets)
}

// readSecret returns value when it is non-empty. Otherwise, it prompts for the
// value on the terminal without echoing it.
func readSecret(value, prompt string) (string, error) {
	if len(value) != 0 {
		return value, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && len(line) == 0 {
			return "", fmt.Errorf("could not read %s from stdin: %w", prompt, err)
		}
		return strings.TrimSpace(line), nil
	}
	fmt.Fprintf(os.Stderr, "%s: ", prompt)
	data, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("could not read %s from the terminal: %w", prompt, err)
	}
	return strings.TrimSpace(string(data)), nil
}
