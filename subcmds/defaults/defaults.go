// Copyright (c) 2025 BVK Chaitanya

// Package defaults resolves the default values for command-line flags from
// the STOCKWATCH_* environment variables.
package defaults

import (
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	ServerPortEnv = "STOCKWATCH_SERVER_PORT"
	DataDirEnv    = "STOCKWATCH_DATA_DIR"
	LogDirEnv     = "STOCKWATCH_LOG_DIR"
	SessionEnv    = "STOCKWATCH_SESSION"

	// EnvFile is the name of the file in user's home directory with the
	// STOCKWATCH_* variables, without the prefix.
	EnvFile = ".stockwatch.env"

	EnvPrefix = "STOCKWATCH_"
)

func ServerPort() int {
	const defaultValue = 10000

	value := os.Getenv(ServerPortEnv)
	if len(value) == 0 {
		return defaultValue
	}

	port, err := strconv.ParseUint(value, 10, 16)
	if err != nil || port == 0 {
		slog.Warn("server port must be a positive decimal integer (ignored)", "env", ServerPortEnv, "value", value)
		return defaultValue
	}
	return int(port)
}

func DataDir() string {
	const fallbackValue = "."
	user, err := user.Current()
	if err != nil {
		slog.Warn("could not query for current user (using fallback data directory)", "err", err)
		return fallbackValue
	}
	if len(user.HomeDir) == 0 {
		slog.Warn("could not find home directory (using fallback data directory)")
		return fallbackValue
	}

	var defaultValue = filepath.Join(user.HomeDir, ".stockwatch")
	value := os.Getenv(DataDirEnv)
	if len(value) == 0 {
		return defaultValue
	}

	if !filepath.IsAbs(value) {
		slog.Warn("data directory must be an absolute path (ignored)", "env", DataDirEnv, "value", value)
		return defaultValue
	}
	return value
}

// LogDir returns the log directory. Relative names are resolved under the
// data directory.
func LogDir() string {
	var dataDir = DataDir()

	var defaultValue = filepath.Join(dataDir, "logs")
	value := os.ExpandEnv(os.Getenv(LogDirEnv))
	if len(value) == 0 {
		return defaultValue
	}

	if !filepath.IsAbs(value) {
		if strings.ContainsRune(value, os.PathSeparator) {
			slog.Warn("log directory must be an absolute path or a base name (ignored)", "env", LogDirEnv, "value", value)
			return defaultValue
		}
		return filepath.Join(dataDir, value)
	}
	return value
}

// Session returns the session token saved by the sign-in command, if any.
func Session() string {
	return os.Getenv(SessionEnv)
}
