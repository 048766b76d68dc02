// Copyright (c) 2023 BVK Chaitanya

// Package daemonize respawns the current program as a background process.
package daemonize

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// CheckFunc verifies that the background process is initialized. Parent keeps
// polling while it returns a non-nil error with retry set to true.
type CheckFunc = func(ctx context.Context, child *os.Process) (retry bool, err error)

// Daemonize respawns the current program in the background with the same
// command-line arguments. It must be called during the program startup before
// opening databases or starting servers.
//
// Environment variable envKey identifies the parent and child processes. It is
// set to the parent's pid in the child process. Standard input and outputs of
// the child process are replaced with /dev/null.
//
// When successful, Daemonize returns nil in the background process and exits
// the parent process. When unsuccessful, it returns non-nil error to the
// parent process.
func Daemonize(ctx context.Context, envKey string, check CheckFunc) error {
	if v := os.Getenv(envKey); len(v) != 0 {
		if _, err := unix.Setsid(); err != nil {
			return fmt.Errorf("could not set session id: %w", err)
		}
		return nil
	}
	if err := daemonizeParent(ctx, envKey, check); err != nil {
		return err
	}
	os.Exit(0)
	return nil
}

func daemonizeParent(ctx context.Context, envKey string, check CheckFunc) error {
	binary, err := exec.LookPath(os.Args[0])
	if err != nil {
		return fmt.Errorf("could not lookup binary: %w", err)
	}
	binaryPath, err := filepath.Abs(binary)
	if err != nil {
		return fmt.Errorf("could not determine absolute path for binary: %w", err)
	}

	file, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", os.DevNull, err)
	}
	defer file.Close()

	// Receive signal when child-process dies.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGCHLD, os.Interrupt)
	defer stop()

	attr := &os.ProcAttr{
		Dir:   "/",
		Env:   append(os.Environ(), fmt.Sprintf("%s=%d", envKey, os.Getpid())),
		Files: []*os.File{file, file, file},
	}
	child, err := os.StartProcess(binaryPath, os.Args, attr)
	if err != nil {
		return fmt.Errorf("could not start background process: %w", err)
	}

	if check == nil {
		return nil
	}
	for ctx.Err() == nil {
		retry, err := check(ctx, child)
		if err == nil {
			return nil
		}
		if !retry {
			return fmt.Errorf("background process is not initialized: %w", err)
		}
		slog.WarnContext(ctx, "background process is not yet initialized", "pid", child.Pid, "err", err)
		time.Sleep(time.Second)
	}
	return fmt.Errorf("could not initialize the background process: %w", context.Cause(ctx))
}
