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

	"github.com/bvk/sentinel/ctxutil"
	"golang.org/x/sys/unix"
)

// CheckFunc verifies that the background process is initialized. Returning
// true with a non-nil error asks for another check after a short delay.
type CheckFunc func(ctx context.Context, child *os.Process) (retry bool, err error)

// Daemonize restarts the current program in the background with the same
// arguments. Environment variable envkey tells the parent and the child
// apart, so it must not be used by anything else.
//
// In the parent process, Daemonize waits for check to succeed and exits the
// process; it returns only on errors. In the child process, it detaches from
// the controlling terminal and returns nil.
func Daemonize(ctx context.Context, envkey string, check CheckFunc) error {
	if len(envkey) == 0 {
		return os.ErrInvalid
	}
	if v := os.Getenv(envkey); len(v) != 0 {
		if _, err := unix.Setsid(); err != nil {
			return fmt.Errorf("could not set session id: %w", err)
		}
		return nil
	}
	if err := startChild(ctx, envkey, check); err != nil {
		return err
	}
	os.Exit(0)
	return nil
}

func startChild(ctx context.Context, envkey string, check CheckFunc) error {
	binary, err := exec.LookPath(os.Args[0])
	if err != nil {
		return fmt.Errorf("could not lookup binary: %w", err)
	}
	binaryPath, err := filepath.Abs(binary)
	if err != nil {
		return fmt.Errorf("could not determine absolute path for binary: %w", err)
	}

	devnull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", os.DevNull, err)
	}
	defer devnull.Close()

	// Child death is reported with SIGCHLD.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGCHLD, os.Interrupt)
	defer stop()

	attr := &os.ProcAttr{
		Dir:   "/",
		Env:   append(os.Environ(), fmt.Sprintf("%s=%d", envkey, os.Getpid())),
		Files: []*os.File{devnull, devnull, devnull},
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
			child.Signal(os.Interrupt)
			return err
		}
		slog.Warn("background process is not yet initialized", "pid", child.Pid, "err", err)
		ctxutil.Sleep(ctx, time.Second)
	}
	return fmt.Errorf("could not initialize the background process: %w", context.Cause(ctx))
}
