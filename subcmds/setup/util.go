// Copyright (c) 2025 BVK Chaitanya

package setup

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bvk/sentinel/server"
	"github.com/bvk/sentinel/subcmds/cmdutil"
	"golang.org/x/term"
)

// loadSecrets returns the current secrets or nil if the secrets file doesn't
// exist yet.
func loadSecrets(f *cmdutil.DataDirFlags) (string, *server.Secrets, error) {
	spath, err := f.SecretsPath()
	if err != nil {
		return "", nil, err
	}
	secrets, err := server.SecretsFromFile(spath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return "", nil, err
		}
		return spath, nil, nil
	}
	return spath, secrets, nil
}

// prompt reads a line from the terminal. Input is not echoed when secret is
// true.
func prompt(stdout io.Writer, question string, secret bool) (string, error) {
	fmt.Fprintf(stdout, "%s: ", question)
	fd := int(os.Stdin.Fd())
	if secret && term.IsTerminal(fd) {
		data, err := term.ReadPassword(fd)
		fmt.Fprintln(stdout)
		if err != nil {
			return "", fmt.Errorf("could not read from terminal: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("could not read from stdin: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// waitForKey blocks till a key is pressed on the terminal.
func waitForKey() error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer term.Restore(fd, oldState)

	b := make([]byte, 1)
	_, err = os.Stdin.Read(b)
	return err
}
