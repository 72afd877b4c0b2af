package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/carlosrabelo/voicevlan/infrastructure/config"
)

// promptCredentials asks for whatever login data the configuration lacks.
// The password is read without echo when stdin is a terminal.
func promptCredentials(cfg *config.Config, in *bufio.Reader, out io.Writer, stdin io.Reader) error {
	if cfg.Username == "" {
		fmt.Fprint(out, "Enter username: ")
		username, err := readLine(in)
		if err != nil {
			return fmt.Errorf("reading username: %w", err)
		}
		cfg.Username = username
	}
	if cfg.Password == "" {
		fmt.Fprint(out, "Enter password: ")
		password, err := readSecret(in, out, stdin)
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
		cfg.Password = password
	}
	if cfg.EnablePassword == "" {
		cfg.EnablePassword = cfg.Password
	}
	return nil
}

func readSecret(in *bufio.Reader, out io.Writer, stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}
	return readLine(in)
}

func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
