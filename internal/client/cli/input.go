package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/bucketstore/internal/client/client"
	"github.com/dmitrijs2005/bucketstore/internal/client/config"
	"github.com/dmitrijs2005/bucketstore/internal/common"
	"github.com/google/uuid"
	"golang.org/x/term"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

type fdReader interface {
	io.Reader
	Fd() uintptr
}

// credentials returns the configured key, prompting for a missing secret.
func (a *App) credentials() (client.Credentials, error) {
	if a.cfg.KeyID == "" {
		return client.Credentials{}, fmt.Errorf("no key id: use --key-id or %s", config.EnvKeyID)
	}
	id, err := uuid.Parse(a.cfg.KeyID)
	if err != nil {
		return client.Credentials{}, fmt.Errorf("key id %q is not a UUID", a.cfg.KeyID)
	}

	secret := a.cfg.Secret
	if secret == "" {
		if secret, err = a.promptSecret(); err != nil {
			return client.Credentials{}, err
		}
	}
	return client.Credentials{KeyID: id, Secret: secret}, nil
}

// promptSecret reads the secret without echo from a terminal, or as one
// line from any other input.
func (a *App) promptSecret() (string, error) {
	fmt.Fprint(a.errOut, "Enter key secret: ")

	if f, ok := a.in.(fdReader); ok && isTerminal(int(f.Fd())) {
		b, err := readPassword(int(f.Fd()))
		fmt.Fprintln(a.errOut)
		if err != nil {
			return "", err
		}
		defer common.WipeByteArray(b)
		return string(b), nil
	}

	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}
