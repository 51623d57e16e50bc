// Package auth stores and removes the ArgoCD password.
package auth

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/catalystcommunity/infrakit/cmd/infrakit/commands/common"
	"github.com/catalystcommunity/infrakit/internal/secrets"
)

// PasswordReader reads a password without echo. Tests replace it.
var PasswordReader = func(prompt string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", prompt)

	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Fprintln(os.Stderr)
	return string(password), nil
}

// LoginCommand stores the ArgoCD password in the OS keyring
var LoginCommand = &cli.Command{
	Name:  "login",
	Usage: "Store the ArgoCD password in the OS keyring",
	Description: `Prompts for the ArgoCD password and stores it in the OS keyring. When no
keyring is available the password is written to a file only readable by
you in the config directory.

Reference it from the config file as ${keyring:argocd-password}.`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "password-stdin",
			Usage: "read the password from stdin",
		},
	},
	Action: runLogin,
}

// LogoutCommand removes the stored ArgoCD password
var LogoutCommand = &cli.Command{
	Name:   "logout",
	Usage:  "Remove the stored ArgoCD password",
	Action: runLogout,
}

func runLogin(ctx context.Context, cmd *cli.Command) error {
	var (
		password string
		err      error
	)
	if cmd.Bool("password-stdin") {
		password, err = readPasswordFrom(cmd.Root().Reader)
	} else {
		password, err = PasswordReader("ArgoCD password")
	}
	if err != nil {
		return err
	}

	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if err := secrets.StoreCredential(secrets.AccountArgoCD, password); err != nil {
		return fmt.Errorf("failed to store password: %w", err)
	}

	fmt.Fprintln(common.Out(cmd), "✓ ArgoCD password stored")
	return nil
}

func runLogout(ctx context.Context, cmd *cli.Command) error {
	if err := secrets.ClearCredential(secrets.AccountArgoCD); err != nil {
		return fmt.Errorf("failed to remove password: %w", err)
	}

	fmt.Fprintln(common.Out(cmd), "✓ ArgoCD password removed")
	return nil
}

func readPasswordFrom(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}
