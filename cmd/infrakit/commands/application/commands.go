// Package application holds the commands that act on onboarded
// applications: onboard, sync, status and list.
package application

import "github.com/urfave/cli/v3"

// Commands returns the application commands, mounted at the top level
func Commands() []*cli.Command {
	return []*cli.Command{
		OnboardCommand,
		SyncCommand,
		StatusCommand,
		ListCommand,
	}
}
