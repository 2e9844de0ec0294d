package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/EnamSon/gformfiller/pkg/jobs"
	"github.com/EnamSon/gformfiller/pkg/logging"
	"github.com/EnamSon/gformfiller/pkg/profiles"
)

// resolveWorkspace picks --workspace, then fallback, then the gformfiller
// home.
func resolveWorkspace(c *cli.Context, fallback string) (jobs.Workspace, error) {
	root := c.String("workspace")
	if root == "" {
		root = fallback
	}
	if root == "" {
		home, err := logging.HomeDir()
		if err != nil {
			return jobs.Workspace{}, err
		}
		root = home
	}
	return jobs.Workspace{Root: root}, nil
}

// openWorkspace opens the job store and profile directory of the workspace.
func openWorkspace(c *cli.Context, fallback string) (jobs.Workspace, *jobs.SQLiteStore, *profiles.Dir, error) {
	ws, err := resolveWorkspace(c, fallback)
	if err != nil {
		return ws, nil, nil, err
	}
	store, err := jobs.OpenSQLite(ws.DBPath())
	if err != nil {
		return ws, nil, nil, fmt.Errorf("failed to open job store: %w", err)
	}
	return ws, store, profiles.NewDir(ws.ProfilesDir()), nil
}

func profileDir(c *cli.Context) (*profiles.Dir, error) {
	ws, err := resolveWorkspace(c, "")
	if err != nil {
		return nil, err
	}
	return profiles.NewDir(ws.ProfilesDir()), nil
}
