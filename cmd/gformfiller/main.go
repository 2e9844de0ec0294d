// Package main provides the gformfiller command line. It stores form
// filling jobs in a workspace, runs them on browser profiles and schedules
// batches of jobs across the free profiles.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/EnamSon/gformfiller/pkg/config"
	"github.com/EnamSon/gformfiller/pkg/logging"
)

const version = "0.1.0"

var cliLog *logging.Logger

func init() {
	var err error
	cliLog, err = logging.NewLogger("cli")
	if err != nil {
		cliLog.Warnf("failed to initialize cli logger: %v", err)
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nShutting down: running jobs finish, no new jobs start...")
		cliLog.Infof("interrupt received")
		cancel()
	}()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		cancel()
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
	cancel()
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "gformfiller",
		Usage:   "fill Google Forms from answer tables or an AI provider",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "workspace",
				Aliases: []string{"w"},
				Usage:   "workspace root holding the database, profiles and job records (default: gformfiller home)",
				EnvVars: []string{"GFORMFILLER_WORKSPACE"},
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "settings file (default: config.json in the workspace root over the one in the gformfiller home)",
			},
		},
		Before: func(c *cli.Context) error {
			if err := config.Initialize(c.String("config"), c.String("workspace")); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}
			return nil
		},
		Commands: []*cli.Command{
			matchCommand(),
			addCommand(),
			runCommand(),
			enqueueCommand(),
			jobsCommand(),
			logsCommand(),
			profilesCommand(),
		},
	}
}

// llmFlags select the AI provider; unset values fall back to the
// environment and then the settings file.
func llmFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "model", Usage: "LLM model for AI answers"},
		&cli.StringFlag{Name: "base-url", Usage: "OpenAI-compatible API base URL"},
		&cli.StringFlag{Name: "api-key", Usage: "API key (or set OPENAI_API_KEY)"},
	}
}
