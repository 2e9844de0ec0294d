package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/EnamSon/gformfiller/pkg/config"
	"github.com/EnamSon/gformfiller/pkg/dsl"
	"github.com/EnamSon/gformfiller/pkg/form"
	"github.com/EnamSon/gformfiller/pkg/jobs"
)

const timeLayout = "2006-01-02 15:04:05"

func matchCommand() *cli.Command {
	return &cli.Command{
		Name:      "match",
		Usage:     "evaluate a matching expression against a text",
		ArgsUsage: "<text> <expression>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "case-sensitive", Usage: "compare words with their case"},
		},
		Action: matchAction,
	}
}

func matchAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return errors.New("match needs <text> and <expression>")
	}
	text, expr := c.Args().Get(0), c.Args().Get(1)
	ignoreCase := !c.Bool("case-sensitive")

	res := dsl.MatchCase(text, expr, ignoreCase)
	fmt.Fprintln(c.App.Writer, res)
	if res == dsl.Indeterminate {
		if _, err := dsl.Compile(expr, ignoreCase); err != nil {
			fmt.Fprintln(c.App.ErrWriter, err)
		}
	}
	return nil
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "create a pending job from a YAML run config",
		ArgsUsage: "<run-config.yaml>",
		Action:    addAction,
	}
}

func addAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("add needs the path of a run config")
	}
	path := c.Args().First()
	rc, err := LoadRunConfig(path)
	if err != nil {
		return err
	}

	job := jobs.New(rc.URL)
	job.Profile = rc.Profile
	job.UseAI = rc.UseAI
	job.Submit = rc.SubmitOr(config.GetFiller().SubmitByDefault())
	if rc.UseAI {
		if job.AIContext, err = rc.UserContext(); err != nil {
			return err
		}
	} else {
		if job.Answers, err = form.LoadAnswerTable(rc.AnswersPath()); err != nil {
			return err
		}
	}

	_, store, dir, err := openWorkspace(c, rc.resolve(rc.Workspace))
	if err != nil {
		return err
	}
	defer store.Close()

	if job.Profile != "" {
		if err := dir.Ensure(job.Profile); err != nil {
			return err
		}
	}
	if err := store.Create(c.Context, job); err != nil {
		return err
	}
	cliLog.Infof("added job %s for %s from %s", job.ID, job.URL, filepath.Base(path))

	fmt.Fprintln(c.App.Writer, job.ID)
	return nil
}

func jobsCommand() *cli.Command {
	return &cli.Command{
		Name:  "jobs",
		Usage: "list jobs, oldest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "status", Usage: "only jobs with this status"},
		},
		Action: jobsAction,
	}
}

func jobsAction(c *cli.Context) error {
	var status jobs.Status
	if s := c.String("status"); s != "" {
		var err error
		if status, err = jobs.ParseStatus(s); err != nil {
			return err
		}
	}

	_, store, _, err := openWorkspace(c, "")
	if err != nil {
		return err
	}
	defer store.Close()

	list, err := store.List(c.Context, status)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(c.App.Writer, mutedStyle.Render("No jobs found"))
		return nil
	}
	fmt.Fprintln(c.App.Writer, jobTable(list))
	return nil
}

func jobTable(list []*jobs.Job) string {
	rows := make([][]string, 0, len(list))
	for _, j := range list {
		mode := "table"
		if j.UseAI {
			mode = "ai"
		}
		rows = append(rows, []string{
			j.ID,
			j.CreatedAt.Local().Format(timeLayout),
			statusStyle(j.Status).Render(string(j.Status)),
			dash(j.Profile),
			mode,
			j.URL,
			dash(j.LastError),
		})
	}
	return renderTable([]string{"ID", "CREATED", "STATUS", "PROFILE", "ANSWERS", "URL", "LAST ERROR"}, rows)
}

func logsCommand() *cli.Command {
	return &cli.Command{
		Name:  "logs",
		Usage: "show the most recent action log entries",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Usage: "only entries of this category (job, profile)"},
			&cli.IntFlag{Name: "limit", Value: 20, Usage: "maximum number of entries"},
		},
		Action: logsAction,
	}
}

func logsAction(c *cli.Context) error {
	_, store, _, err := openWorkspace(c, "")
	if err != nil {
		return err
	}
	defer store.Close()

	actions, err := store.Actions(c.Context, c.String("category"), c.Int("limit"))
	if err != nil {
		return err
	}
	if len(actions) == 0 {
		fmt.Fprintln(c.App.Writer, mutedStyle.Render("No log entries"))
		return nil
	}

	rows := make([][]string, 0, len(actions))
	for _, a := range actions {
		rows = append(rows, []string{
			a.Timestamp.Local().Format(timeLayout),
			a.Action,
			a.Category,
			a.Target,
			dash(a.Details),
		})
	}
	fmt.Fprintln(c.App.Writer, renderTable([]string{"TIME", "ACTION", "CATEGORY", "TARGET", "DETAILS"}, rows))
	return nil
}

func profilesCommand() *cli.Command {
	return &cli.Command{
		Name:  "profiles",
		Usage: "manage browser profiles",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "list profiles and their locks",
				Action: profilesListAction,
			},
			{
				Name:      "add",
				Usage:     "create a profile directory",
				ArgsUsage: "<name>",
				Action:    profilesAddAction,
			},
			{
				Name:      "unlock",
				Usage:     "remove a stale profile lock",
				ArgsUsage: "<name>",
				Action:    profilesUnlockAction,
			},
		},
	}
}

func profilesListAction(c *cli.Context) error {
	dir, err := profileDir(c)
	if err != nil {
		return err
	}

	names, err := dir.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(c.App.Writer, mutedStyle.Render("No profiles found"))
		return nil
	}

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		state := successStyle.Render("free")
		owner := "-"
		if dir.Exists(name) {
			state = warningStyle.Render("locked")
			owner = dash(dir.Owner(name))
		}
		rows = append(rows, []string{name, state, owner})
	}
	fmt.Fprintln(c.App.Writer, renderTable([]string{"PROFILE", "STATE", "LOCK"}, rows))
	return nil
}

func profilesAddAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("profiles add needs a name")
	}
	dir, err := profileDir(c)
	if err != nil {
		return err
	}
	name := c.Args().First()
	if err := dir.Ensure(name); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, dir.Path(name))
	return nil
}

func profilesUnlockAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("profiles unlock needs a name")
	}
	dir, err := profileDir(c)
	if err != nil {
		return err
	}
	name := c.Args().First()
	if err := dir.Remove(name); err != nil {
		return err
	}
	cliLog.Warnf("lock of profile %s removed by hand", name)
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
