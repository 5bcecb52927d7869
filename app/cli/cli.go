// Package cli implements the studyplan frontend commands.
package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studyplan/app/board"
	"studyplan/app/client"
	"studyplan/app/config"
	"studyplan/app/export"
	"studyplan/app/logging"
	"studyplan/app/planner"
	"studyplan/app/tui"
)

var version = "dev"

type options struct {
	configPath string
	serverURL  string
	verbose    bool

	// plans replaces the Gemini planner when set.
	plans board.PlanSource
}

// session is the per-invocation wiring shared by every command.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	client *client.Client
	board  *board.Board
}

// NewRootCommand builds the studyplan command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&options{})
}

func newRootCommand(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:   "studyplan",
		Short: "AI study planner",
		Long: `studyplan turns a study goal into a day-by-day task list stored by the
studyplan server, and tracks progress through it.

Tasks whose names start with Week, Month or Year group the tasks that follow
them and are completed automatically once all of those are done.

Examples:
  # Generate a plan
  studyplan plan "Learn DBMS in 5 days"

  # Show the list and mark task 3 as done
  studyplan list
  studyplan toggle 3

  # Open the interactive planner
  studyplan tui`,
		Version:      version,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.serverURL, "server", "", "task API base URL (overrides client.base_url)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at the configured level instead of warn")

	root.AddCommand(
		newListCommand(opts),
		newAddCommand(opts),
		newPlanCommand(opts),
		newToggleCommand(opts),
		newDeleteCommand(opts),
		newClearCommand(opts),
		newExportCommand(opts),
		newHealthCommand(opts),
		newTUICommand(opts),
	)
	return root
}

type plannerMode int

const (
	noPlanner plannerMode = iota
	optionalPlanner
	requiredPlanner
)

// open loads configuration and wires the client and board. An optional
// planner is skipped with a warning when no API key is configured.
func (o *options) open(ctx context.Context, mode plannerMode) (*session, error) {
	return o.openWith(ctx, mode, logging.New)
}

// openInteractive wires a session for the full-screen UI. Its logger is
// silent since any write to stderr would tear the alternate screen.
func (o *options) openInteractive(ctx context.Context) (*session, error) {
	return o.openWith(ctx, optionalPlanner, func(config.LogConfig) (*zap.Logger, error) {
		return zap.NewNop(), nil
	})
}

func (o *options) openWith(ctx context.Context, mode plannerMode, newLogger func(config.LogConfig) (*zap.Logger, error)) (*session, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.serverURL != "" {
		cfg.Client.BaseURL = o.serverURL
	}

	logCfg := cfg.Log
	if !o.verbose {
		logCfg.Level = "warn"
	}
	logger, err := newLogger(logCfg)
	if err != nil {
		return nil, err
	}

	c := client.New(cfg.Client.BaseURL, cfg.Client.Timeout)

	var plans board.PlanSource
	switch {
	case o.plans != nil:
		plans = o.plans
	case mode == optionalPlanner && cfg.Gemini.APIKey == "":
		logger.Warn("no Gemini API key configured; plan generation disabled")
	case mode != noPlanner:
		gen, err := planner.NewGeminiGenerator(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			return nil, err
		}
		logger.Info("plan generator ready", zap.String("generator", gen.Name()))
		plans = planner.New(gen, cfg.Gemini, logger)
	}

	return &session{
		cfg:    cfg,
		logger: logger,
		client: c,
		board:  board.New(c, plans, logger),
	}, nil
}

func (s *session) close() {
	_ = s.logger.Sync()
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return id, nil
}

func newListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the task list",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.open(cmd.Context(), noPlanner)
			if err != nil {
				return err
			}
			defer s.close()

			view, err := s.board.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			printView(cmd, view)
			return nil
		},
	}
}

func printView(cmd *cobra.Command, view *board.View) {
	out := cmd.OutOrStdout()
	if len(view.Tasks) == 0 {
		fmt.Fprintln(out, export.Render(nil))
	}
	for _, l := range export.Lines(view.Tasks) {
		fmt.Fprintf(out, "%4d  %s\n", l.Task.ID, export.RenderLine(l))
	}
	for _, err := range view.Failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
}

func newAddCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>...",
		Short: "Add a task manually",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context(), noPlanner)
			if err != nil {
				return err
			}
			defer s.close()

			task, err := s.board.AddTask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added task %d: %s\n", task.ID, task.Name)
			return nil
		},
	}
}

func newPlanCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "plan <goal>...",
		Aliases: []string{"generate"},
		Short:   "Generate a study plan for a goal and add it to the list",
		Long: `Ask Gemini for a day-by-day plan and add each line of the answer as a task.

Requires GEMINI_API_KEY (or gemini.api_key in the config file).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context(), requiredPlanner)
			if err != nil {
				return err
			}
			defer s.close()

			n, err := s.board.GeneratePlan(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Study plan added (%d tasks)\n", n)
			return nil
		},
	}
}

func newToggleCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "toggle <id>",
		Aliases: []string{"done"},
		Short:   "Flip a task between done and not done",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := opts.open(cmd.Context(), noPlanner)
			if err != nil {
				return err
			}
			defer s.close()

			view, err := s.board.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			task, err := s.board.Toggle(cmd.Context(), view, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", export.Glyph(task.Completed), task.Name)
			return nil
		},
	}
}

func newDeleteCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := opts.open(cmd.Context(), noPlanner)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.board.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Task deleted")
			return nil
		},
	}
}

func newClearCommand(opts *options) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear all tasks without --yes")
			}
			s, err := opts.open(cmd.Context(), noPlanner)
			if err != nil {
				return err
			}
			defer s.close()

			n, err := s.board.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d tasks cleared!\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deleting every task")
	return cmd
}

func newExportCommand(opts *options) *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the task list as a PDF or text document",
		Long: `Export the current task list, with parent completion applied.

Examples:
  studyplan export
  studyplan export --format txt -o plan.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output == "" {
				output = "study_plan." + format
			}
			s, err := opts.open(cmd.Context(), noPlanner)
			if err != nil {
				return err
			}
			defer s.close()

			view, err := s.board.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			if err := export.Save(output, format, view.Tasks, s.cfg.Export); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tasks to %s\n", len(view.Tasks), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", export.FormatPDF, "pdf or txt")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default study_plan.<format>)")
	return cmd
}

func newHealthCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the task API server is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.open(cmd.Context(), noPlanner)
			if err != nil {
				return err
			}
			defer s.close()

			msg, err := s.client.Health(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func newTUICommand(opts *options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive planner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.openInteractive(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			return tui.Run(s.board, tui.Options{Export: s.cfg.Export, ExportPath: output})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "study_plan.pdf", "file written by the export key")
	return cmd
}
