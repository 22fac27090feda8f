// Package cmd implements the learnpath command line.
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/learnpath/internal/app"
	"github.com/abhisek/learnpath/internal/config"
	"github.com/abhisek/learnpath/internal/learning"
	"github.com/abhisek/learnpath/internal/logging"
	"github.com/abhisek/learnpath/internal/migrate"
)

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "learnpath",
		Short:        "Track learning paths, modules and quizzes",
		Long:         "learnpath keeps named learning paths of modules, quizzes you on them and issues completion certificates.",
		SilenceUsage: true,
		RunE: withApp(func(cmd *cobra.Command, a *app.App, _ []string) error {
			return printOverview(cmd.OutOrStdout(), a.Manager())
		}),
	}

	pf := root.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides LEARNPATH_DB)")
	pf.String("config", "", "Path to config file (default $XDG_CONFIG_HOME/learnpath/config.yaml)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-file", "", "Also write JSON logs to this file")
	pf.String("provider", "", "LLM provider: anthropic, openai, gemini, openrouter")

	root.AddCommand(
		newPathCmd(),
		newModuleCmd(),
		newQuizCmd(),
		newCertCmd(),
		newQuestionCmd(),
		newMigrateCmd(),
		newResetCmd(),
		newVersionCmd(),
		newUpdateCmd(),
	)
	return root
}

// runFunc is a command body that gets a loaded App.
type runFunc func(cmd *cobra.Command, a *app.App, args []string) error

// withApp opens and loads the app around fn and closes it afterwards.
// A legacy migration performed while loading is reported on stderr.
func withApp(fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		res, err := a.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("load: %w", err)
		}
		if res != nil {
			printMigration(cmd.ErrOrStderr(), res)
		}
		if err := fn(cmd, a, args); err != nil {
			return err
		}
		if err := a.Manager().PersistError(); err != nil {
			return fmt.Errorf("save: %w", err)
		}
		return nil
	}
}

// openApp builds configuration and logging from the command's flags and
// opens storage without loading it.
func openApp(cmd *cobra.Command) (*app.App, error) {
	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(file, cmd.Flags())
	if err != nil {
		return nil, err
	}
	log, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}
	log.Debug("config loaded", zap.String("file", cfg.File), zap.String("db", cfg.DB))
	return app.Open(app.Options{Config: cfg, Log: log})
}

func printMigration(w io.Writer, r *migrate.Result) {
	if !r.Success {
		fmt.Fprintf(w, "Legacy data migration failed: %s\n", strings.Join(r.Errors, "; "))
		fmt.Fprintln(w, "Your old data was left untouched.")
		return
	}
	fmt.Fprintf(w, "Migrated legacy data into a new path (%d modules, %d quiz attempts, %d certificates, %d custom questions).\n",
		r.DataMigrated.Modules, r.DataMigrated.QuizAttempts, r.DataMigrated.Certificates, r.DataMigrated.CustomQuestions)
	if r.BackupKey != "" {
		fmt.Fprintf(w, "Backup stored under %s.\n", r.BackupKey)
	}
}

func printOverview(w io.Writer, m *learning.Manager) error {
	p, ok := m.ActivePath()
	if !ok {
		fmt.Fprintln(w, "No active learning path. Create one with: learnpath path create <name>")
		return nil
	}
	fmt.Fprintf(w, "%s  %s\n", p.Name, progressText(p.OverallProgress))
	if p.Description != "" {
		fmt.Fprintln(w, p.Description)
	}
	fmt.Fprintln(w)
	if len(p.Modules) == 0 {
		fmt.Fprintln(w, "No modules yet. Browse the catalog with: learnpath module catalog")
		return nil
	}
	printModules(w, p.Modules)
	return nil
}

func progressText(pct int) string {
	const width = 20
	filled := pct * width / 100
	return fmt.Sprintf("[%s%s] %3d%%", strings.Repeat("█", filled), strings.Repeat("░", width-filled), pct)
}

// resolvePath finds a path by id or, failing that, by case-insensitive
// name.
func resolvePath(m *learning.Manager, ref string) (learning.LearningPath, error) {
	if p, ok := m.Path(ref); ok {
		return p, nil
	}
	for _, p := range m.Paths() {
		if strings.EqualFold(p.Name, ref) {
			return p, nil
		}
	}
	return learning.LearningPath{}, fmt.Errorf("path %q: %w", ref, learning.ErrPathNotFound)
}
