package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/learnpath/internal/app"
	"github.com/abhisek/learnpath/internal/learning"
)

func newModuleCmd() *cobra.Command {
	c := &cobra.Command{
		Use:     "module",
		Aliases: []string{"mod"},
		Short:   "Manage the modules of the active path",
	}
	c.AddCommand(
		moduleListCmd(),
		moduleCatalogCmd(),
		moduleAddCmd(),
		moduleRemoveCmd(),
		moduleMoveCmd(),
		moduleStatusCmd(),
		moduleProgressCmd(),
		moduleCreateCmd(),
		moduleDeleteCmd(),
		moduleClearCmd(),
	)
	return c
}

func printModules(w io.Writer, mods []learning.Module) {
	fmt.Fprintf(w, "%3s  %-34s  %-28s  %-13s  %8s  %s\n", "#", "ID", "Title", "Status", "Progress", "Duration")
	fmt.Fprintln(w, strings.Repeat("─", 104))
	for _, m := range mods {
		fmt.Fprintf(w, "%3d  %-34s  %-28s  %-13s  %7d%%  %s\n",
			m.Position+1, truncate(m.ID, 34), truncate(m.Title, 28), m.Status, m.Progress, learning.FormatDuration(m.Duration))
	}
}

func activePath(m *learning.Manager) (learning.LearningPath, error) {
	p, ok := m.ActivePath()
	if !ok {
		return p, learning.ErrNoActivePath
	}
	return p, nil
}

func moduleListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List modules in the active path",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app.App, _ []string) error {
			p, err := activePath(a.Manager())
			if err != nil {
				return err
			}
			if len(p.Modules) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "The active path has no modules.")
				return nil
			}
			printModules(cmd.OutOrStdout(), p.Modules)
			return nil
		}),
	}
}

func moduleCatalogCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "catalog",
		Short: "List modules that can be added",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app.App, _ []string) error {
			m := a.Manager()
			category, _ := cmd.Flags().GetString("category")
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "  %-34s  %-30s  %-20s  %-12s  %s\n", "ID", "Title", "Category", "Difficulty", "Duration")
			fmt.Fprintln(w, strings.Repeat("─", 112))
			for _, mod := range m.AvailableModules() {
				if category != "" && !strings.EqualFold(mod.Category, category) {
					continue
				}
				mark := " "
				if m.InLearningPath(mod.ID) {
					mark = "✓"
				}
				fmt.Fprintf(w, "%s %-34s  %-30s  %-20s  %-12s  %s\n",
					mark, truncate(mod.ID, 34), truncate(mod.Title, 30), mod.Category, mod.Difficulty, learning.FormatDuration(mod.Duration))
			}
			return nil
		}),
	}
	c.Flags().String("category", "", "Only this category")
	return c
}

func moduleAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <module-id>...",
		Short: "Add catalog or custom modules to the active path",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			m := a.Manager()
			if _, err := activePath(m); err != nil {
				return err
			}
			for _, id := range args {
				mod, ok := m.FindModule(id)
				if !ok {
					return fmt.Errorf("module %q not found", id)
				}
				if !m.AddModule(mod) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is already in the path.\n", id)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s.\n", mod.Title)
			}
			return nil
		}),
	}
}

func moduleRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <module-id>",
		Short: "Remove a module from the active path",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			if !a.Manager().RemoveModule(args[0]) {
				return fmt.Errorf("module %q is not in the active path", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s.\n", args[0])
			return nil
		}),
	}
}

func moduleMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <from> <to>",
		Short: "Move a module to another position (1-based)",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			from, err1 := strconv.Atoi(args[0])
			to, err2 := strconv.Atoi(args[1])
			if err := errors.Join(err1, err2); err != nil {
				return fmt.Errorf("positions must be numbers: %w", err)
			}
			if !a.Manager().ReorderModules(from-1, to-1) {
				return fmt.Errorf("cannot move %d to %d", from, to)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved module %d to position %d.\n", from, to)
			return nil
		}),
	}
}

func moduleStatusCmd() *cobra.Command {
	names := make([]string, len(learning.Statuses))
	for i, s := range learning.Statuses {
		names[i] = string(s)
	}
	return &cobra.Command{
		Use:       "status <module-id> <status>",
		Short:     "Set a module's status (" + strings.Join(names, ", ") + ")",
		Args:      cobra.ExactArgs(2),
		ValidArgs: names,
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			status := learning.ModuleStatus(args[1])
			if !status.Valid() {
				return fmt.Errorf("unknown status %q", args[1])
			}
			m := a.Manager()
			if !m.UpdateModuleStatus(args[0], status) {
				return fmt.Errorf("module %q is not in the active path", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s (%d%%).\n", args[0], status, m.ModuleProgress(args[0]))
			return nil
		}),
	}
}

func moduleProgressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress <module-id> <percent>",
		Short: "Set a module's progress",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			pct, err := strconv.Atoi(strings.TrimSuffix(args[1], "%"))
			if err != nil {
				return fmt.Errorf("progress must be a number: %w", err)
			}
			m := a.Manager()
			if !m.UpdateModuleProgress(args[0], pct) {
				return fmt.Errorf("module %q is not in the active path", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d%%, %s.\n", args[0], m.ModuleProgress(args[0]), m.ModuleStatus(args[0]))
			return nil
		}),
	}
}

func moduleCreateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a custom module in the active path",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			f := cmd.Flags()
			in := learning.ModuleInput{Title: args[0]}
			in.Description, _ = f.GetString("description")
			in.Duration, _ = f.GetInt("duration")
			in.Category, _ = f.GetString("category")
			diff, _ := f.GetString("difficulty")
			in.Difficulty = learning.Difficulty(diff)
			in.Icon, _ = f.GetString("icon")
			in.Topics, _ = f.GetStringSlice("topic")
			in.LearningObjectives, _ = f.GetStringSlice("objective")
			in.Prerequisites, _ = f.GetStringSlice("prerequisite")

			if v := learning.ValidateModule(in); !v.Valid {
				return fmt.Errorf("invalid module:\n  %s", strings.Join(v.Errors, "\n  "))
			}
			mod, err := a.Manager().AddCustomModule(in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s).\n", mod.Title, mod.ID)
			return nil
		}),
	}
	f := c.Flags()
	f.String("description", "", "What the module covers (at least 10 characters)")
	f.Int("duration", 30, "Estimated minutes")
	f.String("category", "", "Category, e.g. "+strings.Join(learning.Categories[:3], ", "))
	f.String("difficulty", string(learning.Beginner), "Beginner, Intermediate or Advanced")
	f.String("icon", "", "Icon (default from category)")
	f.StringSlice("topic", nil, "Topic (repeatable)")
	f.StringSlice("objective", nil, "Learning objective (repeatable)")
	f.StringSlice("prerequisite", nil, "Prerequisite module id (repeatable)")
	return c
}

func moduleDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <module-id>",
		Short: "Delete a custom module",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			m := a.Manager()
			if !m.IsCustomModule(args[0]) {
				return fmt.Errorf("%q is not a custom module of the active path", args[0])
			}
			m.RemoveCustomModule(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", args[0])
			return nil
		}),
	}
}

func moduleClearCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "clear",
		Short: "Remove every module from the active path",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app.App, _ []string) error {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return errors.New("refusing to clear the path without --yes")
			}
			if !a.Manager().ClearPath() {
				return learning.ErrNoActivePath
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cleared the active path.")
			return nil
		}),
	}
	c.Flags().Bool("yes", false, "Confirm")
	return c
}
