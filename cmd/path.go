package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/learnpath/internal/app"
	"github.com/abhisek/learnpath/internal/learning"
)

func newPathCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "path",
		Short: "Manage learning paths",
	}
	c.AddCommand(
		pathListCmd(),
		pathCreateCmd(),
		pathSwitchCmd(),
		pathDeleteCmd(),
		pathArchiveCmd("archive", true),
		pathArchiveCmd("unarchive", false),
		pathUpdateCmd(),
		pathStatsCmd(),
		pathExportCmd(),
		pathImportCmd(),
		pathDuplicateCmd(),
		pathSearchCmd(),
		pathSummaryCmd(),
	)
	return c
}

func pathListCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "list",
		Short: "List learning paths",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app.App, _ []string) error {
			m := a.Manager()
			all, _ := cmd.Flags().GetBool("all")
			archived, _ := cmd.Flags().GetBool("archived")
			sortBy, _ := cmd.Flags().GetString("sort")

			paths := m.ActivePaths()
			switch {
			case archived:
				paths = m.ArchivedPaths()
			case all || m.Settings().ShowArchived:
				paths = m.Paths()
			}
			if sortBy != "" {
				paths = learning.SortPaths(paths, learning.SortBy(sortBy))
			}
			printPaths(cmd.OutOrStdout(), paths, m.ActivePathID())
			return nil
		}),
	}
	c.Flags().Bool("all", false, "Include archived paths")
	c.Flags().Bool("archived", false, "Only archived paths")
	c.Flags().String("sort", "", "Sort by name, created, updated, progress or modules")
	return c
}

func printPaths(w io.Writer, paths []learning.LearningPath, activeID string) {
	if len(paths) == 0 {
		fmt.Fprintln(w, "No learning paths found.")
		return
	}
	fmt.Fprintf(w, "  %-28s  %-30s  %7s  %8s  %s\n", "ID", "Name", "Modules", "Progress", "Tags")
	fmt.Fprintln(w, strings.Repeat("─", 96))
	for _, p := range paths {
		mark := " "
		if p.ID == activeID {
			mark = "*"
		}
		name := p.Name
		if p.IsArchived {
			name += " (archived)"
		}
		fmt.Fprintf(w, "%s %-28s  %-30s  %7d  %7d%%  %s\n",
			mark, p.ID, truncate(name, 30), len(p.Modules), p.OverallProgress, strings.Join(p.Tags, ", "))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func pathCreateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a learning path",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			m := a.Manager()
			in := learning.CreatePathInput{Name: args[0]}
			in.Description, _ = cmd.Flags().GetString("description")
			in.Color, _ = cmd.Flags().GetString("color")
			in.Tags, _ = cmd.Flags().GetStringSlice("tag")
			if from, _ := cmd.Flags().GetString("copy-from"); from != "" {
				src, err := resolvePath(m, from)
				if err != nil {
					return err
				}
				in.CopyFromPathID = src.ID
			}
			p := m.CreatePath(in)
			if activate, _ := cmd.Flags().GetBool("activate"); activate {
				m.SwitchActive(p.ID)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created path %q (%s) with %d modules.\n", p.Name, p.ID, len(p.Modules))
			return nil
		}),
	}
	c.Flags().String("description", "", "Path description")
	c.Flags().String("color", "", "Display color, e.g. #10b981")
	c.Flags().StringSlice("tag", nil, "Tag (repeatable)")
	c.Flags().String("copy-from", "", "Copy modules from this path")
	c.Flags().Bool("activate", false, "Make the new path active")
	return c
}

func pathSwitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch <path>",
		Short: "Make a path the active one",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			p, err := resolvePath(a.Manager(), args[0])
			if err != nil {
				return err
			}
			a.Manager().SwitchActive(p.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Switched to %q.\n", p.Name)
			return nil
		}),
	}
}

func pathDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <path>",
		Short: "Delete a path and everything recorded for it",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			p, err := resolvePath(a.Manager(), args[0])
			if err != nil {
				return err
			}
			if !a.Manager().DeletePath(p.ID) {
				return fmt.Errorf("cannot delete %q: it is the only path", p.Name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q.\n", p.Name)
			return nil
		}),
	}
}

func pathArchiveCmd(use string, archived bool) *cobra.Command {
	short := "Archive a path"
	if !archived {
		short = "Restore an archived path"
	}
	return &cobra.Command{
		Use:   use + " <path>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			p, err := resolvePath(a.Manager(), args[0])
			if err != nil {
				return err
			}
			a.Manager().ArchivePath(p.ID, archived)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %q.\n", map[bool]string{true: "Archived", false: "Unarchived"}[archived], p.Name)
			return nil
		}),
	}
}

func pathUpdateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "update <path>",
		Short: "Change a path's name, description, color or tags",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			p, err := resolvePath(a.Manager(), args[0])
			if err != nil {
				return err
			}
			var u learning.PathUpdate
			f := cmd.Flags()
			if f.Changed("name") {
				v, _ := f.GetString("name")
				u.Name = &v
			}
			if f.Changed("description") {
				v, _ := f.GetString("description")
				u.Description = &v
			}
			if f.Changed("color") {
				v, _ := f.GetString("color")
				u.Color = &v
			}
			if f.Changed("tag") {
				u.Tags, _ = f.GetStringSlice("tag")
				if u.Tags == nil {
					u.Tags = []string{}
				}
			}
			a.Manager().UpdatePath(p.ID, u)
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s.\n", p.ID)
			return nil
		}),
	}
	c.Flags().String("name", "", "New name")
	c.Flags().String("description", "", "New description")
	c.Flags().String("color", "", "New color")
	c.Flags().StringSlice("tag", nil, "Replace tags (repeatable)")
	return c
}

func pathStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [path]",
		Short: "Show statistics for a path (default: the active one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			m := a.Manager()
			id := m.ActivePathID()
			if len(args) == 1 {
				p, err := resolvePath(m, args[0])
				if err != nil {
					return err
				}
				id = p.ID
			}
			s := m.Statistics(id)
			if s == nil {
				return learning.ErrNoActivePath
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Modules:        %d/%d completed\n", s.CompletedModules, s.TotalModules)
			fmt.Fprintf(w, "Progress:       %s\n", progressText(s.OverallProgress))
			fmt.Fprintf(w, "Total duration: %s\n", learning.FormatDuration(s.TotalDuration))
			fmt.Fprintf(w, "Quiz attempts:  %d (average %d%%)\n", s.QuizAttempts, s.AverageScore)
			fmt.Fprintf(w, "Certificates:   %d\n", s.Certificates)
			if !s.LastActivity.IsZero() {
				fmt.Fprintf(w, "Last activity:  %s\n", s.LastActivity.Local().Format("2006-01-02 15:04"))
			}
			return nil
		}),
	}
}

func pathExportCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "export <path>",
		Short: "Write a path as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			p, err := resolvePath(a.Manager(), args[0])
			if err != nil {
				return err
			}
			data, err := a.Manager().ExportPath(p.ID)
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("output")
			if out == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %q to %s.\n", p.Name, out)
			return nil
		}),
	}
	c.Flags().StringP("output", "o", "", "Write to file instead of stdout")
	return c
}

func pathImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Create a path from an exported JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read import: %w", err)
			}
			p, err := a.Manager().ImportPath(data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %q (%s) with %d modules.\n", p.Name, p.ID, len(p.Modules))
			return nil
		}),
	}
}

func pathDuplicateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <path>",
		Short: "Copy a path with its modules",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			src, err := resolvePath(a.Manager(), args[0])
			if err != nil {
				return err
			}
			p, _ := a.Manager().DuplicatePath(src.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Created %q (%s).\n", p.Name, p.ID)
			return nil
		}),
	}
}

func pathSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find paths by name, description or tag",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			printPaths(cmd.OutOrStdout(), a.Manager().Search(args[0]), a.Manager().ActivePathID())
			return nil
		}),
	}
}

func pathSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show totals across all paths",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app.App, _ []string) error {
			s := a.Manager().Summary()
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Paths:            %d (%d active, %d archived)\n", s.TotalPaths, s.ActivePaths, s.ArchivedPaths)
			fmt.Fprintf(w, "Modules:          %d/%d completed\n", s.TotalCompletedModules, s.TotalModules)
			fmt.Fprintf(w, "Average progress: %d%%\n", s.AverageProgress)
			fmt.Fprintf(w, "Completion rate:  %d%%\n", s.CompletionRate)
			return nil
		}),
	}
}
