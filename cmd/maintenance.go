package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/learnpath/internal/migrate"
)

func newMigrateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "migrate",
		Short: "Convert data from the single-path layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			w := cmd.OutOrStdout()
			if !migrate.Detect(a.Store()) {
				fmt.Fprintln(w, "No legacy data found; nothing to migrate.")
				return nil
			}

			if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
				legacy, err := migrate.Read(a.Store())
				if err != nil {
					return fmt.Errorf("read legacy data: %w", err)
				}
				plan, err := migrate.Transform(legacy, "preview", a.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "Would create %q with %d modules, %d quiz attempts, %d certificates and %d custom questions.\n",
					plan.Path.Name, plan.Counts.Modules, plan.Counts.QuizAttempts, plan.Counts.Certificates, plan.Counts.CustomQuestions)
				return nil
			}

			res, err := a.Load(cmd.Context())
			if err != nil {
				return err
			}
			if res == nil {
				fmt.Fprintln(w, "No legacy data found; nothing to migrate.")
				return nil
			}
			printMigration(w, res)
			if !res.Success {
				return errors.New("migration failed")
			}
			return nil
		},
	}
	c.Flags().Bool("dry-run", false, "Report what would be migrated without writing")
	return c
}

func newResetCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "reset",
		Short: "Delete all learner data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return errors.New("this deletes every path, attempt and certificate; rerun with --yes")
			}
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			n := len(a.Store().Keys())
			if err := a.Store().Clear(); err != nil {
				return fmt.Errorf("reset: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d stored entries.\n", n)
			return nil
		},
	}
	c.Flags().Bool("yes", false, "Confirm")
	return c
}
