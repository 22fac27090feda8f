package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/learnpath/internal/selfupdate"
)

func newUpdateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "update",
		Short: "Update learnpath to the latest release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			checker := selfupdate.NewChecker(selfupdate.WithTimeout(2 * time.Minute))
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			if only, _ := cmd.Flags().GetBool("check"); only {
				res, err := checker.Check(ctx, &selfupdate.CheckInput{Version: version})
				if err != nil {
					return err
				}
				if res.UpdateAvailable {
					fmt.Fprintf(w, "learnpath %s is available (running %s): %s\n", res.LatestVersion, version, res.ReleaseURL)
				} else {
					fmt.Fprintf(w, "learnpath %s is up to date.\n", version)
				}
				return nil
			}

			target, _ := cmd.Flags().GetString("version")
			err := checker.Update(ctx, &selfupdate.UpdateInput{CurrentVersion: version, TargetVersion: target},
				func(p selfupdate.UpdateProgress) { fmt.Fprintln(w, p.Message) })
			switch {
			case err == nil:
				return nil
			case errors.Is(err, selfupdate.ErrDevBuild):
				fmt.Fprintln(w, "Cannot update a development build. Install a release build first.")
				return nil
			case errors.Is(err, selfupdate.ErrAlreadyLatest):
				fmt.Fprintln(w, "Already running the latest version.")
				return nil
			case errors.Is(err, os.ErrPermission):
				return fmt.Errorf("%w\n\nTry running: sudo learnpath update", err)
			}
			return err
		},
	}
	c.Flags().Bool("check", false, "Only report whether a newer release exists")
	c.Flags().String("version", "", "Install this release tag instead of the latest")
	return c
}
