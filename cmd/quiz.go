package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/learnpath/internal/app"
	"github.com/abhisek/learnpath/internal/quiz"
)

func newQuizCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "quiz",
		Short: "Take module quizzes and review results",
	}
	c.AddCommand(quizTakeCmd(), quizStatsCmd(), quizCooldownCmd())
	return c
}

func quizTakeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "take <module-id>",
		Short: "Take the quiz for a module interactively",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			attempt, err := a.RunQuiz(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if attempt == nil {
				fmt.Fprintln(w, "Quiz not submitted.")
				return nil
			}
			verdict := "failed"
			if attempt.Passed {
				verdict = "passed"
			}
			fmt.Fprintf(w, "Quiz %s with %d%% in %s.\n", verdict, attempt.Score, quiz.FormatTime(attempt.TimeSpent))
			return nil
		}),
	}
}

func quizStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <module-id>",
		Short: "Show quiz statistics for a module",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			m := a.Manager()
			s := m.QuizStatistics(args[0])
			w := cmd.OutOrStdout()
			if s.TotalAttempts == 0 {
				fmt.Fprintf(w, "No quiz attempts for %s yet.\n", args[0])
				return nil
			}
			fmt.Fprintf(w, "Attempts:     %d (%d passed, %d failed)\n", s.TotalAttempts, s.PassedAttempts, s.FailedAttempts)
			fmt.Fprintf(w, "Best score:   %d%%\n", s.BestScore)
			fmt.Fprintf(w, "Average:      %d%%\n", s.AverageScore)
			fmt.Fprintf(w, "Pass rate:    %d%%\n", s.PassRate)
			fmt.Fprintf(w, "Average time: %s\n", quiz.FormatTime(s.AverageTimeSpent))
			fmt.Fprintln(w)
			for i, at := range m.QuizAttempts(args[0]) {
				mark := "✗"
				if at.Passed {
					mark = "✓"
				}
				fmt.Fprintf(w, "%3d. %s %3d%%  %s  %s\n", i+1, mark, at.Score,
					quiz.FormatTime(at.TimeSpent), at.Timestamp.Local().Format("2006-01-02 15:04"))
			}
			return nil
		}),
	}
}

func quizCooldownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cooldown <module-id>",
		Short: "Show whether a module's quiz can be retaken",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			s := a.NewQuizSession(quiz.WithTickInterval(0))
			defer s.Close()
			left := s.RemainingCooldown(args[0])
			if left <= 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s can be attempted now.\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Too many failed attempts. Try again in %s.\n",
				quiz.FormatTime(int(left.Round(time.Second)/time.Second)))
			return nil
		}),
	}
}
