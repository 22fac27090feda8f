package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/learnpath/internal/app"
	"github.com/abhisek/learnpath/internal/learning"
	"github.com/abhisek/learnpath/internal/questionbank"
	"github.com/abhisek/learnpath/internal/questiongen"
)

func newQuestionCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "question",
		Short: "Manage custom and imported quiz questions",
	}
	c.AddCommand(questionAddCmd(), questionListCmd(), questionRemoveCmd(), questionImportCmd(), questionGenerateCmd())
	return c
}

func questionAddCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "add <module-id> <question text>",
		Short: "Add a custom question to a module of the active path",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			f := cmd.Flags()
			in := learning.QuestionInput{Text: args[1]}
			in.Options, _ = f.GetStringArray("option")
			in.CorrectAnswer, _ = f.GetInt("answer")
			in.CorrectAnswer--
			in.Explanation, _ = f.GetString("explanation")

			q, err := a.Manager().AddCustomQuestion(args[0], in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added question %s to %s.\n", q.ID, args[0])
			return nil
		}),
	}
	c.Flags().StringArray("option", nil, "Answer option (repeat 2 or more times)")
	c.Flags().Int("answer", 1, "Number of the correct option, starting at 1")
	c.Flags().String("explanation", "", "Shown after the quiz")
	return c
}

func questionListCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "list <module-id>",
		Short: "List the custom questions of a module",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			w := cmd.OutOrStdout()
			custom := a.Manager().CustomQuestions(args[0])
			qs := make([]questionbank.Question, 0, len(custom))
			for _, c := range custom {
				qs = append(qs, c.Question)
			}
			if bank, _ := cmd.Flags().GetBool("bank"); bank {
				mod, ok := a.Manager().FindModule(args[0])
				if !ok {
					return fmt.Errorf("module %q not found", args[0])
				}
				qs = append(qs, a.Bank().QuestionsFor(mod.Category, mod.Difficulty, mod.ID)...)
			}
			if len(qs) == 0 {
				fmt.Fprintf(w, "No questions for %s.\n", args[0])
				return nil
			}
			printQuestions(w, qs)
			return nil
		}),
	}
	c.Flags().Bool("bank", false, "Include matching question bank entries")
	return c
}

func printQuestions(w io.Writer, qs []questionbank.Question) {
	for i, q := range qs {
		fmt.Fprintf(w, "%d. %s\n", i+1, q.Text)
		if q.ID != "" {
			fmt.Fprintf(w, "   id: %s\n", q.ID)
		}
		for j, o := range q.Options {
			mark := " "
			if j == q.CorrectAnswer {
				mark = "✓"
			}
			fmt.Fprintf(w, "   %s %c) %s\n", mark, 'A'+j, o)
		}
		if q.Explanation != "" {
			fmt.Fprintf(w, "   %s\n", q.Explanation)
		}
		fmt.Fprintln(w)
	}
}

func questionRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <module-id> <question-id>",
		Short: "Delete a custom question",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			if !a.Manager().RemoveCustomQuestion(args[0], args[1]) {
				return fmt.Errorf("question %q not found for %s", args[1], args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed question %s.\n", args[1])
			return nil
		}),
	}
}

func questionImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a JSON array of questions into the shared bank",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read questions: %w", err)
			}
			qs, err := questionbank.ParseQuestions(data)
			if err != nil {
				return err
			}
			n := a.ImportQuestions(qs)
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d questions; the bank now holds %d.\n", n, len(qs), a.Bank().Len())
			return nil
		}),
	}
}

func questionGenerateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "generate <module-id>",
		Short: "Draft custom questions for a module with an LLM",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			m := a.Manager()
			mod, ok := m.FindModule(args[0])
			if !ok {
				return fmt.Errorf("module %q not found", args[0])
			}
			gen, err := a.QuestionGenerator(cmd.Context())
			if err != nil {
				return fmt.Errorf("llm not available: %w", err)
			}
			count, _ := cmd.Flags().GetInt("count")

			var prior []string
			for _, q := range m.CustomQuestions(mod.ID) {
				prior = append(prior, q.Text)
			}
			qs, err := gen.Generate(cmd.Context(), mod, count, prior)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printQuestions(w, qs)
			if save, _ := cmd.Flags().GetBool("save"); !save {
				fmt.Fprintln(w, "Run again with --save to add these to the module.")
				return nil
			}
			saved := 0
			for _, q := range qs {
				if _, err := m.AddCustomQuestion(mod.ID, questiongen.Input(q)); err != nil {
					return fmt.Errorf("save question %q: %w", strings.TrimSpace(q.Text), err)
				}
				saved++
			}
			fmt.Fprintf(w, "Saved %d questions to %s.\n", saved, mod.Title)
			return nil
		}),
	}
	c.Flags().Int("count", 5, fmt.Sprintf("How many questions (max %d)", questiongen.MaxCount))
	c.Flags().Bool("save", false, "Store the generated questions as custom questions")
	return c
}
