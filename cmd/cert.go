package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/learnpath/internal/app"
	"github.com/abhisek/learnpath/internal/certificate"
	"github.com/abhisek/learnpath/internal/learning"
)

func newCertCmd() *cobra.Command {
	c := &cobra.Command{
		Use:     "cert",
		Aliases: []string{"certificate"},
		Short:   "Issue and view completion certificates",
	}
	c.AddCommand(certListCmd(), certIssueCmd(), certShowCmd(), certVerifyCmd())
	return c
}

func certListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List certificates of the active path",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app.App, _ []string) error {
			certs := a.Manager().Certificates()
			w := cmd.OutOrStdout()
			if len(certs) == 0 {
				fmt.Fprintln(w, "No certificates yet. Pass a module quiz to earn one.")
				return nil
			}
			fmt.Fprintf(w, "%-26s  %-30s  %-20s  %5s  %s\n", "Certificate", "Module", "Learner", "Score", "Date")
			fmt.Fprintln(w, strings.Repeat("─", 100))
			for _, c := range certs {
				fmt.Fprintf(w, "%-26s  %-30s  %-20s  %4d%%  %s\n", c.CertificateID, truncate(c.ModuleName, 30),
					truncate(c.LearnerName, 20), c.Score, c.CompletionDate.Local().Format("2006-01-02"))
			}
			return nil
		}),
	}
}

func certIssueCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "issue <module-id>",
		Short: "Issue a certificate from the latest passing quiz",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			m := a.Manager()
			mod, ok := m.FindModule(args[0])
			if !ok || !m.InLearningPath(args[0]) {
				return fmt.Errorf("module %q is not in the active path", args[0])
			}
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				name = a.Config().Learner.Name
			}
			if strings.TrimSpace(name) == "" {
				return errors.New("a learner name is required: pass --name or set learner.name")
			}

			var passed *learning.QuizAttempt
			for _, at := range m.QuizAttempts(mod.ID) {
				if at.Passed {
					passed = &at
				}
			}
			if passed == nil {
				return fmt.Errorf("no passing quiz for %s yet", mod.Title)
			}

			cert, ok := m.IssueCertificate(certificate.Generate(mod, *passed, name, a.Now(), nil))
			if !ok {
				return errors.New("certificate could not be stored")
			}
			fmt.Fprintln(cmd.OutOrStdout(), certificate.Render(cert, mod))
			return nil
		}),
	}
	c.Flags().String("name", "", "Learner name (default learner.name from config)")
	return c
}

func certShowCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "show <module-id>",
		Short: "Render a module's certificate",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			m := a.Manager()
			cert, ok := m.Certificate(args[0])
			if !ok {
				return fmt.Errorf("no certificate for %q", args[0])
			}
			mod, _ := m.FindModule(args[0])
			if mod.Title == "" {
				mod.Title = cert.ModuleName
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, certificate.Render(cert, mod))
			fmt.Fprintln(w, certificate.ShareMessage(cert, mod))

			if save, _ := cmd.Flags().GetBool("save"); save {
				file := certificate.Filename(cert, mod, "txt")
				body := certificate.ShareMessage(cert, mod) + "\n\n" + certificate.Render(cert, mod) + "\n"
				if err := os.WriteFile(file, []byte(body), 0o644); err != nil {
					return fmt.Errorf("save certificate: %w", err)
				}
				fmt.Fprintf(w, "Saved to %s.\n", file)
			}
			return nil
		}),
	}
	c.Flags().Bool("save", false, "Also write the certificate to a text file")
	return c
}

func certVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <certificate-id>",
		Short: "Look up a certificate id in every path",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			id := strings.ToUpper(strings.TrimSpace(args[0]))
			if !certificate.ValidID(id) {
				return fmt.Errorf("%q is not a certificate id", args[0])
			}
			for _, p := range a.Manager().Paths() {
				for _, c := range a.Manager().PathCertificates(p.ID) {
					if c.CertificateID == id {
						fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s completed %s (%d%%) on %s in %q.\n",
							c.LearnerName, c.ModuleName, c.Score, c.CompletionDate.Local().Format("2006-01-02"), p.Name)
						return nil
					}
				}
			}
			return fmt.Errorf("certificate %s not found", id)
		}),
	}
}
