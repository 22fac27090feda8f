// Package certificate issues completion certificates and renders them for
// the terminal. It reads path state but never changes it; recording a
// certificate is learning.Manager.IssueCertificate's job.
package certificate

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/learnpath/internal/learning"
	"github.com/abhisek/learnpath/internal/ui/theme"
)

// VerifyURL is the base of the public verification link.
const VerifyURL = "learnpath.app/verify/"

var idPattern = regexp.MustCompile(`^CERT-[A-Z0-9]+-[A-Z0-9]+$`)

// Generate builds a certificate for module from a passing attempt. rng may
// be nil.
func Generate(module learning.Module, attempt learning.QuizAttempt, learnerName string, now time.Time, rng *rand.Rand) learning.Certificate {
	return learning.Certificate{
		ID:             fmt.Sprintf("cert-%d-%s", now.UnixMilli(), base36(rng, 9)),
		ModuleID:       module.ID,
		PathID:         attempt.PathID,
		ModuleName:     module.Title,
		LearnerName:    strings.TrimSpace(learnerName),
		CompletionDate: now,
		Score:          attempt.Score,
		CertificateID:  NewCertificateID(now, rng),
	}
}

// NewCertificateID returns a public id of the form CERT-<time>-<random>,
// both parts in upper case base 36.
func NewCertificateID(now time.Time, rng *rand.Rand) string {
	ts := strconv.FormatInt(now.UnixMilli(), 36)
	return strings.ToUpper("CERT-" + ts + "-" + base36(rng, 9))
}

// ValidID reports whether id has the shape of a certificate id.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// ShareText is the message posted when a learner shares a certificate.
func ShareText(c learning.Certificate, module learning.Module) string {
	return fmt.Sprintf("I've successfully completed the %s module with a score of %d%%! 🎉", module.Title, c.Score)
}

// ShareMessage is ShareText followed by the verification link.
func ShareMessage(c learning.Certificate, module learning.Module) string {
	return ShareText(c, module) + "\nVerify: " + VerifyURL + c.CertificateID
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Filename names an exported certificate file, e.g.
// certificate-git-basics-ada-lovelace.txt.
func Filename(c learning.Certificate, module learning.Module, ext string) string {
	title := strings.ToLower(unsafeChars.ReplaceAllString(module.Title, "-"))
	name := strings.ToLower(unsafeChars.ReplaceAllString(c.LearnerName, "-"))
	return fmt.Sprintf("certificate-%s-%s.%s", title, name, strings.TrimPrefix(ext, "."))
}

// Render draws the certificate as a bordered terminal card.
func Render(c learning.Certificate, module learning.Module) string {
	center := lipgloss.NewStyle().Width(52).Align(lipgloss.Center)
	dim := theme.Subtitle
	lines := []string{
		theme.Title.Render("Certificate of Completion"),
		lipgloss.NewStyle().Foreground(theme.Gold).Render("🏆"),
		"",
		dim.Render("This is to certify that"),
		lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(c.LearnerName),
		dim.Render("has successfully completed the module"),
		theme.Body.Bold(true).Render(module.Title),
		dim.Render(fmt.Sprintf("%s • %s", module.Category, module.Difficulty)),
		dim.Render("Duration: " + learning.FormatDuration(module.Duration)),
		"",
		theme.Correct.Render(fmt.Sprintf("Score: %d%%", c.Score)),
		dim.Render(c.CompletionDate.Format("January 2, 2006")),
	}
	if c.PathName != "" {
		lines = append(lines, dim.Render("Path: "+c.PathName))
	}
	lines = append(lines, "", theme.Hint.Render("Certificate ID: "+c.CertificateID))

	for i, l := range lines {
		lines[i] = center.Render(l)
	}
	return theme.CertificateCard.Render(strings.Join(lines, "\n"))
}

const digits36 = "0123456789abcdefghijklmnopqrstuvwxyz"

func base36(rng *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		var k int
		if rng != nil {
			k = rng.IntN(len(digits36))
		} else {
			k = rand.IntN(len(digits36))
		}
		b[i] = digits36[k]
	}
	return string(b)
}
