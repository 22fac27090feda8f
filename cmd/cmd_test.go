package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/learnpath/internal/kvstore"
	"github.com/abhisek/learnpath/internal/learning"
)

type cli struct {
	t  *testing.T
	db string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "OPENROUTER_API_KEY", "LEARNPATH_LLM_PROVIDER"} {
		t.Setenv(k, "")
	}
	return &cli{t: t, db: filepath.Join(t.TempDir(), "learnpath.db")}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--db", c.db}, args...))
	err := root.Execute()
	return out.String(), err
}

func (c *cli) ok(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, out)
	return out
}

func TestPathAndModuleWorkflow(t *testing.T) {
	c := newCLI(t)

	out := c.ok()
	assert.Contains(t, out, learning.DefaultPathName)

	out = c.ok("path", "create", "Backend Track", "--tag", "go", "--activate")
	assert.Contains(t, out, `Created path "Backend Track"`)

	c.ok("module", "add", "html-basics", "css-basics")
	out = c.ok("module", "add", "html-basics")
	assert.Contains(t, out, "already in the path")

	c.ok("module", "status", "html-basics", "completed")
	out = c.ok("module", "progress", "css-basics", "40")
	assert.Contains(t, out, "40%")

	out = c.ok("module", "list")
	assert.Contains(t, out, "html-basics")
	assert.Contains(t, out, "completed")

	out = c.ok("path", "stats")
	assert.Contains(t, out, "1/2 completed")

	c.ok("module", "move", "2", "1")
	out = c.ok("module", "list")
	assert.Less(t, strings.Index(out, "css-basics"), strings.Index(out, "html-basics"))

	out = c.ok("path", "search", "backend")
	assert.Contains(t, out, "Backend Track")
	assert.NotContains(t, out, learning.DefaultPathName)

	out = c.ok("path", "list")
	assert.Contains(t, out, "* ")

	_, err := c.run("module", "status", "html-basics", "finished")
	assert.ErrorContains(t, err, "unknown status")
	_, err = c.run("module", "clear")
	assert.ErrorContains(t, err, "--yes")
}

func TestPathExportImportArchive(t *testing.T) {
	c := newCLI(t)
	c.ok("module", "add", "javascript-basics")

	file := filepath.Join(t.TempDir(), "path.json")
	c.ok("path", "export", learning.DefaultPathName, "-o", file)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version": "1.0"`)

	out := c.ok("path", "import", file)
	assert.Contains(t, out, "(Imported)")
	assert.Contains(t, out, "with 1 modules")

	c.ok("path", "archive", learning.DefaultPathName+" (Imported)")
	out = c.ok("path", "list")
	assert.NotContains(t, out, "(Imported)")
	out = c.ok("path", "list", "--archived")
	assert.Contains(t, out, "(Imported)")

	out = c.ok("path", "summary")
	assert.Contains(t, out, "Paths:            2 (1 active, 1 archived)")

	_, err = c.run("path", "switch", "no-such-path")
	assert.ErrorIs(t, err, learning.ErrPathNotFound)
}

func TestCustomModulesAndQuestions(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("module", "create", "Go", "--description", "short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Title must be at least 3 characters long")

	out := c.ok("module", "create", "Go Concurrency", "--description", "Goroutines, channels and select",
		"--category", "Backend Development", "--duration", "45", "--topic", "channels")
	assert.Contains(t, out, "Created Go Concurrency")

	id := customModuleID(t, c)
	out = c.ok("question", "add", id, "Which keyword starts a goroutine?",
		"--option", "go", "--option", "defer", "--option", "func", "--answer", "1")
	assert.Contains(t, out, "Added question")

	out = c.ok("question", "list", id)
	assert.Contains(t, out, "✓ A) go")
	qid := strings.TrimSpace(strings.SplitN(strings.SplitN(out, "id: ", 2)[1], "\n", 2)[0])
	assert.True(t, strings.HasPrefix(qid, "custom-q-"), qid)

	_, err = c.run("question", "add", id, "Bad", "--option", "only")
	assert.ErrorIs(t, err, learning.ErrInvalidQuestion)

	out = c.ok("module", "catalog")
	assert.Contains(t, out, id)

	c.ok("question", "remove", id, qid)
	out = c.ok("question", "list", id)
	assert.Contains(t, out, "No questions")

	c.ok("module", "delete", id)
	out = c.ok("module", "list")
	assert.NotContains(t, out, id)
}

func customModuleID(t *testing.T, c *cli) string {
	t.Helper()
	for _, line := range strings.Split(c.ok("module", "list"), "\n") {
		if f := strings.Fields(line); len(f) > 1 && strings.HasPrefix(f[1], "go-concurrency-") {
			return f[1]
		}
	}
	t.Fatal("custom module not listed")
	return ""
}

func TestQuestionImport(t *testing.T) {
	c := newCLI(t)
	file := filepath.Join(t.TempDir(), "qs.json")
	require.NoError(t, os.WriteFile(file, []byte(`[{
		"id": "imp-1", "text": "What does HTTP 404 mean?", "category": "Web Development",
		"difficulty": "Beginner", "options": ["Not Found", "OK", "Moved", "Teapot"], "correctAnswer": 0
	}]`), 0o644))

	out := c.ok("question", "import", file)
	assert.Contains(t, out, "Imported 1 of 1 questions")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"text": ""}]`), 0o644))
	_, err := c.run("question", "import", bad)
	assert.Error(t, err)
}

func TestQuizAndCertificateCommands(t *testing.T) {
	c := newCLI(t)
	c.ok("module", "add", "html-basics")

	out := c.ok("quiz", "stats", "html-basics")
	assert.Contains(t, out, "No quiz attempts")
	out = c.ok("quiz", "cooldown", "html-basics")
	assert.Contains(t, out, "can be attempted now")

	_, err := c.run("cert", "issue", "html-basics", "--name", "Ada")
	assert.ErrorContains(t, err, "no passing quiz")

	out = c.ok("cert", "list")
	assert.Contains(t, out, "No certificates yet")

	_, err = c.run("cert", "verify", "not-an-id")
	assert.ErrorContains(t, err, "not a certificate id")
	_, err = c.run("cert", "verify", "CERT-ABC-123")
	assert.ErrorContains(t, err, "not found")
}

func TestMigrateCommand(t *testing.T) {
	c := newCLI(t)

	db, err := kvstore.OpenSQLite(c.db)
	require.NoError(t, err)
	kv := kvstore.New(db, nil)
	require.NoError(t, kv.Set(kvstore.KeyLegacyLearningPath, map[string]any{
		"name": "My Path",
		"modules": []map[string]any{
			{"id": "html-basics", "title": "HTML Basics", "duration": 60, "progress": 100},
		},
		"completedModules": []string{"html-basics"},
	}))
	require.NoError(t, kv.Close())

	out := c.ok("migrate", "--dry-run")
	assert.Contains(t, out, "1 modules")

	out = c.ok("migrate")
	assert.Contains(t, out, "Migrated legacy data")
	assert.Contains(t, out, "legacy-backup-")

	out = c.ok("migrate")
	assert.Contains(t, out, "nothing to migrate")

	out = c.ok("module", "list")
	assert.Contains(t, out, "html-basics")
}

func TestResetAndVersion(t *testing.T) {
	c := newCLI(t)
	c.ok("path", "create", "Scratch")

	_, err := c.run("reset")
	assert.ErrorContains(t, err, "--yes")

	out := c.ok("reset", "--yes")
	assert.Contains(t, out, "Removed")

	out = c.ok("path", "list")
	assert.NotContains(t, out, "Scratch")

	assert.Equal(t, "learnpath (devel)\n", c.ok("version"))
}
