// Package app wires storage, the path manager, the question bank and the
// quiz screen together. Lifecycle is explicit: Open, Load, then Close.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/abhisek/learnpath/internal/config"
	"github.com/abhisek/learnpath/internal/kvstore"
	"github.com/abhisek/learnpath/internal/learning"
	"github.com/abhisek/learnpath/internal/llm"
	"github.com/abhisek/learnpath/internal/migrate"
	"github.com/abhisek/learnpath/internal/questionbank"
	"github.com/abhisek/learnpath/internal/questiongen"
	"github.com/abhisek/learnpath/internal/quiz"
	quizscreen "github.com/abhisek/learnpath/internal/screens/quiz"
)

// ErrNotLoaded is returned by operations that need Load to have run.
var ErrNotLoaded = errors.New("app not loaded")

// Options configures Open.
type Options struct {
	Config *config.Config
	Log    *zap.Logger
	// Backend overrides the SQLite database named by Config.
	Backend kvstore.Backend
	Now     func() time.Time
}

// App is the running application.
type App struct {
	cfg  *config.Config
	log  *zap.Logger
	now  func() time.Time
	kv   *kvstore.Store
	mgr  *learning.Manager
	bank *questionbank.Bank

	loaded bool
}

// Open connects storage. Call Load before using the manager.
func Open(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Load("", nil); err != nil {
			return nil, err
		}
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	backend := opts.Backend
	if backend == nil {
		path, err := cfg.DBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve DB path: %w", err)
		}
		db, err := kvstore.OpenSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		log.Debug("opened database", zap.String("path", path))
		backend = db
	}

	kv := kvstore.New(backend, log)
	return &App{
		cfg:  cfg,
		log:  log,
		now:  now,
		kv:   kv,
		bank: questionbank.Default(),
		mgr: learning.NewManager(kv,
			learning.WithClock(now),
			learning.WithLogger(log),
			learning.WithSettings(cfg.Settings()),
		),
	}, nil
}

// Load migrates legacy data when present and hydrates the manager. The
// migration result is nil when nothing needed migrating. A failed
// migration leaves the legacy data in place and is not fatal.
func (a *App) Load(ctx context.Context) (*migrate.Result, error) {
	var res *migrate.Result
	if migrate.Detect(a.kv) {
		r := migrate.Run(ctx, a.kv, migrate.Options{Now: a.now, Log: a.log})
		res = &r
		if !r.Success {
			a.log.Error("legacy migration failed", zap.Strings("errors", r.Errors))
		}
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	a.mgr.Load()
	a.refreshBank()
	a.loaded = true
	return res, nil
}

// refreshBank folds the learner's imported questions into the bank.
func (a *App) refreshBank() {
	a.bank = questionbank.Default().WithImported(a.mgr.ImportedQuestions())
}

// Manager returns the path manager.
func (a *App) Manager() *learning.Manager { return a.mgr }

// Store returns the key-value store.
func (a *App) Store() *kvstore.Store { return a.kv }

// Config returns the configuration the app was opened with.
func (a *App) Config() *config.Config { return a.cfg }

// Bank returns the question bank including imported questions.
func (a *App) Bank() *questionbank.Bank { return a.bank }

// ImportQuestions stores qs as global imported questions and makes them
// available to new quizzes.
func (a *App) ImportQuestions(qs []questionbank.Question) int {
	n := a.mgr.ImportQuestions(qs)
	a.refreshBank()
	return n
}

// NewQuizSession returns an idle quiz session over the bank and the
// manager's history.
func (a *App) NewQuizSession(opts ...quiz.Option) *quiz.Session {
	base := []quiz.Option{quiz.WithClock(a.now), quiz.WithLogger(a.log)}
	return quiz.NewSession(a.bank, a.mgr, append(base, opts...)...)
}

// QuestionGenerator builds a generator from the llm configuration.
func (a *App) QuestionGenerator(ctx context.Context) (*questiongen.Generator, error) {
	lc := a.cfg.LLMConfig()
	p, err := llm.New(ctx, lc, a.log)
	if err != nil {
		return nil, err
	}
	gc := questiongen.DefaultConfig()
	if lc.Timeout > 0 {
		gc.Timeout = lc.Timeout
	}
	return questiongen.New(p, gc, a.log), nil
}

// RunQuiz runs the interactive quiz screen for moduleID of the active
// path and returns the submitted attempt, if any.
func (a *App) RunQuiz(ctx context.Context, moduleID string) (*learning.QuizAttempt, error) {
	if !a.loaded {
		return nil, ErrNotLoaded
	}
	mod, ok := a.mgr.FindModule(moduleID)
	if !ok {
		return nil, fmt.Errorf("module %q not found", moduleID)
	}
	s := a.NewQuizSession(quiz.WithTickInterval(0))
	defer s.Close()

	screen := quizscreen.New(s, mod, a.mgr, quizscreen.Options{LearnerName: a.cfg.Learner.Name, Now: a.now})
	if _, err := tea.NewProgram(screen, tea.WithContext(ctx)).Run(); err != nil {
		return nil, fmt.Errorf("run quiz: %w", err)
	}
	return screen.Attempt(), nil
}

// Now returns the current time from the app's clock.
func (a *App) Now() time.Time { return a.now() }

// Close saves changes still held by the manager and closes storage.
func (a *App) Close() error {
	if err := a.mgr.Flush(); err != nil {
		a.log.Warn("closing with unsaved changes", zap.Error(err))
	}
	return a.kv.Close()
}
