// Package quiz drives a single quiz attempt: question selection, answer
// capture, timing, scoring and the attempt cooldown policy.
//
// A Session is Idle until Start succeeds, then InProgress until Submit or
// Cancel returns it to Idle. While InProgress an internal ticker advances
// the elapsed time once per tick; every exit from InProgress stops it.
package quiz

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/learnpath/internal/learning"
	"github.com/abhisek/learnpath/internal/questionbank"
)

// Quiz policy.
const (
	QuestionsPerQuiz = 5
	PassingScore     = 100
	CooldownAttempts = 3
	Cooldown         = 5 * time.Minute
)

// State is the lifecycle state of a Session.
type State int

const (
	StateIdle State = iota
	StateInProgress
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInProgress:
		return "in-progress"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	ErrNotIdle       = errors.New("quiz already in progress")
	ErrNotInProgress = errors.New("no quiz in progress")
	ErrNoQuestions   = errors.New("no questions available")
)

// CooldownError is returned by Start while a module is cooling down after
// repeated failures.
type CooldownError struct {
	ModuleID  string
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("quiz for %s is cooling down, try again in %s", e.ModuleID, FormatTime(int(math.Ceil(e.Remaining.Seconds()))))
}

// AttemptHistory is the attempt store a Session reads and appends to.
// learning.Manager implements it.
type AttemptHistory interface {
	QuizAttempts(moduleID string) []learning.QuizAttempt
	RecordQuizAttempt(moduleID string, a learning.QuizAttempt) (learning.QuizAttempt, error)
	CustomQuestions(moduleID string) []learning.CustomQuestion
}

// Option configures a Session.
type Option func(*Session)

// WithClock sets the time source used for timestamps and cooldowns.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithRand sets the random source used to sample questions.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) { s.rng = r }
}

// WithTickInterval sets the interval of the internal ticker. Zero disables
// it; the caller then drives the timer with Tick.
func WithTickInterval(d time.Duration) Option {
	return func(s *Session) { s.interval = d }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Session) { s.log = log }
}

// Session runs one quiz at a time. It is safe for concurrent use.
type Session struct {
	bank     *questionbank.Bank
	history  AttemptHistory
	now      func() time.Time
	rng      *rand.Rand
	interval time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	state   State
	module  learning.Module
	attempt learning.QuizAttempt
	answers []int
	cursor  int
	elapsed int
	stop    chan struct{}
	done    chan struct{}
}

// NewSession returns an idle Session drawing questions from bank and
// recording attempts in history.
func NewSession(bank *questionbank.Bank, history AttemptHistory, opts ...Option) *Session {
	s := &Session{
		bank:     bank,
		history:  history,
		now:      time.Now,
		interval: time.Second,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(uint64(s.now().UnixNano()), rand.Uint64()))
	}
	s.log = s.log.Named("quiz")
	return s
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Module returns the module being quizzed, if any.
func (s *Session) Module() (learning.Module, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.module, s.state == StateInProgress
}

// Start selects questions for module and begins a quiz. It fails with
// ErrNoQuestions when nothing matches, leaving the session Idle.
func (s *Session) Start(module learning.Module) (*learning.QuizAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return nil, ErrNotIdle
	}
	if left := s.remainingCooldown(module.ID); left > 0 {
		return nil, &CooldownError{ModuleID: module.ID, Remaining: left}
	}

	questions := s.selectQuestions(module)
	if len(questions) == 0 {
		s.log.Info("no questions available",
			zap.String("module", module.ID),
			zap.String("category", module.Category),
			zap.String("difficulty", string(module.Difficulty)))
		return nil, ErrNoQuestions
	}

	now := s.now()
	s.module = module
	s.attempt = learning.QuizAttempt{
		ID:          fmt.Sprintf("quiz-%d-%s", now.UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:9]),
		ModuleID:    module.ID,
		Questions:   questions,
		UserAnswers: []int{},
		Timestamp:   now,
	}
	s.answers = make([]int, len(questions))
	for i := range s.answers {
		s.answers[i] = questionbank.Unanswered
	}
	s.cursor = 0
	s.elapsed = 0
	s.state = StateInProgress
	s.startTicker()

	s.log.Debug("quiz started", zap.String("module", module.ID), zap.Int("questions", len(questions)))
	a := s.attempt
	a.Questions = slices.Clone(questions)
	return &a, nil
}

// selectQuestions pools the module's custom questions with the matching
// bank questions and samples up to QuestionsPerQuiz of them.
func (s *Session) selectQuestions(module learning.Module) []questionbank.Question {
	var pool []questionbank.Question
	if s.history != nil {
		for _, cq := range s.history.CustomQuestions(module.ID) {
			pool = append(pool, cq.Question)
		}
	}
	if s.bank != nil {
		pool = append(pool, s.bank.QuestionsFor(module.Category, module.Difficulty, module.ID)...)
	}
	return questionbank.Sample(s.rng, pool, QuestionsPerQuiz)
}

// Answer records choice for the question at index. Out of range indexes
// and choices are ignored. Unanswered clears a choice.
func (s *Session) Answer(index, choice int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answer(index, choice)
}

// AnswerCurrent records choice for the question under the cursor.
func (s *Session) AnswerCurrent(choice int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answer(s.cursor, choice)
}

func (s *Session) answer(index, choice int) bool {
	if s.state != StateInProgress || index < 0 || index >= len(s.answers) {
		return false
	}
	q := s.attempt.Questions[index]
	if choice != questionbank.Unanswered && (choice < 0 || choice >= len(q.Options)) {
		return false
	}
	s.answers[index] = choice
	return true
}

// Answers returns a copy of the recorded answers.
func (s *Session) Answers() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.answers)
}

// Next moves the cursor forward. It reports false at the last question.
func (s *Session) Next() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress || s.cursor >= len(s.answers)-1 {
		return false
	}
	s.cursor++
	return true
}

// Previous moves the cursor back. It reports false at the first question.
func (s *Session) Previous() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress || s.cursor == 0 {
		return false
	}
	s.cursor--
	return true
}

// Cursor returns the index of the current question.
func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Current returns the question under the cursor.
func (s *Session) Current() (questionbank.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress || s.cursor >= len(s.attempt.Questions) {
		return questionbank.Question{}, false
	}
	return s.attempt.Questions[s.cursor], true
}

// Progress returns the 1-based position of the cursor, the question count
// and the rounded percentage of the way through.
func (s *Session) Progress() (current, total, percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress || len(s.answers) == 0 {
		return 0, 0, 0
	}
	current, total = s.cursor+1, len(s.answers)
	return current, total, int(math.Round(float64(current) / float64(total) * 100))
}

// Answered returns how many questions have a recorded choice.
func (s *Session) Answered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.answers {
		if a != questionbank.Unanswered {
			n++
		}
	}
	return n
}

// Elapsed returns the time counted by the quiz timer.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(s.elapsed) * time.Second
}

// Tick advances the quiz timer by one second. It does nothing when no
// quiz is in progress.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateInProgress {
		s.elapsed++
	}
}

// Submit scores the quiz, records the attempt and returns to Idle.
// The returned attempt is valid even when recording it failed.
func (s *Session) Submit() (*learning.QuizAttempt, error) {
	s.mu.Lock()
	if s.state != StateInProgress {
		s.mu.Unlock()
		return nil, ErrNotInProgress
	}
	s.stopTicker()

	a := s.attempt
	a.UserAnswers = slices.Clone(s.answers)
	a.Score = questionbank.Score(a.Questions, a.UserAnswers)
	a.Passed = a.Score >= PassingScore
	a.TimeSpent = s.elapsed
	a.Timestamp = s.now()
	s.reset()
	s.mu.Unlock()

	s.log.Info("quiz submitted",
		zap.String("module", a.ModuleID),
		zap.Int("score", a.Score),
		zap.Bool("passed", a.Passed),
		zap.Int("time_spent", a.TimeSpent))

	if s.history == nil {
		return &a, nil
	}
	recorded, err := s.history.RecordQuizAttempt(a.ModuleID, a)
	if err != nil {
		return &a, fmt.Errorf("record quiz attempt: %w", err)
	}
	return &recorded, nil
}

// Cancel discards the quiz in progress without recording an attempt.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return false
	}
	s.stopTicker()
	s.reset()
	s.log.Debug("quiz cancelled")
	return true
}

// Close stops the timer and discards any quiz in progress.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTicker()
	s.reset()
}

func (s *Session) reset() {
	s.state = StateIdle
	s.module = learning.Module{}
	s.attempt = learning.QuizAttempt{}
	s.answers = nil
	s.cursor = 0
	s.elapsed = 0
}

// CanAttempt reports whether a quiz for moduleID may start now.
func (s *Session) CanAttempt(moduleID string) bool {
	return s.RemainingCooldown(moduleID) == 0
}

// RemainingCooldown returns how long moduleID stays blocked, or zero.
func (s *Session) RemainingCooldown(moduleID string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remainingCooldown(moduleID)
}

func (s *Session) remainingCooldown(moduleID string) time.Duration {
	if s.history == nil {
		return 0
	}
	return CooldownRemaining(s.history.QuizAttempts(moduleID), s.now())
}

// CooldownRemaining applies the cooldown policy to attempts, oldest first:
// when the last CooldownAttempts attempts all failed, new attempts are
// blocked until Cooldown has passed since the latest of them.
func CooldownRemaining(attempts []learning.QuizAttempt, now time.Time) time.Duration {
	if len(attempts) < CooldownAttempts {
		return 0
	}
	var latest time.Time
	for _, a := range attempts[len(attempts)-CooldownAttempts:] {
		if a.Passed {
			return 0
		}
		if a.Timestamp.After(latest) {
			latest = a.Timestamp
		}
	}
	return max(0, latest.Add(Cooldown).Sub(now))
}

// FormatTime renders seconds as MM:SS.
func FormatTime(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// startTicker must be called with mu held.
func (s *Session) startTicker() {
	s.stopTicker()
	if s.interval <= 0 {
		return
	}
	stop, done := make(chan struct{}), make(chan struct{})
	s.stop, s.done = stop, done
	go func() {
		defer close(done)
		t := time.NewTicker(s.interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				s.tick(stop)
			case <-stop:
				return
			}
		}
	}()
}

// tick advances the timer only while stop belongs to the running ticker,
// so a late tick never lands on a later quiz.
func (s *Session) tick(stop chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == stop && s.state == StateInProgress {
		s.elapsed++
	}
}

// stopTicker must be called with mu held. It does not wait for the
// goroutine, which may be blocked on mu inside Tick.
func (s *Session) stopTicker() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.stop = nil
}

// Wait blocks until the ticker goroutine of the last quiz has exited.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}
