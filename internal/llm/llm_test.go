package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond, Multiplier: 2}
}

var ok = MockReply{Content: json.RawMessage(`{"answer":"yes"}`)}

func TestRetry(t *testing.T) {
	down := MockReply{Err: &UnavailableError{Err: errors.New("down")}}
	invalid := MockReply{Err: &InvalidResponseError{Err: errors.New("bad")}}
	tests := []struct {
		name      string
		replies   []MockReply
		wantCalls int
		wantErr   bool
	}{
		{"first try", []MockReply{ok}, 1, false},
		{"transient then ok", []MockReply{down, ok}, 2, false},
		{"all fail", []MockReply{down, down, down, ok}, 3, true},
		{"invalid retried once", []MockReply{invalid, ok}, 2, false},
		{"invalid twice", []MockReply{invalid, invalid, ok}, 2, true},
		{"truncated never", []MockReply{{Err: &TruncatedError{}}, ok}, 1, true},
		{"rate limit", []MockReply{{Err: &RateLimitError{RetryAfter: time.Millisecond}}, ok}, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMockProvider(tt.replies...)
			_, err := WithRetry(m, fastRetry()).Generate(context.Background(), Request{})
			assert.Equal(t, tt.wantErr, err != nil, "err = %v", err)
			assert.Len(t, m.Calls(), tt.wantCalls)
		})
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMockProvider(MockReply{Err: context.Canceled}, ok)
	_, err := WithRetry(m, fastRetry()).Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, m.Calls(), 1)
}

func TestMockValidatesSchema(t *testing.T) {
	m := NewMockProvider(MockReply{Content: json.RawMessage(`{"answer":3}`)}, ok)
	_, err := m.Generate(context.Background(), Prompt("", "q", answerSchema, 0))
	var inv *InvalidResponseError
	require.True(t, errors.As(err, &inv))

	resp, err := m.Generate(context.Background(), Prompt("", "q", answerSchema, 0))
	require.NoError(t, err)
	v, err := Decode[struct{ Answer string }](resp)
	require.NoError(t, err)
	assert.Equal(t, "yes", v.Answer)

	_, err = m.Generate(context.Background(), Request{})
	var un *UnavailableError
	assert.True(t, errors.As(err, &un), "empty queue")
}

func TestValidateRejectsMalformedJSON(t *testing.T) {
	err := validate(answerSchema, json.RawMessage(`{"answer":`))
	var inv *InvalidResponseError
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, `{"answer":`, string(inv.Content))
	assert.NoError(t, validate(nil, json.RawMessage(`not json`)))
}

func TestLoggingDecorator(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	m := NewMockProvider(
		MockReply{Content: json.RawMessage(`{"answer":"a"}`), Usage: Usage{InputTokens: 10, OutputTokens: 5}},
		MockReply{Err: errors.New("boom")},
	)
	p := WithLogging(m, "mock", zap.New(core))
	ctx := WithPurpose(context.Background(), "question-generation")

	_, err := p.Generate(ctx, Prompt("", "q", answerSchema, 0))
	require.NoError(t, err)
	_, err = p.Generate(ctx, Request{})
	require.Error(t, err)

	info := logs.FilterMessage("llm request").All()
	require.Len(t, info, 1)
	fields := info[0].ContextMap()
	assert.Equal(t, "question-generation", fields["purpose"])
	assert.Equal(t, "answer-test", fields["schema"])
	assert.EqualValues(t, 10, fields["input_tokens"])
	assert.Equal(t, 1, logs.FilterMessage("llm exchange").Len())

	failed := logs.FilterMessage("llm request failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.WarnLevel, failed[0].Level)
}

func TestPurposeDefault(t *testing.T) {
	assert.Equal(t, "unknown", PurposeFrom(context.Background()))
}

func TestLookupCost(t *testing.T) {
	c := LookupCost("gpt-4o-mini")
	require.NotNil(t, c)
	assert.InDelta(t, 0.15+0.6, c.Cost(1_000_000, 1_000_000), 1e-9)
	assert.NotNil(t, LookupCost("openai/gpt-4o"))
	assert.Nil(t, LookupCost("mystery-model"))
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate(), "no provider")

	cfg.Provider = ProviderMock
	assert.NoError(t, cfg.Validate())

	cfg.Provider = ProviderOpenAI
	assert.EqualError(t, cfg.Validate(), "llm.openai.api_key (LEARNPATH_LLM_OPENAI_API_KEY) is required")
	cfg.OpenAI.APIKey = "k"
	assert.NoError(t, cfg.Validate())

	cfg.Provider = "nope"
	assert.Error(t, cfg.Validate())
}

func TestConfigDiscover(t *testing.T) {
	for _, k := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
	_, found := DefaultConfig().Discover()
	assert.False(t, found)

	t.Setenv("GEMINI_API_KEY", "g-key")
	cfg, found := DefaultConfig().Discover()
	require.True(t, found)
	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, "g-key", cfg.Gemini.APIKey)

	explicit := DefaultConfig()
	explicit.Provider = ProviderMock
	cfg, found = explicit.Discover()
	assert.True(t, found)
	assert.Equal(t, ProviderMock, cfg.Provider)
}

func TestNewBuildsMock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderMock
	p, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())

	cfg.Provider = ProviderAnthropic
	_, err = New(context.Background(), cfg, nil)
	assert.Error(t, err)
}
