package llm

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type logging struct {
	inner  Provider
	vendor string
	log    *zap.Logger
}

// WithLogging logs every call with its purpose, latency, token usage and
// estimated cost. Prompts and replies are logged at debug level only.
func WithLogging(p Provider, vendor string, log *zap.Logger) Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &logging{inner: p, vendor: vendor, log: log.Named("llm")}
}

func (l *logging) ModelID() string { return l.inner.ModelID() }

func (l *logging) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	fields := []zap.Field{
		zap.String("vendor", l.vendor),
		zap.String("model", l.inner.ModelID()),
		zap.String("purpose", PurposeFrom(ctx)),
		zap.Duration("latency", time.Since(start)),
	}
	if req.Schema != nil {
		fields = append(fields, zap.String("schema", req.Schema.Name))
	}
	if resp != nil {
		fields = append(fields,
			zap.String("served_by", resp.Model),
			zap.Int("input_tokens", resp.Usage.InputTokens),
			zap.Int("output_tokens", resp.Usage.OutputTokens),
		)
		if c := LookupCost(resp.Model); c != nil {
			fields = append(fields, zap.Float64("cost_usd", c.Cost(resp.Usage.InputTokens, resp.Usage.OutputTokens)))
		}
	}
	if err != nil {
		l.log.Warn("llm request failed", append(fields, zap.Error(err))...)
		return resp, err
	}
	l.log.Info("llm request", fields...)
	if ce := l.log.Check(zap.DebugLevel, "llm exchange"); ce != nil {
		ce.Write(zap.String("system", req.System), zap.Any("messages", req.Messages), zap.ByteString("reply", resp.Content))
	}
	return resp, nil
}
