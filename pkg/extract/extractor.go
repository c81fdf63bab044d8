// Package extract turns deduplicated raw records into wisdom signals via an
// external generation capability. Only each record's id and text body cross
// the boundary; raw feed lines never do.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/heirloomhq/heirloom/pkg/generate"
	"github.com/heirloomhq/heirloom/pkg/record"
)

const (
	// DefaultBatchSize bounds how many records share one generation call.
	DefaultBatchSize = 10

	// maxAttempts is the total number of tries per batch, including the first.
	maxAttempts = 4

	// initialBackoff is the delay before the second attempt; it doubles on
	// each subsequent attempt.
	initialBackoff = 2 * time.Second
)

// Signal is the intermediate wisdom signal parsed from one response entry.
// It never crosses the external boundary in this form; the classifier
// consumes it immediately.
type Signal struct {
	SourceRecordID  string
	OriginalText    string
	WisdomSignal    string
	ValueExpressed  string
	TagCandidates   []string
	EmotionalWeight int
	LifeTheme       string
}

// Extractor batches records and runs extraction calls against a generation
// capability with bounded retry.
type Extractor struct {
	call      generate.CallFunc
	batchSize int
	logger    *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithBatchSize overrides the default batch size.
func WithBatchSize(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// NewExtractor creates an Extractor over the given generation capability.
func NewExtractor(call generate.CallFunc, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{
		call:      call,
		batchSize: DefaultBatchSize,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract produces a flat signal list across all batches, in batch order.
// A parse failure within one entry is logged and skipped; an unparseable
// batch yields zero signals. Retry exhaustion on any batch fails the whole
// call — a batch never silently disappears.
func (e *Extractor) Extract(ctx context.Context, records []record.RawRecord) ([]Signal, error) {
	var all []Signal
	totalBatches := (len(records) + e.batchSize - 1) / e.batchSize

	for batchIdx := 0; batchIdx < totalBatches; batchIdx++ {
		start := batchIdx * e.batchSize
		end := min(start+e.batchSize, len(records))
		batch := records[start:end]

		e.logger.Info("processing batch",
			"batch", batchIdx+1, "batches", totalBatches, "records", len(batch))

		raw, err := e.callWithRetry(ctx, buildUserMessage(batch))
		if err != nil {
			return nil, fmt.Errorf("batch %d/%d: %w", batchIdx+1, totalBatches, err)
		}

		signals := e.parseResponse(raw, batch)
		e.logger.Info("batch yielded signals",
			"batch", batchIdx+1, "batches", totalBatches, "signals", len(signals))
		all = append(all, signals...)
	}

	e.logger.Info("extraction complete", "signals", len(all), "records", len(records))
	return all, nil
}

// buildUserMessage renders a batch as [Record <id>] blocks. Only the record
// id and text body are included.
func buildUserMessage(batch []record.RawRecord) string {
	entries := make([]string, 0, len(batch))
	for _, rec := range batch {
		entries = append(entries, fmt.Sprintf("[Record %s]\n%s", rec.ID, rec.Text))
	}
	return userPreamble + strings.Join(entries, entryDelimiter)
}

// callWithRetry runs one generation call with exponential backoff on
// transient failures. Non-transient errors fail immediately.
func (e *Extractor) callWithRetry(ctx context.Context, user string) (string, error) {
	backoff := initialBackoff
	var lastErr error
	attempts := 0

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		e.logger.Debug("generation call", "attempt", attempt, "max", maxAttempts)

		raw, err := e.call(ctx, SystemInstructionV1, user)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		attempts = attempt

		if !isRetryable(err) || attempt == maxAttempts {
			break
		}

		e.logger.Warn("transient generation failure, backing off",
			"attempt", attempt, "backoff", backoff, "error", err)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		backoff *= 2
	}

	return "", fmt.Errorf("after %d of %d attempts: %w", attempts, maxAttempts, lastErr)
}

// isRetryable reports whether an error looks like a rate limit, timeout,
// or connection-class failure.
func isRetryable(err error) bool {
	msg := err.Error()
	for _, s := range []string{
		"429", "500", "502", "503", "529",
		"rate limit", "overloaded",
		"connection refused", "timeout", "deadline exceeded",
		"EOF", "reset by peer",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
