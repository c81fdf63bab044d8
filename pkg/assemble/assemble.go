// Package assemble builds the passport document from finalized memories and
// submits it to the vault in two phases: the document first, then each
// memory under it.
//
// The submission is a deliberate at-most-once-then-best-effort saga: the
// vault offers no cross-document atomicity, so a phase-one failure skips
// phase two entirely (no orphaned memories without a parent document) and
// no rollback of phase one is ever attempted. Per-memory failures in phase
// two are counted, not fatal.
package assemble

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heirloomhq/heirloom/pkg/eventstream"
	"github.com/heirloomhq/heirloom/pkg/eventstream/nop"
	"github.com/heirloomhq/heirloom/pkg/passport"
	"github.com/heirloomhq/heirloom/pkg/record"
	"github.com/heirloomhq/heirloom/pkg/vault"
)

// Result reports the outcome of one assembly-and-submit run. The document
// body is always returned for local persistence, whatever the remote
// outcome.
type Result struct {
	// PassportID is the vault-assigned document id, "" on phase-one failure.
	PassportID string

	// MemoriesPosted counts memories that reached the vault in phase two.
	// May be less than len(Document.Memories).
	MemoriesPosted int

	// Document is the assembled passport body.
	Document *passport.Passport
}

// Assembler composes passports and drives the two-phase vault submission.
type Assembler struct {
	store  vault.Store
	events eventstream.Publisher
	logger *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithPublisher sets the eventstream publisher notified per persisted
// memory. Defaults to the no-op publisher.
func WithPublisher(p eventstream.Publisher) Option {
	return func(a *Assembler) {
		if p != nil {
			a.events = p
		}
	}
}

// NewAssembler creates an Assembler over the given vault store.
func NewAssembler(store vault.Store, logger *slog.Logger, opts ...Option) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Assembler{
		store:  store,
		events: nop.NewPublisher(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AssembleAndSubmit builds the passport and submits it. When updateTarget
// is non-empty the document upserts into that existing passport; otherwise
// a new one is created. A phase-one failure returns the assembled document
// alongside the error so the caller can still persist it locally.
func (a *Assembler) AssembleAndSubmit(
	ctx context.Context,
	memories []passport.Memory,
	profile record.Profile,
	totalSourceRecords int,
	updateTarget string,
) (*Result, error) {
	doc := passport.Build(memories, profile, totalSourceRecords)
	result := &Result{Document: doc}

	a.logger.Info("assembled passport, submitting",
		"memories", len(memories), "update_target", updateTarget)

	// phase one: the document itself
	passportID, err := a.submitDocument(ctx, doc, updateTarget)
	if err != nil {
		a.logger.Error("passport submission failed; skipping memory submission", "error", err)
		return result, fmt.Errorf("submitting passport: %w", err)
	}
	doc.PassportID = passportID
	result.PassportID = passportID

	// phase two: each memory as a child record, best effort
	for _, mem := range memories {
		if err := a.store.CreateMemory(ctx, passportID, mem); err != nil {
			a.logger.Error("failed to post memory",
				"memory_id", mem.MemoryID, "error", err)
			continue
		}
		result.MemoriesPosted++
		a.publishPersisted(ctx, passportID, mem)
	}

	a.logger.Info("submission complete",
		"passport_id", passportID,
		"posted", result.MemoriesPosted,
		"memories", len(memories),
	)
	return result, nil
}

func (a *Assembler) submitDocument(ctx context.Context, doc *passport.Passport, updateTarget string) (string, error) {
	if updateTarget != "" {
		if err := a.store.UpdatePassport(ctx, updateTarget, doc); err != nil {
			return "", err
		}
		return updateTarget, nil
	}
	return a.store.CreatePassport(ctx, doc)
}

// publishPersisted emits a memory-persisted event. Event delivery is
// observational and never affects the submission outcome.
func (a *Assembler) publishPersisted(ctx context.Context, passportID string, mem passport.Memory) {
	event := &eventstream.MemoryPersistedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeMemoryPersisted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		PassportID:    passportID,
		Contributor:   mem.ContributorName,
		MemoryID:      mem.MemoryID,
		LifeTheme:     mem.LifeTheme,
		Tags:          mem.SituationalTags,
		Weight:        mem.EmotionalWeight,
	}
	if err := a.events.PublishMemory(ctx, event); err != nil {
		a.logger.Warn("failed to publish memory event",
			"memory_id", mem.MemoryID, "error", err)
	}
}
