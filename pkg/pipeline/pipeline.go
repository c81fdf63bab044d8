// Package pipeline runs the full ingest flow: load source records, extract
// wisdom signals, classify them into memories, and submit the assembled
// passport to the vault.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/heirloomhq/heirloom/pkg/assemble"
	"github.com/heirloomhq/heirloom/pkg/classify"
	"github.com/heirloomhq/heirloom/pkg/extract"
	"github.com/heirloomhq/heirloom/pkg/generate"
	"github.com/heirloomhq/heirloom/pkg/record"
	"github.com/heirloomhq/heirloom/pkg/vault"
)

// IngestResult summarizes one pipeline run, with counts at every stage.
type IngestResult struct {
	RecordsLoaded     int           `json:"records_loaded"`
	DuplicatesRemoved int           `json:"duplicates_removed"`
	SignalsExtracted  int           `json:"signals_extracted"`
	GatedOut          int           `json:"gated_out"`
	MemoriesProduced  int           `json:"memories_produced"`
	MemoriesPosted    int           `json:"memories_posted"`
	PassportID        string        `json:"passport_id"`
	Updated           bool          `json:"updated"`
	Elapsed           time.Duration `json:"elapsed"`
}

// Pipeline wires the ingest stages together.
type Pipeline struct {
	loader     *record.Loader
	extractor  *extract.Extractor
	classifier *classify.Classifier
	assembler  *assemble.Assembler
	store      vault.Store
	logger     *slog.Logger
}

// New creates a Pipeline. The generate call is the only external model
// dependency; everything else is deterministic.
func New(
	call generate.CallFunc,
	store vault.Store,
	assembler *assemble.Assembler,
	logger *slog.Logger,
	extractOpts ...extract.Option,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		loader:     record.NewLoader(logger),
		extractor:  extract.NewExtractor(call, logger, extractOpts...),
		classifier: classify.NewClassifier(logger),
		assembler:  assembler,
		store:      store,
		logger:     logger,
	}
}

// Ingest runs the pipeline end to end over the source directory at root.
// Re-running over the same records against the same passport converges:
// dedup happens at load, memory ids are derived from the source text, and
// the vault ignores already-present ids.
func (p *Pipeline) Ingest(ctx context.Context, root string) (*IngestResult, error) {
	start := time.Now()

	loaded, err := p.loader.Load(root)
	if err != nil {
		return nil, fmt.Errorf("loading records: %w", err)
	}
	result := &IngestResult{
		RecordsLoaded:     loaded.TotalLoaded,
		DuplicatesRemoved: loaded.DuplicatesRemoved,
	}
	p.logger.Info("records loaded",
		"records", loaded.TotalLoaded,
		"duplicates_removed", loaded.DuplicatesRemoved,
		"subject", loaded.Profile.Name,
	)

	signals, err := p.extractor.Extract(ctx, loaded.Records)
	if err != nil {
		return nil, fmt.Errorf("extracting signals: %w", err)
	}
	result.SignalsExtracted = len(signals)

	memories, stats := p.classifier.Classify(signals, loaded.Profile.Name)
	result.GatedOut = stats.GatedOut
	result.MemoriesProduced = stats.Produced
	if len(memories) == 0 {
		p.logger.Warn("no memories cleared the weight gate; nothing to submit")
		result.Elapsed = time.Since(start)
		return result, nil
	}

	updateTarget := p.findExisting(ctx, loaded.Profile.Name)
	result.Updated = updateTarget != ""

	submitted, err := p.assembler.AssembleAndSubmit(ctx,
		memories, loaded.Profile, loaded.TotalLoaded, updateTarget)
	if err != nil {
		return result, err
	}
	result.PassportID = submitted.PassportID
	result.MemoriesPosted = submitted.MemoriesPosted
	result.Elapsed = time.Since(start)

	p.logger.Info("ingest complete",
		"passport_id", result.PassportID,
		"posted", result.MemoriesPosted,
		"elapsed", result.Elapsed.Round(time.Millisecond),
	)
	return result, nil
}

// findExisting looks up a prior passport for the contributor so a re-run
// updates in place instead of forking a second document. Lookup failures
// degrade to create.
func (p *Pipeline) findExisting(ctx context.Context, contributor string) string {
	if contributor == "" {
		return ""
	}
	id, err := p.store.FindPassportByContributor(ctx, contributor)
	if err != nil {
		if !vault.IsNotFound(err) {
			p.logger.Warn("passport lookup failed, creating fresh", "error", err)
		}
		return ""
	}
	return id
}
