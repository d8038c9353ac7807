package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/advanceai-medora/Medora-AI-sub000/internal/domain"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/lexicon"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/ports"
)

// Deletion rule names, in evaluation order. The first matching rule deletes
// the record; later rules never see it.
const (
	RuleDuplicate   = "duplicate"
	RuleMissing     = "missing_fields"
	RulePlaceholder = "placeholder_summary"
	RuleEmptyKw     = "empty_keywords"
	RuleOffTopic    = "off_topic"
	RuleYearCutoff  = "year_cutoff"
)

// CleanOptions tunes one cleaning pass. YearCutoff deletes references
// published before the given year; zero disables the check. The scheduled
// pass runs with it disabled; the standalone cleanup binary enables it.
type CleanOptions struct {
	YearCutoff int
}

// CleanReport summarizes one cleaning pass.
type CleanReport struct {
	RunID     string         `json:"run_id"`
	Scanned   int            `json:"scanned"`
	Deleted   int            `json:"deleted"`
	Rewritten int            `json:"rewritten"`
	DeletedBy map[string]int `json:"deleted_by"`
}

// Cleaner is the idempotent full-store pass that prunes duplicate,
// incomplete, placeholder, and off-topic references and canonicalizes the
// keyword representation in place. It must not run concurrently with
// ingestion into the same store: the duplicate check depends on seeing a
// stable snapshot of the pass.
type Cleaner struct {
	store  ports.ReferenceStore
	logger *slog.Logger
}

// NewCleaner wires the store.
func NewCleaner(store ports.ReferenceStore, logger *slog.Logger) *Cleaner {
	return &Cleaner{store: store, logger: logger}
}

// Run executes one pass. Per-item store failures are logged and skipped; the
// pass only fails as a whole when the initial scan does.
func (c *Cleaner) Run(ctx context.Context, opts CleanOptions) (CleanReport, error) {
	report := CleanReport{RunID: uuid.NewString(), DeletedBy: map[string]int{}}

	refs, err := c.store.ScanAll(ctx)
	if err != nil {
		return report, err
	}
	report.Scanned = len(refs)

	seenNative := map[string]bool{}
	for _, ref := range refs {
		rule, rewrite := c.evaluate(ref, opts, seenNative)

		if rewrite {
			if err := c.store.UpdateKeywords(ctx, ref.ID, ref.Keywords.Value); err != nil {
				c.logger.Warn("keyword rewrite failed", "id", ref.ID, "error", err)
			} else {
				report.Rewritten++
			}
		}
		if rule == "" {
			continue
		}

		if err := c.store.Delete(ctx, ref.ID); err != nil {
			c.logger.Warn("delete failed", "id", ref.ID, "rule", rule, "error", err)
			continue
		}
		report.Deleted++
		report.DeletedBy[rule]++
	}

	c.logger.Info("cleaning finished",
		"run_id", report.RunID,
		"scanned", report.Scanned,
		"deleted", report.Deleted,
		"rewritten", report.Rewritten)
	return report, nil
}

// evaluate applies the checks in precedence order and returns the first
// deletion rule that fires, plus whether the keyword form needs rewriting.
// A rewrite only happens for records that survive the checks preceding it.
func (c *Cleaner) evaluate(ref domain.Reference, opts CleanOptions, seenNative map[string]bool) (string, bool) {
	if ref.NativeID != "" {
		key := sourceTag(ref.ID) + "_" + ref.NativeID
		if seenNative[key] {
			return RuleDuplicate, false
		}
		seenNative[key] = true
	}

	if strings.TrimSpace(ref.Title) == "" || strings.TrimSpace(ref.Summary) == "" ||
		(ref.Keywords.Value == "" && !ref.Keywords.FromList) {
		return RuleMissing, false
	}
	if domain.IsPlaceholderSummary(ref.Summary) {
		return RulePlaceholder, false
	}
	if ref.Keywords.IsEmpty() {
		return RuleEmptyKw, false
	}

	rewrite := ref.Keywords.FromList

	if !lexicon.ContainsTerm(ref.Title, ref.Summary, ref.Keywords.Value, ref.RelevanceTag) {
		return RuleOffTopic, rewrite
	}

	if opts.YearCutoff > 0 {
		if year, err := strconv.Atoi(strings.TrimSpace(ref.PublicationDate)); err == nil && year < opts.YearCutoff {
			return RuleYearCutoff, rewrite
		}
	}

	return "", rewrite
}

// sourceTag extracts the source prefix from a composed reference id.
func sourceTag(id string) string {
	if idx := strings.Index(id, "_"); idx > 0 {
		return id[:idx]
	}
	return id
}
