package sessioncache

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/inboxshot/pkg/async"
	"github.com/dmitrymomot/inboxshot/pkg/environment"
	"github.com/dmitrymomot/inboxshot/pkg/file"
	"github.com/dmitrymomot/inboxshot/pkg/logger"
	"github.com/dmitrymomot/inboxshot/svc/mailbox"
)

// Outcome is what a maintenance operation did for one combination.
type Outcome string

const (
	OutcomeRefreshed Outcome = "refreshed"
	OutcomeCopied    Outcome = "copied"
	// OutcomeSkipped means the target was already valid or present.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeMissing means the clone source had no blob.
	OutcomeMissing Outcome = "missing"
	OutcomeFailed  Outcome = "failed"
)

// Report is the result of a maintenance operation for one combination.
type Report struct {
	Combination mailbox.Combination
	// Target is the destination environment of a clone; empty otherwise.
	Target  environment.Environment
	Outcome Outcome
	Err     error
}

// CacheAll refreshes every combination whose cached session does not probe valid.
// With force every combination is refreshed. Combinations run one at a time since
// a login may need an operator watching the browser.
func (c *Cache) CacheAll(ctx context.Context, force bool) ([]Report, error) {
	combos := mailbox.Combinations(nil, nil)
	reports := make([]Report, 0, len(combos))
	var errs []error

	for _, combo := range combos {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		log := c.log.With(logger.Client(string(combo.Client)), logger.Engine(string(combo.Engine)))

		if !force {
			valid, err := c.ProbeValidity(ctx, combo.Client, combo.Engine)
			if err != nil {
				log.WarnContext(ctx, "probe failed, refreshing", logger.Error(err))
			}
			if valid {
				log.InfoContext(ctx, "session still valid, skipping")
				reports = append(reports, Report{Combination: combo, Outcome: OutcomeSkipped})
				continue
			}
		}

		if err := c.Refresh(ctx, combo.Client, combo.Engine); err != nil {
			log.ErrorContext(ctx, "failed to refresh session", logger.Error(err))
			reports = append(reports, Report{Combination: combo, Outcome: OutcomeFailed, Err: err})
			errs = append(errs, err)
			continue
		}
		reports = append(reports, Report{Combination: combo, Outcome: OutcomeRefreshed})
	}
	return reports, errors.Join(errs...)
}

// Clone copies cached sessions from source to every target environment. Targets that
// already hold a blob are skipped unless force is set. A missing source blob is
// reported and skipped; the other combinations are still copied.
func (c *Cache) Clone(ctx context.Context, source environment.Environment, targets []environment.Environment, force bool) ([]Report, error) {
	var (
		reports []Report
		errs    []error
	)

	for _, combo := range mailbox.Combinations(nil, nil) {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		log := c.log.With(logger.Client(string(combo.Client)), logger.Engine(string(combo.Engine)))

		src := Path(source, combo.Client, combo.Engine)
		data, err := c.storage.Get(ctx, src)
		if err != nil {
			if errors.Is(err, file.ErrFileNotFound) {
				log.WarnContext(ctx, "source session missing, skipping", slog.String("path", src))
				reports = append(reports, Report{Combination: combo, Outcome: OutcomeMissing})
				continue
			}
			errs = append(errs, err)
			reports = append(reports, Report{Combination: combo, Outcome: OutcomeFailed, Err: err})
			continue
		}

		for _, target := range targets {
			if target == source {
				continue
			}
			rep := c.copyTo(ctx, log, combo, target, data, force)
			if rep.Err != nil {
				errs = append(errs, rep.Err)
			}
			reports = append(reports, rep)
		}
	}
	return reports, errors.Join(errs...)
}

func (c *Cache) copyTo(ctx context.Context, log *slog.Logger, combo mailbox.Combination, target environment.Environment, data []byte, force bool) Report {
	rep := Report{Combination: combo, Target: target}
	dst := Path(target, combo.Client, combo.Engine)

	if !force {
		exists, err := c.storage.Exists(ctx, dst)
		if err != nil {
			rep.Outcome, rep.Err = OutcomeFailed, err
			return rep
		}
		if exists {
			log.InfoContext(ctx, "target already present, skipping", slog.String("path", dst))
			rep.Outcome = OutcomeSkipped
			return rep
		}
	}

	if _, err := c.storage.Put(ctx, dst, data, file.ContentTypeJSON); err != nil {
		log.ErrorContext(ctx, "failed to copy session", slog.String("path", dst), logger.Error(err))
		rep.Outcome, rep.Err = OutcomeFailed, err
		return rep
	}
	log.InfoContext(ctx, "session copied", slog.String("path", dst))
	rep.Outcome = OutcomeCopied
	return rep
}

// Verification is the probe result for one combination.
type Verification struct {
	Combination mailbox.Combination
	Valid       bool
	Err         error
}

// Verify probes the given combinations in parallel. Empty slices mean all.
func (c *Cache) Verify(ctx context.Context, clients []mailbox.Client, engines []mailbox.Engine) []Verification {
	combos := mailbox.Combinations(clients, engines)
	sem := make(chan struct{}, c.concurrency)

	futures := make([]*async.Future[Verification], 0, len(combos))
	for _, combo := range combos {
		futures = append(futures, async.Async(ctx, combo, func(ctx context.Context, combo mailbox.Combination) (Verification, error) {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return Verification{Combination: combo, Err: ctx.Err()}, nil
			}
			defer func() { <-sem }()

			valid, err := c.ProbeValidity(ctx, combo.Client, combo.Engine)
			return Verification{Combination: combo, Valid: valid, Err: err}, nil
		}))
	}

	results, _ := async.WaitAll(futures...)
	for i := range results {
		// a pre-canceled future never ran and carries a zero value
		if results[i].Combination == (mailbox.Combination{}) {
			results[i] = Verification{Combination: combos[i], Err: ctx.Err()}
		}
	}
	return results
}
