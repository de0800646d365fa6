package main

import (
	"context"
	"time"

	"trailerpos/internal/core/apperror"
	"trailerpos/internal/engine"
	"trailerpos/internal/infrastructure/snapshot"
	"trailerpos/pkg/logger"
)

// Result is the outcome of one verification pass.
type Result struct {
	Snapshot snapshot.Info
	Checked  bool
	Err      error
}

// Verifier replays the newest snapshot into a scratch engine. Import
// re-runs the whole ledger through the aggregator, so a snapshot that
// imports cleanly is one the server can restore.
type Verifier struct {
	store    snapshot.Store
	opts     engine.Options
	interval time.Duration
	log      *logger.Logger

	last snapshot.Info
}

// NewVerifier creates a verifier polling store every interval.
func NewVerifier(store snapshot.Store, opts engine.Options, interval time.Duration, log *logger.Logger) *Verifier {
	return &Verifier{
		store:    store,
		opts:     opts,
		interval: interval,
		log:      log.WithComponent("verifier"),
	}
}

// VerifyLatest checks the newest snapshot unless it was already checked.
func (v *Verifier) VerifyLatest(ctx context.Context) Result {
	blob, info, err := v.store.Latest(ctx)
	if apperror.IsNotFound(err) {
		return Result{}
	}
	if err != nil {
		return Result{Err: err}
	}
	if info.ID == v.last.ID {
		return Result{Snapshot: info}
	}

	scratch := engine.New(v.opts)
	if err := scratch.ImportSnapshot(ctx, blob); err != nil {
		return Result{Snapshot: info, Checked: true, Err: err}
	}
	v.last = info
	return Result{Snapshot: info, Checked: true}
}

// Run verifies on start and then on every tick until ctx is done.
func (v *Verifier) Run(ctx context.Context) {
	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	for {
		v.report(v.VerifyLatest(ctx))

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (v *Verifier) report(r Result) {
	switch {
	case r.Err != nil && apperror.IsConsistency(r.Err):
		v.log.Errorw("snapshot failed verification",
			"snapshot_id", r.Snapshot.ID,
			"created_at", r.Snapshot.CreatedAt,
			"error", r.Err)
	case r.Err != nil:
		v.log.Warnw("snapshot verification skipped", "error", r.Err)
	case r.Checked:
		v.log.Infow("snapshot verified",
			"snapshot_id", r.Snapshot.ID,
			"bytes", r.Snapshot.SizeBytes)
	}
}
