package engine

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/codes"

	"trailerpos/internal/core/apperror"
	"trailerpos/internal/core/entity"
	"trailerpos/internal/core/id"
	"trailerpos/internal/infrastructure/snapshot"
	"trailerpos/internal/infrastructure/storage/memory"
	"trailerpos/pkg/logger"
)

// ExportSnapshot serializes the complete state.
// Exporting the same state at the same clock reading yields the same bytes.
func (e *Engine) ExportSnapshot(ctx context.Context) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "engine.export_snapshot")
	defer span.End()

	var doc *snapshot.Document
	err := e.tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		doc, err = e.db.Export(ctx, e.opts.Clock())
		return err
	})
	if err != nil {
		return nil, err
	}

	blob, err := snapshot.Encode(doc)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	logger.Info(ctx, "snapshot exported",
		"bytes", len(blob),
		"ledger_entries", len(doc.Ledger),
		"orders", len(doc.Orders))

	return blob, nil
}

// ImportSnapshot replaces the complete state with the one in blob.
//
// The catalog and documents are loaded into a scratch store, then every
// ledger entry is replayed by sequence through the aggregator. Each
// backfilled cost, every cost aggregate and every order's COGS and grand
// total must come out as recorded. The live state is swapped only when all
// of them match; otherwise it is left untouched.
func (e *Engine) ImportSnapshot(ctx context.Context, blob []byte) (err error) {
	ctx, span := tracer.Start(ctx, "engine.import_snapshot")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logFailure(ctx, "import_snapshot", err)
		}
		span.End()
	}()

	if e.db.InTransaction(ctx) {
		return apperror.NewInternal(errors.New("snapshot import inside a transaction"))
	}

	doc, err := snapshot.Decode(blob)
	if err != nil {
		return err
	}

	scratch, err := memory.NewDBFromSnapshot(doc)
	if err != nil {
		return err
	}
	rebuilt := wire(scratch, e.opts)

	err = rebuilt.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, entry := range doc.Ledger {
			if err := rebuilt.ledger.Replay(ctx, entry); err != nil {
				return err
			}
		}
		return verify(ctx, rebuilt, doc)
	})
	if err != nil {
		return err
	}

	if err := e.db.Replace(ctx, scratch); err != nil {
		return err
	}
	e.revision.Add(1)

	logger.Info(ctx, "snapshot imported",
		"ledger_entries", len(doc.Ledger),
		"orders", len(doc.Orders),
		"exported_at", doc.ExportedAt)

	return nil
}

// verify compares the replayed aggregates with the recorded ones.
func verify(ctx context.Context, s *services, doc *snapshot.Document) error {
	replayed, err := s.costs.List(ctx, id.Nil())
	if err != nil {
		return err
	}
	if len(replayed) != len(doc.CostStates) {
		return apperror.NewConsistency("cost state count differs from snapshot").
			WithDetail("recorded", len(doc.CostStates)).
			WithDetail("replayed", len(replayed))
	}

	byKey := make(map[entity.CostKey]entity.CostState, len(replayed))
	for _, st := range replayed {
		byKey[st.Key()] = st
	}
	for _, want := range doc.CostStates {
		got, ok := byKey[want.Key()]
		if !ok || !sameCostState(got, want) {
			return apperror.NewConsistency("replayed cost state differs from snapshot").
				WithDetail("storeId", want.StoreID.String()).
				WithDetail("productId", want.ProductID.String()).
				WithDetail("recordedAvg", want.AvgUnitCost.String()).
				WithDetail("replayedAvg", got.AvgUnitCost.String())
		}
	}

	for _, want := range doc.Orders {
		if !want.GrandTotal.Equal(want.ExpectedGrandTotal()) {
			return apperror.NewConsistency("order grand total does not match its components").
				WithDetail("orderId", want.ID.String()).
				WithDetail("grandTotal", want.GrandTotal.String())
		}
		got, err := s.orders.Get(ctx, want.ID)
		if err != nil {
			return err
		}
		if !got.CogsTotal.Equal(want.CogsTotal) {
			return apperror.NewConsistency("replayed order cogs differs from snapshot").
				WithDetail("orderId", want.ID.String()).
				WithDetail("recorded", want.CogsTotal.String()).
				WithDetail("replayed", got.CogsTotal.String())
		}
	}
	return nil
}

func sameCostState(a, b entity.CostState) bool {
	return a.QtyOnHand.Equal(b.QtyOnHand) &&
		a.AvgUnitCost.Equal(b.AvgUnitCost) &&
		a.LastSeq == b.LastSeq &&
		a.UpdatedAt.Equal(b.UpdatedAt)
}
