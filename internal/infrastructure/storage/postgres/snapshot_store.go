package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"trailerpos/internal/core/apperror"
	"trailerpos/internal/infrastructure/snapshot"
	"trailerpos/pkg/logger"
)

const snapshotTable = "pos_snapshots"

const schemaDDL = `
CREATE TABLE IF NOT EXISTS pos_snapshots (
	id             uuid PRIMARY KEY,
	created_at     timestamptz NOT NULL,
	size_bytes     integer     NOT NULL,
	checksum       text        NOT NULL,
	format_version integer     NOT NULL,
	payload        bytea       NOT NULL
);
CREATE INDEX IF NOT EXISTS pos_snapshots_created_at_idx ON pos_snapshots (created_at DESC);
`

type snapshotRow struct {
	snapshot.Info
	FormatVersion int    `db:"format_version"`
	Payload       []byte `db:"payload"`
}

var (
	infoColumns = ExtractDBColumns[snapshot.Info]()
	rowColumns  = ExtractDBColumns[snapshotRow]()
)

// SnapshotStore keeps encoded snapshots in the pos_snapshots table and
// prunes all but the newest Retain rows on every save.
type SnapshotStore struct {
	txm    *TxManager
	retain int
	now    func() time.Time
}

var _ snapshot.Store = (*SnapshotStore)(nil)

// NewSnapshotStore creates a store over pool. retain <= 0 uses snapshot.DefaultRetain.
func NewSnapshotStore(pool *Pool, retain int) *SnapshotStore {
	if retain <= 0 {
		retain = snapshot.DefaultRetain
	}
	return &SnapshotStore{txm: NewTxManager(pool), retain: retain, now: time.Now}
}

// builder returns a squirrel builder with PostgreSQL placeholder format.
func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// EnsureSchema creates the table if it does not exist.
func (s *SnapshotStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.txm.GetQuerier(ctx).Exec(ctx, schemaDDL); err != nil {
		return apperror.NewStorage(fmt.Errorf("ensure snapshot schema: %w", err))
	}
	return nil
}

// Save inserts blob and prunes old rows in one transaction.
func (s *SnapshotStore) Save(ctx context.Context, blob []byte) (snapshot.Info, error) {
	row := snapshotRow{
		Info:          snapshot.NewInfo(blob, s.now()),
		FormatVersion: snapshot.FormatVersion,
		Payload:       blob,
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		q := s.txm.GetQuerier(ctx)

		insertSQL, args, err := insertQuery(row)
		if err != nil {
			return err
		}
		if _, err := q.Exec(ctx, insertSQL, args...); err != nil {
			return apperror.NewStorage(fmt.Errorf("insert snapshot: %w", err))
		}

		pruneSQL, args, err := pruneQuery(s.retain)
		if err != nil {
			return err
		}
		tag, err := q.Exec(ctx, pruneSQL, args...)
		if err != nil {
			return apperror.NewStorage(fmt.Errorf("prune snapshots: %w", err))
		}
		if tag.RowsAffected() > 0 {
			logger.Debug(ctx, "old snapshots pruned", "rows", tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return snapshot.Info{}, err
	}

	logger.Info(ctx, "snapshot saved",
		"store", "postgres",
		"id", row.ID,
		"bytes", row.SizeBytes)

	return row.Info, nil
}

// Latest returns the newest snapshot.
func (s *SnapshotStore) Latest(ctx context.Context) ([]byte, snapshot.Info, error) {
	sql, args, err := latestQuery()
	if err != nil {
		return nil, snapshot.Info{}, err
	}

	var row snapshotRow
	if err := pgxscan.Get(ctx, s.txm.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, snapshot.Info{}, apperror.NewNotFound("snapshot", "latest")
		}
		return nil, snapshot.Info{}, apperror.NewStorage(fmt.Errorf("load latest snapshot: %w", err))
	}

	if got := snapshot.Checksum(row.Payload); got != row.Checksum {
		return nil, snapshot.Info{}, apperror.NewConsistency("snapshot checksum mismatch").
			WithDetail("id", row.ID.String()).
			WithDetail("recorded", row.Checksum).
			WithDetail("actual", got)
	}
	return row.Payload, row.Info, nil
}

// List returns up to limit snapshots, newest first, without payloads.
func (s *SnapshotStore) List(ctx context.Context, limit int) ([]snapshot.Info, error) {
	sql, args, err := listQuery(limit)
	if err != nil {
		return nil, err
	}

	var infos []snapshot.Info
	if err := pgxscan.Select(ctx, s.txm.GetQuerier(ctx), &infos, sql, args...); err != nil {
		return nil, apperror.NewStorage(fmt.Errorf("list snapshots: %w", err))
	}
	return infos, nil
}

func insertQuery(row snapshotRow) (string, []any, error) {
	sql, args, err := builder().
		Insert(snapshotTable).
		SetMap(StructToMap(row)).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build insert: %w", err)
	}
	return sql, args, nil
}

func pruneQuery(retain int) (string, []any, error) {
	keep := builder().
		Select("id").
		From(snapshotTable).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(retain))

	sql, args, err := builder().
		Delete(snapshotTable).
		Where(squirrel.Expr("id NOT IN (?)", keep)).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build prune: %w", err)
	}
	return sql, args, nil
}

func latestQuery() (string, []any, error) {
	sql, args, err := builder().
		Select(rowColumns...).
		From(snapshotTable).
		OrderBy("created_at DESC", "id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build latest: %w", err)
	}
	return sql, args, nil
}

func listQuery(limit int) (string, []any, error) {
	q := builder().
		Select(infoColumns...).
		From(snapshotTable).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build list: %w", err)
	}
	return sql, args, nil
}
