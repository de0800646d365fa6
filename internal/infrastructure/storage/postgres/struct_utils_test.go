package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailerpos/internal/infrastructure/snapshot"
)

func TestExtractDBColumns_FlattensEmbeddedInfo(t *testing.T) {
	assert.Equal(t,
		[]string{"id", "created_at", "size_bytes", "checksum", "format_version", "payload"},
		ExtractDBColumns[snapshotRow]())
	assert.Equal(t,
		[]string{"id", "created_at", "size_bytes", "checksum"},
		ExtractDBColumns[snapshot.Info]())
}

func TestStructToMap_SnapshotRow(t *testing.T) {
	blob := []byte("TPS1 payload")
	row := snapshotRow{
		Info:          snapshot.NewInfo(blob, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)),
		FormatVersion: snapshot.FormatVersion,
		Payload:       blob,
	}

	m := StructToMap(&row)
	require.Len(t, m, 6)
	assert.Equal(t, row.ID, m["id"])
	assert.Equal(t, len(blob), m["size_bytes"])
	assert.Equal(t, snapshot.Checksum(blob), m["checksum"])
	assert.Equal(t, blob, m["payload"])
}

func TestSnapshotQueries(t *testing.T) {
	sql, args, err := pruneQuery(3)
	require.NoError(t, err)
	assert.Equal(t,
		"DELETE FROM pos_snapshots WHERE id NOT IN (SELECT id FROM pos_snapshots ORDER BY created_at DESC, id DESC LIMIT 3)",
		sql)
	assert.Empty(t, args)

	sql, _, err = latestQuery()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, created_at, size_bytes, checksum, format_version, payload FROM pos_snapshots ORDER BY created_at DESC, id DESC LIMIT 1",
		sql)

	sql, _, err = listQuery(0)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, created_at, size_bytes, checksum FROM pos_snapshots ORDER BY created_at DESC, id DESC",
		sql)

	sql, args, err = insertQuery(snapshotRow{Info: snapshot.NewInfo([]byte("x"), time.Now())})
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO pos_snapshots (checksum,created_at,format_version,id,payload,size_bytes) VALUES ($1,$2,$3,$4,$5,$6)",
		sql)
	assert.Len(t, args, 6)
}
