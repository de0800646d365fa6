package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailerpos/internal/core/apperror"
	"trailerpos/internal/core/entity"
	"trailerpos/internal/core/id"
	"trailerpos/internal/core/types"
)

func sampleDocument() *Document {
	store, product := id.New(), id.New()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &Document{
		Version:    FormatVersion,
		ExportedAt: at,
		Ledger: []entity.LedgerEntry{{
			ID:        id.New(),
			Seq:       1,
			StoreID:   store,
			ProductID: product,
			Qty:       types.MustQuantity("10"),
			UnitCost:  types.Known(types.MustMoney("2.00")),
			Reason:    entity.ReasonPurchase,
			Timestamp: at,
			Actor:     "system",
		}},
		CostStates: []entity.CostState{{
			StoreID:     store,
			ProductID:   product,
			QtyOnHand:   types.MustQuantity("10"),
			AvgUnitCost: types.MustMoney("2"),
			LastSeq:     1,
			UpdatedAt:   at,
		}},
		Sequences: map[string]int64{"P_2026": 1},
	}
}

func TestEncode_IsDeterministic(t *testing.T) {
	doc := sampleDocument()

	a, err := Encode(doc)
	require.NoError(t, err)
	b, err := Encode(doc)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, magic, a[:len(magic)])
}

func TestDecode_ReadsEncodedDocument(t *testing.T) {
	doc := sampleDocument()
	blob, err := Encode(doc)
	require.NoError(t, err)

	got, err := Decode(blob)
	require.NoError(t, err)
	require.Len(t, got.Ledger, 1)
	assert.True(t, got.Ledger[0].UnitCost.Decimal.Equal(types.MustMoney("2")))
	assert.True(t, got.ExportedAt.Equal(doc.ExportedAt))
	assert.Equal(t, int64(1), got.Sequences["P_2026"])
}

func TestDecode_RejectsMalformedInput(t *testing.T) {
	wrongVersion := sampleDocument()
	wrongVersion.Version = FormatVersion + 1
	future, err := Encode(wrongVersion)
	require.NoError(t, err)

	tests := []struct {
		name string
		blob []byte
	}{
		{name: "empty", blob: nil},
		{name: "no header", blob: []byte(`{"version":1}`)},
		{name: "corrupted body", blob: append(append([]byte{}, magic...), 0x01, 0x02, 0x03)},
		{name: "unsupported version", blob: future},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.blob)
			assert.True(t, apperror.IsValidation(err), "got %v", err)
		})
	}
}
