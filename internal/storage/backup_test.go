package storage

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src, _ := newTestStore(t)

	_, err := src.SeedDemo(ctx)
	require.NoError(t, err)
	_, err = src.CreateCategory(ctx, "Pets", core.Expense)
	require.NoError(t, err)
	_, err = src.AddRecurring(ctx, core.RecurringTemplate{Type: core.Expense, Amount: 15.99, Category: "Entertainment", Description: "Streaming"})
	require.NoError(t, err)

	data, err := src.Export(ctx)
	require.NoError(t, err)

	dst, _ := newTestStore(t)
	require.True(t, dst.ImportAll(ctx, data))

	wantCats, _ := src.ListCategories(ctx)
	gotCats, err := dst.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, wantCats, gotCats)

	wantTxs, _ := src.ListTransactions(ctx)
	gotTxs, err := dst.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, wantTxs, gotTxs)

	wantRec, _ := src.ListRecurring(ctx)
	gotRec, err := dst.ListRecurring(ctx)
	require.NoError(t, err)
	assert.Equal(t, wantRec, gotRec)
}

func TestExport_Shape(t *testing.T) {
	s, _ := newTestStore(t)
	data, err := s.Export(context.Background())
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc, 3)
	assert.JSONEq(t, `[]`, string(doc["transactions"]))
	assert.JSONEq(t, `[]`, string(doc["recurring"]))

	var cats []core.Category
	require.NoError(t, json.Unmarshal(doc["categories"], &cats))
	assert.Len(t, cats, 12)
}

func TestImport_RejectsAndWritesNothing(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"not json", `hello`},
		{"array root", `[]`},
		{"missing recurring", `{"categories":[],"transactions":[]}`},
		{"object instead of array", `{"categories":{},"transactions":[],"recurring":[]}`},
		{"null collection", `{"categories":[],"transactions":null,"recurring":[]}`},
		{"bad element", `{"categories":[],"transactions":[{"date":"not-a-date"}],"recurring":[]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			s, mem := newTestStore(t)
			_, err := s.SeedDemo(ctx)
			require.NoError(t, err)
			before, _, _ := mem.Get(ctx, TransactionsKey)

			err = s.Import(ctx, []byte(tc.data))
			assert.ErrorIs(t, err, core.ErrInvalidBackup)
			assert.False(t, s.ImportAll(ctx, []byte(tc.data)))

			after, _, _ := mem.Get(ctx, TransactionsKey)
			assert.Equal(t, before, after)
			_, found, _ := mem.Get(ctx, CategoriesKey)
			assert.False(t, found)
		})
	}
}

func TestImport_EmptyCollectionsReplaceEverything(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, err := s.SeedDemo(ctx)
	require.NoError(t, err)

	require.True(t, s.ImportAll(ctx, []byte(`{"categories":[],"transactions":[],"recurring":[]}`)))

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats, "an imported empty list is not replaced by defaults")

	txs, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, txs)
}
