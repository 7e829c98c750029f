package history

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/stockgpt/internal/database"
	"github.com/Alias1177/stockgpt/models"
)

func TestRecordAndList(t *testing.T) {
	ctx := context.Background()
	store := NewStore(database.NewMemory())

	result := &models.AnalysisResult{Symbol: "AAPL", Summary: "Strong quarter."}
	require.NoError(t, store.Record(ctx, "AAPL", result, nil))
	require.NoError(t, store.Record(ctx, "???", nil, errors.New("Query cannot be empty.")))

	list, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 4)

	assert.Equal(t, models.RoleUser, list[0].Role)
	assert.Equal(t, "AAPL", list[0].Content)
	assert.Equal(t, models.RoleAssistant, list[1].Role)
	assert.Equal(t, "Strong quarter.", list[1].Content)
	require.NotNil(t, list[1].Data)
	assert.Equal(t, "AAPL", list[1].Data.Symbol)
	assert.Equal(t, "Query cannot be empty.", list[3].Content)
	assert.Nil(t, list[3].Data)

	recent, err := store.List(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, list[2:], recent)
}

func TestRecordCapsEntries(t *testing.T) {
	ctx := context.Background()
	store := NewStore(database.NewMemory())

	for i := 0; i < MaxEntries; i++ {
		require.NoError(t, store.Record(ctx, fmt.Sprintf("Q%d", i), nil, nil))
	}

	list, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, MaxEntries)
	assert.Equal(t, fmt.Sprintf("Q%d", MaxEntries/2), list[0].Content)
	assert.Equal(t, fmt.Sprintf("Q%d", MaxEntries-1), list[MaxEntries-2].Content)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	store := NewStore(database.NewMemory())
	require.NoError(t, store.Record(ctx, "AAPL", nil, nil))
	require.NoError(t, store.Clear(ctx))

	list, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}
