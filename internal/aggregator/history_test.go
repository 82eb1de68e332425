package aggregator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairuzakhdan/smartvowd/internal/domain/model"
)

func TestHistory_DedupesAndOrdersNewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &memHistory{}
	entries := []model.HistoryEntry{
		{ID: "1", TxHash: "0xaaa", Kind: model.HistoryDeposit, Account: account, Timestamp: base},
		{ID: "2", TxHash: "0xbbb", Kind: model.HistorySign, Account: account, Timestamp: base.Add(time.Hour)},
		{ID: "3", TxHash: "0xaaa", Kind: model.HistoryDeposit, Account: account, Timestamp: base.Add(2 * time.Hour)}, // duplicate hash
		{ID: "4", Kind: model.HistoryCreateVow, Account: account, Timestamp: base.Add(3 * time.Hour)},               // no hash, always kept
	}
	for _, e := range entries {
		require.NoError(t, store.AppendHistory(context.Background(), e))
	}

	feed := History(store, account)
	require.Len(t, feed, 3)
	assert.Equal(t, "4", feed[0].ID)
	assert.Equal(t, "2", feed[1].ID)
	assert.Equal(t, "1", feed[2].ID)
}
