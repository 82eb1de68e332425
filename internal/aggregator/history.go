package aggregator

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/fairuzakhdan/smartvowd/internal/domain/model"
	"github.com/fairuzakhdan/smartvowd/internal/store"
)

// recordHistory appends an activity entry, logging instead of failing: a
// broken local store must not undo a confirmed ledger write.
func recordHistory(ctx context.Context, history store.HistoryRepository, logger *slog.Logger, entry model.HistoryEntry) {
	entry.ID = uuid.NewString()
	entry.Timestamp = time.Now()
	if err := history.AppendHistory(ctx, entry); err != nil {
		logger.Warn("history append failed", "kind", entry.Kind, "tx_hash", entry.TxHash, "error", err)
	}
}

// History assembles the activity feed for an account: locally recorded
// entries de-duplicated by transaction hash, newest first.
func History(history store.HistoryRepository, account string) []model.HistoryEntry {
	entries := history.History(account)

	seen := map[string]bool{}
	out := make([]model.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if e.TxHash != "" && seen[e.TxHash] {
			continue
		}
		if e.TxHash != "" {
			seen[e.TxHash] = true
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}
