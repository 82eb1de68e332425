package aggregator

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairuzakhdan/smartvowd/internal/domain/model"
	"github.com/fairuzakhdan/smartvowd/internal/ledger"
)

const account = "0xaaaa000000000000000000000000000000000001"

type memHistory struct {
	mu      sync.Mutex
	entries []model.HistoryEntry
}

func (m *memHistory) AppendHistory(_ context.Context, e model.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memHistory) History(string) []model.HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.HistoryEntry(nil), m.entries...)
}

type fakeVaultLedger struct {
	personal string
	shared   ledger.SharedVault
	vows     map[int64]*model.Vow
	userVows []int64

	deposits []string
}

func (f *fakeVaultLedger) PersonalBalance(context.Context, string) (string, error) {
	return f.personal, nil
}

func (f *fakeVaultLedger) SharedVaultOf(context.Context, string) (*ledger.SharedVault, error) {
	shared := f.shared
	return &shared, nil
}

func (f *fakeVaultLedger) ReadUserVows(context.Context, string) ([]int64, error) {
	return f.userVows, nil
}

func (f *fakeVaultLedger) ReadVow(_ context.Context, id int64) (*model.Vow, error) {
	return f.vows[id], nil
}

func (f *fakeVaultLedger) DepositPersonal(_ context.Context, _, amountETH string) (string, error) {
	f.deposits = append(f.deposits, amountETH)
	return "0xdeposit", nil
}

func (f *fakeVaultLedger) TransferToShared(context.Context, string, string) (string, error) {
	return "0xtransfer", nil
}

func (f *fakeVaultLedger) WithdrawPersonal(context.Context, string, string) (string, error) {
	return "0xwithdraw", nil
}

func activeVow(id int64, escrow string) *model.Vow {
	return &model.Vow{
		ID:            id,
		PartnerA:      account,
		PartnerB:      "0xbbbb000000000000000000000000000000000002",
		EscrowBalance: escrow,
		Status:        model.VowStatusActive,
		ASigned:       true,
		BSigned:       true,
	}
}

func TestBalances_CombinesReadsAndEscrowScan(t *testing.T) {
	l := &fakeVaultLedger{
		personal: "5000000000000000000",
		shared: ledger.SharedVault{
			Total:               "4000000000000000000",
			Available:           "1000000000000000000",
			MyContribution:      "3000000000000000000",
			PartnerContribution: "1000000000000000000",
		},
		userVows: []int64{1, 2, 3},
		vows: map[int64]*model.Vow{
			1: activeVow(1, "1000000000000000000"),
			2: activeVow(2, "500000000000000000"),
			3: { // pending vows do not lock escrow
				ID:            3,
				PartnerA:      account,
				EscrowBalance: "9000000000000000000",
				Status:        model.VowStatusPendingSignatures,
			},
		},
	}
	v := NewVault(l, &memHistory{}, slog.Default())

	balance, err := v.Balances(context.Background(), account)
	require.NoError(t, err)

	assert.Equal(t, "5000000000000000000", balance.Personal)
	assert.Equal(t, "4000000000000000000", balance.SharedTotal)
	assert.Equal(t, "1500000000000000000", balance.EscrowLocked)
	assert.InDelta(t, 75.0, balance.MySharePercent, 0.001)
	assert.InDelta(t, 25.0, balance.PartnerSharePercent, 0.001)
}

func TestBalances_EmptySharedVault(t *testing.T) {
	l := &fakeVaultLedger{
		personal: "0",
		shared:   ledger.SharedVault{Total: "0", Available: "0", MyContribution: "0", PartnerContribution: "0"},
	}
	v := NewVault(l, &memHistory{}, slog.Default())

	balance, err := v.Balances(context.Background(), account)
	require.NoError(t, err)
	assert.Zero(t, balance.MySharePercent)
	assert.Zero(t, balance.PartnerSharePercent)
	assert.Equal(t, "0", balance.EscrowLocked)
}

func TestDeposit_RecordsHistoryAndRefreshes(t *testing.T) {
	l := &fakeVaultLedger{
		personal: "2000000000000000000",
		shared:   ledger.SharedVault{Total: "0", Available: "0", MyContribution: "0", PartnerContribution: "0"},
	}
	history := &memHistory{}
	v := NewVault(l, history, slog.Default())

	balance, err := v.Deposit(context.Background(), account, "2")
	require.NoError(t, err)
	assert.Equal(t, "2000000000000000000", balance.Personal)
	assert.Equal(t, []string{"2"}, l.deposits)

	require.Len(t, history.entries, 1)
	assert.Equal(t, model.HistoryDeposit, history.entries[0].Kind)
	assert.Equal(t, "0xdeposit", history.entries[0].TxHash)
}

func TestBalances_MalformedEscrowSurfaces(t *testing.T) {
	l := &fakeVaultLedger{
		personal: "0",
		shared:   ledger.SharedVault{Total: "0", Available: "0", MyContribution: "0", PartnerContribution: "0"},
		userVows: []int64{1},
		vows:     map[int64]*model.Vow{1: activeVow(1, "garbage")},
	}
	v := NewVault(l, &memHistory{}, slog.Default())

	_, err := v.Balances(context.Background(), account)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed escrow")
}
