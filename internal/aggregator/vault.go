// Package aggregator derives the display projections that span several
// ledger reads: vault balances, asset lists with off-chain metadata, and the
// certificate negotiation flow.
package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/fairuzakhdan/smartvowd/internal/domain/model"
	"github.com/fairuzakhdan/smartvowd/internal/ledger"
	"github.com/fairuzakhdan/smartvowd/internal/store"
)

// VaultLedger is the gateway slice the vault aggregator reads from.
type VaultLedger interface {
	PersonalBalance(ctx context.Context, account string) (string, error)
	SharedVaultOf(ctx context.Context, account string) (*ledger.SharedVault, error)
	ReadUserVows(ctx context.Context, account string) ([]int64, error)
	ReadVow(ctx context.Context, id int64) (*model.Vow, error)
	DepositPersonal(ctx context.Context, from, amountETH string) (string, error)
	TransferToShared(ctx context.Context, from, amountETH string) (string, error)
	WithdrawPersonal(ctx context.Context, from, amountETH string) (string, error)
}

type Vault struct {
	ledger  VaultLedger
	history store.HistoryRepository
	logger  *slog.Logger
}

func NewVault(l VaultLedger, history store.HistoryRepository, logger *slog.Logger) *Vault {
	return &Vault{ledger: l, history: history, logger: logger.With("component", "vault")}
}

// Balances combines the three vault reads with an escrow scan over the
// account's active agreements. The scan is O(agreements); fine for one
// couple, not built for audit scale.
func (v *Vault) Balances(ctx context.Context, account string) (*model.VaultBalance, error) {
	var (
		personal string
		shared   *ledger.SharedVault
		escrow   *big.Int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		personal, err = v.ledger.PersonalBalance(gctx, account)
		return err
	})
	g.Go(func() error {
		var err error
		shared, err = v.ledger.SharedVaultOf(gctx, account)
		return err
	})
	g.Go(func() error {
		var err error
		escrow, err = v.lockedEscrow(gctx, account)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	balance := &model.VaultBalance{
		Personal:            personal,
		SharedTotal:         shared.Total,
		SharedAvailable:     shared.Available,
		MyContribution:      shared.MyContribution,
		PartnerContribution: shared.PartnerContribution,
		EscrowLocked:        escrow.String(),
	}
	balance.MySharePercent, balance.PartnerSharePercent = contributionSplit(shared)
	return balance, nil
}

// lockedEscrow sums escrow across the account's active agreements.
func (v *Vault) lockedEscrow(ctx context.Context, account string) (*big.Int, error) {
	ids, err := v.ledger.ReadUserVows(ctx, account)
	if err != nil {
		return nil, err
	}

	total := new(big.Int)
	for _, id := range ids {
		vow, err := v.ledger.ReadVow(ctx, id)
		if err != nil {
			return nil, err
		}
		if vow == nil || vow.Status != model.VowStatusActive {
			continue
		}
		locked, ok := new(big.Int).SetString(vow.EscrowBalance, 10)
		if !ok {
			return nil, fmt.Errorf("vow %d: malformed escrow %q", id, vow.EscrowBalance)
		}
		total.Add(total, locked)
	}
	return total, nil
}

// contributionSplit derives the percentage split of the shared vault. Both
// percentages are 0 when the vault is empty.
func contributionSplit(shared *ledger.SharedVault) (mine, partner float64) {
	total, ok := new(big.Float).SetString(shared.Total)
	if !ok || total.Sign() == 0 {
		return 0, 0
	}
	my, ok := new(big.Float).SetString(shared.MyContribution)
	if !ok {
		return 0, 0
	}

	ratio, _ := new(big.Float).Quo(my, total).Float64()
	mine = ratio * 100
	return mine, 100 - mine
}

// Deposit moves wallet funds into the personal vault and returns the
// refreshed balance picture.
func (v *Vault) Deposit(ctx context.Context, account, amountETH string) (*model.VaultBalance, error) {
	return v.mutate(ctx, account, amountETH, model.HistoryDeposit, v.ledger.DepositPersonal)
}

// TransferToShared moves personal vault funds into the shared vault.
func (v *Vault) TransferToShared(ctx context.Context, account, amountETH string) (*model.VaultBalance, error) {
	return v.mutate(ctx, account, amountETH, model.HistoryTransferShared, v.ledger.TransferToShared)
}

// Withdraw moves personal vault funds back to the wallet.
func (v *Vault) Withdraw(ctx context.Context, account, amountETH string) (*model.VaultBalance, error) {
	return v.mutate(ctx, account, amountETH, model.HistoryWithdraw, v.ledger.WithdrawPersonal)
}

func (v *Vault) mutate(ctx context.Context, account, amountETH string, kind model.HistoryKind, write func(context.Context, string, string) (string, error)) (*model.VaultBalance, error) {
	hash, err := write(ctx, account, amountETH)
	if err != nil {
		return nil, err
	}

	recordHistory(ctx, v.history, v.logger, model.HistoryEntry{
		TxHash:  hash,
		Kind:    kind,
		Account: account,
		Amount:  amountETH,
	})
	return v.Balances(ctx, account)
}
