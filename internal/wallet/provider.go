// Package wallet manages the connection to the wallet RPC endpoint: account
// access, chain alignment, and detection of account switches. It is handed to
// consumers as an explicit dependency rather than reached through a global.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fairuzakhdan/smartvowd/internal/domain/model"
	"github.com/fairuzakhdan/smartvowd/internal/ledger/revert"
	"github.com/fairuzakhdan/smartvowd/internal/ledger/rpc"
)

// ErrNotConnected is returned by calls that need an active account before
// Connect has succeeded, or after the wallet dropped all accounts.
var ErrNotConnected = errors.New("wallet: not connected")

// Client is the subset of the wallet RPC surface the provider depends on.
type Client interface {
	Accounts(ctx context.Context) ([]string, error)
	RequestAccounts(ctx context.Context) ([]string, error)
	ChainID(ctx context.Context) (int64, error)
	SwitchChain(ctx context.Context, chainID int64) error
	AddChain(ctx context.Context, desc rpc.ChainDescriptor) error
	SendTransaction(ctx context.Context, tx rpc.TxParams) (string, error)
}

// ChangeHandler is invoked from the watch loop when the active account
// changes. An empty account means the wallet disconnected.
type ChangeHandler func(account string)

type Provider struct {
	client       Client
	chain        rpc.ChainDescriptor
	chainID      int64
	pollInterval time.Duration
	logger       *slog.Logger

	mu      sync.RWMutex
	account string

	onChange ChangeHandler
}

type Option func(*Provider)

// WithPollInterval overrides how often the watch loop checks for account
// changes.
func WithPollInterval(d time.Duration) Option {
	return func(p *Provider) { p.pollInterval = d }
}

// WithChangeHandler registers the callback fired on account switches and
// disconnects.
func WithChangeHandler(h ChangeHandler) Option {
	return func(p *Provider) { p.onChange = h }
}

func NewProvider(client Client, chain rpc.ChainDescriptor, chainID int64, logger *slog.Logger, opts ...Option) *Provider {
	p := &Provider{
		client:       client,
		chain:        chain,
		chainID:      chainID,
		pollInterval: 3 * time.Second,
		logger:       logger.With("component", "wallet"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Connect requests account access and aligns the wallet with the configured
// chain. It is safe to call again after a disconnect.
func (p *Provider) Connect(ctx context.Context) (string, error) {
	accounts, err := p.client.RequestAccounts(ctx)
	if err != nil {
		return "", revert.Classify(fmt.Errorf("request accounts: %w", err))
	}
	if len(accounts) == 0 {
		return "", ErrNotConnected
	}

	if err := p.ensureChain(ctx); err != nil {
		return "", err
	}

	account := model.NormalizeAddress(accounts[0])
	p.setAccount(account)
	p.logger.Info("wallet connected", "account", account)
	return account, nil
}

// ensureChain switches the wallet to the configured chain, registering the
// chain descriptor first when the wallet does not know it (code 4902).
func (p *Provider) ensureChain(ctx context.Context) error {
	current, err := p.client.ChainID(ctx)
	if err != nil {
		return revert.Classify(fmt.Errorf("wallet chain id: %w", err))
	}
	if current == p.chainID {
		return nil
	}

	err = p.client.SwitchChain(ctx, p.chainID)
	if err == nil {
		p.logger.Info("wallet switched chain", "chain_id", p.chainID)
		return nil
	}

	classified := revert.Classify(err)
	if classified.Code != revert.CodeWrongChain {
		return classified
	}

	if err := p.client.AddChain(ctx, p.chain); err != nil {
		return revert.Classify(fmt.Errorf("add chain: %w", err))
	}
	if err := p.client.SwitchChain(ctx, p.chainID); err != nil {
		return revert.Classify(fmt.Errorf("switch after add: %w", err))
	}
	p.logger.Info("wallet registered and switched chain", "chain_id", p.chainID)
	return nil
}

// Account returns the active account, or ErrNotConnected.
func (p *Provider) Account() (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.account == "" {
		return "", ErrNotConnected
	}
	return p.account, nil
}

// Connected reports whether an account is active.
func (p *Provider) Connected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.account != ""
}

// SendTransaction submits through the wallet endpoint. The provider only
// forwards; confirmation is the ledger gateway's job.
func (p *Provider) SendTransaction(ctx context.Context, tx rpc.TxParams) (string, error) {
	if !p.Connected() {
		return "", ErrNotConnected
	}
	return p.client.SendTransaction(ctx, tx)
}

// Watch polls the wallet for account changes until the context ends. Run it
// in its own goroutine; change notifications go through the registered
// handler.
func (p *Provider) Watch(ctx context.Context) error {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Provider) poll(ctx context.Context) {
	accounts, err := p.client.Accounts(ctx)
	if err != nil {
		p.logger.Warn("account poll failed", "error", err)
		return
	}

	next := ""
	if len(accounts) > 0 {
		next = model.NormalizeAddress(accounts[0])
	}

	p.mu.Lock()
	prev := p.account
	if next == prev {
		p.mu.Unlock()
		return
	}
	p.account = next
	p.mu.Unlock()

	if next == "" {
		p.logger.Info("wallet disconnected", "previous", prev)
	} else {
		p.logger.Info("wallet account changed", "previous", prev, "account", next)
	}
	if p.onChange != nil {
		p.onChange(next)
	}
}

func (p *Provider) setAccount(account string) {
	p.mu.Lock()
	p.account = strings.ToLower(account)
	p.mu.Unlock()
}
