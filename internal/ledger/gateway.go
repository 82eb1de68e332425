// Package ledger is the single choke point for reads and writes against
// the three SmartVow contracts. It owns the decimal/base-unit conversion
// boundary and never reports a write as successful before its receipt is
// confirmed.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/fairuzakhdan/smartvowd/internal/ledger/abi"
	"github.com/fairuzakhdan/smartvowd/internal/ledger/revert"
	"github.com/fairuzakhdan/smartvowd/internal/ledger/rpc"
	"github.com/fairuzakhdan/smartvowd/internal/metrics"
)

// NodeClient is the read side of the ledger boundary.
type NodeClient interface {
	ChainID(ctx context.Context) (int64, error)
	BlockNumber(ctx context.Context) (int64, error)
	Call(ctx context.Context, msg rpc.CallMsg) (string, error)
	GetCode(ctx context.Context, address string) (string, error)
	GetBalance(ctx context.Context, address string) (*big.Int, error)
	GetTransactionReceipt(ctx context.Context, hash string) (*rpc.TransactionReceipt, error)
}

// TxSender submits signed transactions; in practice the wallet provider.
type TxSender interface {
	SendTransaction(ctx context.Context, tx rpc.TxParams) (string, error)
}

type Addresses struct {
	Vow         string
	Certificate string
	Asset       string
}

type Gateway struct {
	node         NodeClient
	sender       TxSender
	addrs        Addresses
	chainID      int64
	pollInterval time.Duration
	waitTimeout  time.Duration
	logger       *slog.Logger
}

func NewGateway(node NodeClient, sender TxSender, addrs Addresses, chainID int64, pollInterval, waitTimeout time.Duration, logger *slog.Logger) *Gateway {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if waitTimeout <= 0 {
		waitTimeout = 3 * time.Minute
	}
	return &Gateway{
		node:         node,
		sender:       sender,
		addrs:        addrs,
		chainID:      chainID,
		pollInterval: pollInterval,
		waitTimeout:  waitTimeout,
		logger:       logger.With("component", "ledger"),
	}
}

// Preflight verifies the node is on the configured chain and that every
// configured contract address actually holds bytecode. Run once before the
// gateway is handed to anything else.
func (g *Gateway) Preflight(ctx context.Context) error {
	chainID, err := g.node.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("preflight chain id: %w", err)
	}
	if chainID != g.chainID {
		return revert.WrongChain(g.chainID, chainID)
	}

	for _, addr := range []string{g.addrs.Vow, g.addrs.Certificate, g.addrs.Asset} {
		if addr == "" {
			continue
		}
		code, err := g.node.GetCode(ctx, addr)
		if err != nil {
			return fmt.Errorf("preflight code at %s: %w", addr, err)
		}
		if isEmptyCode(code) {
			return revert.NotDeployed(addr)
		}
	}

	head, err := g.node.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("preflight head block: %w", err)
	}

	g.logger.Info("contract preflight passed", "chain_id", chainID, "head_block", head)
	return nil
}

func isEmptyCode(code string) bool {
	trimmed := strings.TrimPrefix(strings.TrimSpace(code), "0x")
	return strings.Trim(trimmed, "0") == ""
}

// WalletBalance returns the native balance of an account in base units.
func (g *Gateway) WalletBalance(ctx context.Context, account string) (string, error) {
	bal, err := g.node.GetBalance(ctx, account)
	if err != nil {
		return "", revert.Classify(err)
	}
	return bal.String(), nil
}

// submitAndWait sends a transaction and polls for its receipt. It returns
// only after the ledger confirms the transaction, successful or reverted.
func (g *Gateway) submitAndWait(ctx context.Context, op string, tx rpc.TxParams) (*rpc.TransactionReceipt, error) {
	metrics.WritesSubmitted.WithLabelValues(op).Inc()

	hash, err := g.sender.SendTransaction(ctx, tx)
	if err != nil {
		metrics.WritesConfirmed.WithLabelValues(op, "submit_failed").Inc()
		return nil, revert.Classify(fmt.Errorf("%s: %w", op, err))
	}

	g.logger.Info("transaction submitted", "operation", op, "tx_hash", hash)
	start := time.Now()

	waitCtx, cancel := context.WithTimeout(ctx, g.waitTimeout)
	defer cancel()

	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := g.node.GetTransactionReceipt(waitCtx, hash)
		if err != nil {
			metrics.WritesConfirmed.WithLabelValues(op, "receipt_error").Inc()
			return nil, revert.Classify(fmt.Errorf("%s: wait receipt %s: %w", op, hash, err))
		}
		if receipt != nil {
			metrics.ReceiptWaitSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
			if !receipt.Succeeded() {
				metrics.WritesConfirmed.WithLabelValues(op, "reverted").Inc()
				g.logger.Warn("transaction reverted", "operation", op, "tx_hash", hash)
				return nil, revert.Classify(&rpc.RPCError{Code: 3, Message: fmt.Sprintf("execution reverted: %s transaction %s", op, hash)})
			}
			metrics.WritesConfirmed.WithLabelValues(op, "confirmed").Inc()
			g.logger.Info("transaction confirmed", "operation", op, "tx_hash", hash, "wait", time.Since(start))
			return receipt, nil
		}

		select {
		case <-waitCtx.Done():
			metrics.WritesConfirmed.WithLabelValues(op, "timeout").Inc()
			return nil, fmt.Errorf("%s: transaction %s not confirmed within %s: %w", op, hash, g.waitTimeout, waitCtx.Err())
		case <-ticker.C:
		}
	}
}

// read executes an eth_call against a contract and returns a decoder over
// the return data.
func (g *Gateway) read(ctx context.Context, contract, data string) (*abi.Decoder, error) {
	out, err := g.node.Call(ctx, rpc.CallMsg{To: contract, Data: data})
	if err != nil {
		return nil, revert.Classify(err)
	}
	return abi.NewDecoder(out)
}
