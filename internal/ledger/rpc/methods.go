package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

func (c *Client) ChainID(ctx context.Context) (int64, error) {
	result, err := c.call(ctx, "eth_chainId", []interface{}{})
	if err != nil {
		return 0, fmt.Errorf("eth_chainId: %w", err)
	}

	var hexID string
	if err := json.Unmarshal(result, &hexID); err != nil {
		return 0, fmt.Errorf("unmarshal chain id: %w", err)
	}
	return ParseHexInt64(hexID)
}

func (c *Client) BlockNumber(ctx context.Context) (int64, error) {
	result, err := c.call(ctx, "eth_blockNumber", []interface{}{})
	if err != nil {
		return 0, fmt.Errorf("eth_blockNumber: %w", err)
	}

	var hexNum string
	if err := json.Unmarshal(result, &hexNum); err != nil {
		return 0, fmt.Errorf("unmarshal block number: %w", err)
	}
	return ParseHexInt64(hexNum)
}

// Call executes a read-only contract call against the latest block and
// returns the raw hex return data.
func (c *Client) Call(ctx context.Context, msg CallMsg) (string, error) {
	result, err := c.call(ctx, "eth_call", []interface{}{msg, "latest"})
	if err != nil {
		return "", fmt.Errorf("eth_call(%s): %w", msg.To, err)
	}

	var data string
	if err := json.Unmarshal(result, &data); err != nil {
		return "", fmt.Errorf("unmarshal call result: %w", err)
	}
	return data, nil
}

// GetCode returns the deployed bytecode at an address. "0x" means nothing
// is deployed there.
func (c *Client) GetCode(ctx context.Context, address string) (string, error) {
	result, err := c.call(ctx, "eth_getCode", []interface{}{address, "latest"})
	if err != nil {
		return "", fmt.Errorf("eth_getCode(%s): %w", address, err)
	}

	var code string
	if err := json.Unmarshal(result, &code); err != nil {
		return "", fmt.Errorf("unmarshal code: %w", err)
	}
	return code, nil
}

func (c *Client) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	result, err := c.call(ctx, "eth_getBalance", []interface{}{address, "latest"})
	if err != nil {
		return nil, fmt.Errorf("eth_getBalance(%s): %w", address, err)
	}

	var hexBal string
	if err := json.Unmarshal(result, &hexBal); err != nil {
		return nil, fmt.Errorf("unmarshal balance: %w", err)
	}
	return ParseHexBig(hexBal)
}

func (c *Client) GetTransactionReceipt(ctx context.Context, hash string) (*TransactionReceipt, error) {
	result, err := c.call(ctx, "eth_getTransactionReceipt", []interface{}{hash})
	if err != nil {
		return nil, fmt.Errorf("eth_getTransactionReceipt(%s): %w", hash, err)
	}
	if string(result) == "null" {
		return nil, nil
	}

	var receipt TransactionReceipt
	if err := json.Unmarshal(result, &receipt); err != nil {
		return nil, fmt.Errorf("unmarshal transaction receipt: %w", err)
	}
	return &receipt, nil
}

// Accounts lists the accounts the wallet endpoint exposes.
func (c *Client) Accounts(ctx context.Context) ([]string, error) {
	result, err := c.call(ctx, "eth_accounts", []interface{}{})
	if err != nil {
		return nil, fmt.Errorf("eth_accounts: %w", err)
	}

	var accounts []string
	if err := json.Unmarshal(result, &accounts); err != nil {
		return nil, fmt.Errorf("unmarshal accounts: %w", err)
	}
	return accounts, nil
}

// RequestAccounts asks the wallet endpoint for account access.
func (c *Client) RequestAccounts(ctx context.Context) ([]string, error) {
	result, err := c.call(ctx, "eth_requestAccounts", []interface{}{})
	if err != nil {
		return nil, fmt.Errorf("eth_requestAccounts: %w", err)
	}

	var accounts []string
	if err := json.Unmarshal(result, &accounts); err != nil {
		return nil, fmt.Errorf("unmarshal accounts: %w", err)
	}
	return accounts, nil
}

// SendTransaction submits a transaction through the wallet endpoint and
// returns the transaction hash. Submission is not confirmation; callers
// must wait for the receipt.
func (c *Client) SendTransaction(ctx context.Context, tx TxParams) (string, error) {
	result, err := c.call(ctx, "eth_sendTransaction", []interface{}{tx})
	if err != nil {
		return "", fmt.Errorf("eth_sendTransaction: %w", err)
	}

	var hash string
	if err := json.Unmarshal(result, &hash); err != nil {
		return "", fmt.Errorf("unmarshal transaction hash: %w", err)
	}
	return hash, nil
}

// SwitchChain asks the wallet endpoint to switch to the given chain.
func (c *Client) SwitchChain(ctx context.Context, chainID int64) error {
	param := map[string]string{"chainId": FormatHexInt64(chainID)}
	if _, err := c.call(ctx, "wallet_switchEthereumChain", []interface{}{param}); err != nil {
		return fmt.Errorf("wallet_switchEthereumChain(%d): %w", chainID, err)
	}
	return nil
}

// AddChain registers a chain descriptor with the wallet endpoint.
func (c *Client) AddChain(ctx context.Context, desc ChainDescriptor) error {
	if _, err := c.call(ctx, "wallet_addEthereumChain", []interface{}{desc}); err != nil {
		return fmt.Errorf("wallet_addEthereumChain(%s): %w", desc.ChainID, err)
	}
	return nil
}

func ParseHexInt64(value string) (int64, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return 0, fmt.Errorf("empty hex value")
	}
	raw = strings.TrimPrefix(strings.ToLower(raw), "0x")
	if raw == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseUint(raw, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse hex %q: %w", value, err)
	}
	return int64(parsed), nil
}

func ParseHexBig(value string) (*big.Int, error) {
	raw := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(value)), "0x")
	if raw == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(raw, 16)
	if !ok {
		return nil, fmt.Errorf("parse hex %q", value)
	}
	return parsed, nil
}

func FormatHexInt64(value int64) string {
	return fmt.Sprintf("0x%x", value)
}

func FormatHexBig(value *big.Int) string {
	if value == nil || value.Sign() == 0 {
		return "0x0"
	}
	return "0x" + value.Text(16)
}
