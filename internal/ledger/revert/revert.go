// Package revert turns raw ledger and wallet errors into typed codes the
// API layer can branch on, replacing ad-hoc substring checks at call sites.
// Unmatched reverts keep their raw message under CodeUnknownRevert.
package revert

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/fairuzakhdan/smartvowd/internal/ledger/rpc"
)

type Code string

const (
	CodeInsufficientBalance Code = "insufficient_balance"
	CodeAlreadySigned       Code = "already_signed"
	CodeInvalidStatus       Code = "invalid_status"
	CodeWrongPartner        Code = "wrong_partner"
	CodeAlreadyClaimed      Code = "already_claimed"
	CodeUserRejected        Code = "user_rejected"
	CodeWalletUnavailable   Code = "wallet_unavailable"
	CodeWrongChain          Code = "wrong_chain"
	CodeNotDeployed         Code = "contract_not_deployed"
	CodeUnknownRevert       Code = "unknown_revert"
	CodeTransport           Code = "transport"
)

// EIP-1193 provider error codes surfaced by the wallet endpoint.
const (
	walletCodeUserRejected      = 4001
	walletCodeUnrecognizedChain = 4902
)

// errorStringSelector is the 4-byte selector of Error(string), the standard
// revert-reason wrapper in EVM revert data.
const errorStringSelector = "08c379a0"

// Error is a classified ledger failure. It wraps the original error so
// errors.Is/As chains keep working.
type Error struct {
	Code    Code
	Reason  string // decoded revert reason, when one was recoverable
	wrapped error
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.wrapped)
}

func (e *Error) Unwrap() error {
	return e.wrapped
}

// Friendly returns the short user-facing message for the code.
func (e *Error) Friendly() string {
	switch e.Code {
	case CodeInsufficientBalance:
		return "Insufficient balance for this operation"
	case CodeAlreadySigned:
		return "You have already signed this agreement"
	case CodeInvalidStatus:
		return "The agreement is not in a state that allows this action"
	case CodeWrongPartner:
		return "This wallet is not a partner of the agreement"
	case CodeAlreadyClaimed:
		return "A claim has already been settled for this agreement"
	case CodeUserRejected:
		return "The request was rejected in the wallet"
	case CodeWalletUnavailable:
		return "Wallet is not reachable"
	case CodeWrongChain:
		return "Wallet is connected to the wrong network"
	case CodeNotDeployed:
		return "Contract is not deployed at the configured address"
	default:
		if e.Reason != "" {
			return e.Reason
		}
		return "Transaction failed"
	}
}

// NotDeployed builds the preflight failure for a bare contract address.
func NotDeployed(address string) *Error {
	return &Error{
		Code:    CodeNotDeployed,
		Reason:  fmt.Sprintf("no bytecode at %s", address),
		wrapped: fmt.Errorf("no bytecode at %s", address),
	}
}

// WrongChain builds the preflight failure for a chain-id mismatch.
func WrongChain(want, got int64) *Error {
	return &Error{
		Code:    CodeWrongChain,
		Reason:  fmt.Sprintf("expected chain %d, wallet reports %d", want, got),
		wrapped: fmt.Errorf("expected chain %d, got %d", want, got),
	}
}

// Classify maps a raw error from the RPC or wallet boundary to a typed
// *Error. A nil input returns nil. Already-classified errors pass through.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var already *Error
	if errors.As(err, &already) {
		return already
	}

	var rpcErr *rpc.RPCError
	if errors.As(err, &rpcErr) {
		switch rpcErr.Code {
		case walletCodeUserRejected:
			return &Error{Code: CodeUserRejected, wrapped: err}
		case walletCodeUnrecognizedChain:
			return &Error{Code: CodeWrongChain, wrapped: err}
		}

		reason := decodeReason(rpcErr)
		return &Error{Code: codeForReason(reason), Reason: reason, wrapped: err}
	}

	return &Error{Code: CodeTransport, wrapped: err}
}

// decodeReason recovers the Error(string) revert reason from RPC error
// data when present, falling back to the error message itself.
func decodeReason(rpcErr *rpc.RPCError) string {
	data := strings.Trim(string(rpcErr.Data), `"`)
	data = strings.TrimPrefix(data, "0x")
	if strings.HasPrefix(data, errorStringSelector) {
		if reason, ok := decodeErrorString(data[len(errorStringSelector):]); ok {
			return reason
		}
	}

	msg := rpcErr.Message
	if i := strings.Index(msg, "execution reverted:"); i >= 0 {
		return strings.TrimSpace(msg[i+len("execution reverted:"):])
	}
	return msg
}

// decodeErrorString decodes the ABI-encoded (offset, length, bytes) payload
// of Error(string).
func decodeErrorString(hexPayload string) (string, bool) {
	raw, err := hex.DecodeString(hexPayload)
	if err != nil || len(raw) < 64 {
		return "", false
	}
	// Word 0 is the offset (always 0x20 here), word 1 the length.
	length := 0
	for _, b := range raw[32:64] {
		length = length<<8 | int(b)
		if length > len(raw) {
			return "", false
		}
	}
	if 64+length > len(raw) {
		return "", false
	}
	return string(raw[64 : 64+length]), true
}

func codeForReason(reason string) Code {
	lower := strings.ToLower(reason)
	switch {
	case containsAny(lower, []string{"insufficient balance", "insufficient funds", "insufficient escrow"}):
		return CodeInsufficientBalance
	case containsAny(lower, []string{"already signed"}):
		return CodeAlreadySigned
	case containsAny(lower, []string{"invalid status", "wrong status", "not active", "not pending"}):
		return CodeInvalidStatus
	case containsAny(lower, []string{"not a partner", "wrong partner", "only partner"}):
		return CodeWrongPartner
	case containsAny(lower, []string{"already claimed", "claim settled"}):
		return CodeAlreadyClaimed
	default:
		return CodeUnknownRevert
	}
}

func containsAny(msg string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(msg, token) {
			return true
		}
	}
	return false
}
