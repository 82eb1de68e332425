package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/fairuzakhdan/smartvowd/internal/domain/model"
	"github.com/fairuzakhdan/smartvowd/internal/ledger/abi"
	"github.com/fairuzakhdan/smartvowd/internal/ledger/amount"
	"github.com/fairuzakhdan/smartvowd/internal/ledger/rpc"
)

// Vow contract method signatures. The contract is external; these mirror
// its fixed ABI and must not drift from the deployed artifact.
const (
	sigGetVow         = "getVow(uint256)"
	sigGetConditions  = "getConditions(uint256)"
	sigGetUserVows    = "getUserVows(address)"
	sigCreateAndLock  = "createAndLock(address,string,string[],uint256[])"
	sigSignVow        = "signVow(uint256)"
	sigSignActivate   = "signAndActivate(uint256)"
	sigDeposit        = "depositPersonal()"
	sigTransferShared = "transferToShared(uint256)"
	sigWithdraw       = "withdrawPersonal(uint256)"
	sigPersonalOf     = "personalBalanceOf(address)"
	sigSharedVaultOf  = "sharedVaultOf(address)"
	sigSubmitClaim    = "submitClaim(uint256,uint256)"
	sigSubmitAIClaim  = "submitAIClaim(uint256,string,string,uint256)"
	sigHasClaim       = "hasClaim(uint256)"
)

var vowCreatedTopic = abi.EventTopic("VowCreated(uint256,address,address)")

// ReadVow fetches one agreement's ledger state. Returns nil when the id is
// unknown to the contract (partner addresses both zero).
func (g *Gateway) ReadVow(ctx context.Context, id int64) (*model.Vow, error) {
	data, err := abi.EncodeCall(sigGetVow, abi.Uint64(uint64(id)))
	if err != nil {
		return nil, err
	}
	d, err := g.read(ctx, g.addrs.Vow, data)
	if err != nil {
		return nil, fmt.Errorf("read vow %d: %w", id, err)
	}
	return decodeVow(id, d)
}

func decodeVow(id int64, d *abi.Decoder) (*model.Vow, error) {
	partnerA, err := d.Address(0)
	if err != nil {
		return nil, fmt.Errorf("decode vow: %w", err)
	}
	partnerB, err := d.Address(1)
	if err != nil {
		return nil, fmt.Errorf("decode vow: %w", err)
	}
	if isZeroAddress(partnerA) && isZeroAddress(partnerB) {
		return nil, nil
	}

	escrow, err := d.BigInt(2)
	if err != nil {
		return nil, fmt.Errorf("decode vow: %w", err)
	}
	pending, err := d.BigInt(3)
	if err != nil {
		return nil, fmt.Errorf("decode vow: %w", err)
	}
	statusCode, err := d.Uint8(4)
	if err != nil {
		return nil, fmt.Errorf("decode vow: %w", err)
	}
	createdAt, err := d.Int64(5)
	if err != nil {
		return nil, fmt.Errorf("decode vow: %w", err)
	}
	activatedAt, err := d.Int64(6)
	if err != nil {
		return nil, fmt.Errorf("decode vow: %w", err)
	}
	aSigned, err := d.Bool(7)
	if err != nil {
		return nil, fmt.Errorf("decode vow: %w", err)
	}
	bSigned, err := d.Bool(8)
	if err != nil {
		return nil, fmt.Errorf("decode vow: %w", err)
	}
	metadataURI, err := d.String(9)
	if err != nil {
		return nil, fmt.Errorf("decode vow: %w", err)
	}

	return &model.Vow{
		ID:            id,
		PartnerA:      partnerA,
		PartnerB:      partnerB,
		EscrowBalance: escrow.String(),
		PendingEscrow: pending.String(),
		Status:        model.VowStatusFromCode(statusCode),
		CreatedAt:     createdAt,
		ActivatedAt:   activatedAt,
		ASigned:       aSigned,
		BSigned:       bSigned,
		MetadataURI:   metadataURI,
	}, nil
}

// ReadConditions fetches the on-chain clause projections of a vow: encoded
// description strings and penalties in basis points.
func (g *Gateway) ReadConditions(ctx context.Context, id int64) ([]model.Clause, error) {
	data, err := abi.EncodeCall(sigGetConditions, abi.Uint64(uint64(id)))
	if err != nil {
		return nil, err
	}
	d, err := g.read(ctx, g.addrs.Vow, data)
	if err != nil {
		return nil, fmt.Errorf("read conditions %d: %w", id, err)
	}

	descriptions, err := d.StringSliceAt(0)
	if err != nil {
		return nil, fmt.Errorf("decode conditions: %w", err)
	}
	penalties, err := d.BigIntSlice(1)
	if err != nil {
		return nil, fmt.Errorf("decode conditions: %w", err)
	}
	if len(descriptions) != len(penalties) {
		return nil, fmt.Errorf("conditions length mismatch: %d descriptions, %d penalties", len(descriptions), len(penalties))
	}

	clauses := make([]model.Clause, len(descriptions))
	for i := range descriptions {
		clauses[i] = model.Clause{
			Description:    descriptions[i],
			PenaltyPercent: int(penalties[i].Int64() / 100), // basis points on chain
		}
	}
	return clauses, nil
}

// ReadUserVows lists the vow ids an address participates in.
func (g *Gateway) ReadUserVows(ctx context.Context, account string) ([]int64, error) {
	data, err := abi.EncodeCall(sigGetUserVows, abi.Address(account))
	if err != nil {
		return nil, err
	}
	d, err := g.read(ctx, g.addrs.Vow, data)
	if err != nil {
		return nil, fmt.Errorf("read user vows: %w", err)
	}

	raw, err := d.BigIntSlice(0)
	if err != nil {
		return nil, fmt.Errorf("decode user vows: %w", err)
	}
	ids := make([]int64, len(raw))
	for i, v := range raw {
		ids[i] = v.Int64()
	}
	return ids, nil
}

// HasClaim reports whether a claim has already been settled against a vow.
// Callers must check this fresh from the ledger immediately before offering
// a claim action; the cached flag can be stale.
func (g *Gateway) HasClaim(ctx context.Context, id int64) (bool, error) {
	data, err := abi.EncodeCall(sigHasClaim, abi.Uint64(uint64(id)))
	if err != nil {
		return false, err
	}
	d, err := g.read(ctx, g.addrs.Vow, data)
	if err != nil {
		return false, fmt.Errorf("read claim flag %d: %w", id, err)
	}
	return d.Bool(0)
}

// CreateResult is the confirmed outcome of CreateAndLock.
type CreateResult struct {
	VowID  int64
	TxHash string
}

// CreateAndLock creates a vow and locks the escrow in one ledger
// transaction; the contract guarantees both happen or neither does.
// escrowETH is a decimal-ETH string, converted to base units here.
func (g *Gateway) CreateAndLock(ctx context.Context, from, partnerB, metadataURI string, clauses []model.Clause, escrowETH string) (*CreateResult, error) {
	escrow, err := amount.ToBase(escrowETH)
	if err != nil {
		return nil, fmt.Errorf("create and lock: %w", err)
	}

	descriptions := make([]string, len(clauses))
	penalties := make([]*big.Int, len(clauses))
	for i, c := range clauses {
		descriptions[i] = c.Description
		penalties[i] = big.NewInt(int64(c.PenaltyPercent) * 100) // percent -> basis points
	}

	data, err := abi.EncodeCall(sigCreateAndLock,
		abi.Address(partnerB),
		abi.String(metadataURI),
		abi.StringSlice(descriptions),
		abi.Uint256Slice(penalties),
	)
	if err != nil {
		return nil, err
	}

	receipt, err := g.submitAndWait(ctx, "create_and_lock", rpc.TxParams{
		From:  from,
		To:    g.addrs.Vow,
		Value: rpc.FormatHexBig(escrow),
		Data:  data,
	})
	if err != nil {
		return nil, err
	}

	vowID, err := vowIDFromReceipt(receipt)
	if err != nil {
		return nil, fmt.Errorf("create and lock confirmed but id not decodable: %w", err)
	}
	return &CreateResult{VowID: vowID, TxHash: receipt.TransactionHash}, nil
}

func vowIDFromReceipt(receipt *rpc.TransactionReceipt) (int64, error) {
	for _, log := range receipt.Logs {
		if len(log.Topics) >= 2 && log.Topics[0] == vowCreatedTopic {
			return abi.TopicInt64(log.Topics[1])
		}
	}
	return 0, fmt.Errorf("no VowCreated event in receipt %s", receipt.TransactionHash)
}

// Sign signs a vow as the calling partner.
func (g *Gateway) Sign(ctx context.Context, from string, id int64) (string, error) {
	return g.simpleVowWrite(ctx, "sign", sigSignVow, from, id)
}

// SignAndActivate signs as partner B and activates in one transaction.
// The matching escrow is sourced from the shared vault, not the caller's
// wallet balance, so no value is attached.
func (g *Gateway) SignAndActivate(ctx context.Context, from string, id int64) (string, error) {
	return g.simpleVowWrite(ctx, "sign_and_activate", sigSignActivate, from, id)
}

func (g *Gateway) simpleVowWrite(ctx context.Context, op, sig, from string, id int64) (string, error) {
	data, err := abi.EncodeCall(sig, abi.Uint64(uint64(id)))
	if err != nil {
		return "", err
	}
	receipt, err := g.submitAndWait(ctx, op, rpc.TxParams{From: from, To: g.addrs.Vow, Data: data})
	if err != nil {
		return "", err
	}
	return receipt.TransactionHash, nil
}

// DepositPersonal moves wallet funds into the caller's personal vault.
func (g *Gateway) DepositPersonal(ctx context.Context, from, amountETH string) (string, error) {
	value, err := amount.ToBase(amountETH)
	if err != nil {
		return "", fmt.Errorf("deposit: %w", err)
	}
	data, err := abi.EncodeCall(sigDeposit)
	if err != nil {
		return "", err
	}
	receipt, err := g.submitAndWait(ctx, "deposit_personal", rpc.TxParams{
		From:  from,
		To:    g.addrs.Vow,
		Value: rpc.FormatHexBig(value),
		Data:  data,
	})
	if err != nil {
		return "", err
	}
	return receipt.TransactionHash, nil
}

// TransferToShared moves personal vault funds into the shared vault.
func (g *Gateway) TransferToShared(ctx context.Context, from, amountETH string) (string, error) {
	return g.vaultAmountWrite(ctx, "transfer_to_shared", sigTransferShared, from, amountETH)
}

// WithdrawPersonal moves personal vault funds back to the wallet.
func (g *Gateway) WithdrawPersonal(ctx context.Context, from, amountETH string) (string, error) {
	return g.vaultAmountWrite(ctx, "withdraw_personal", sigWithdraw, from, amountETH)
}

func (g *Gateway) vaultAmountWrite(ctx context.Context, op, sig, from, amountETH string) (string, error) {
	value, err := amount.ToBase(amountETH)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	data, err := abi.EncodeCall(sig, abi.Uint256(value))
	if err != nil {
		return "", err
	}
	receipt, err := g.submitAndWait(ctx, op, rpc.TxParams{From: from, To: g.addrs.Vow, Data: data})
	if err != nil {
		return "", err
	}
	return receipt.TransactionHash, nil
}

// PersonalBalance returns the caller's personal vault balance in base units.
func (g *Gateway) PersonalBalance(ctx context.Context, account string) (string, error) {
	data, err := abi.EncodeCall(sigPersonalOf, abi.Address(account))
	if err != nil {
		return "", err
	}
	d, err := g.read(ctx, g.addrs.Vow, data)
	if err != nil {
		return "", fmt.Errorf("read personal balance: %w", err)
	}
	v, err := d.BigInt(0)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// SharedVault holds the shared-vault reads for one account, base units.
type SharedVault struct {
	Total               string
	Available           string
	MyContribution      string
	PartnerContribution string
}

// SharedVaultOf returns the shared vault picture for an account.
func (g *Gateway) SharedVaultOf(ctx context.Context, account string) (*SharedVault, error) {
	data, err := abi.EncodeCall(sigSharedVaultOf, abi.Address(account))
	if err != nil {
		return nil, err
	}
	d, err := g.read(ctx, g.addrs.Vow, data)
	if err != nil {
		return nil, fmt.Errorf("read shared vault: %w", err)
	}

	words := make([]*big.Int, 4)
	for i := range words {
		if words[i], err = d.BigInt(i); err != nil {
			return nil, fmt.Errorf("decode shared vault: %w", err)
		}
	}
	return &SharedVault{
		Total:               words[0].String(),
		Available:           words[1].String(),
		MyContribution:      words[2].String(),
		PartnerContribution: words[3].String(),
	}, nil
}

// SubmitInternalClaim triggers a clause penalty; the split is enacted by
// the contract from the vow's escrow.
func (g *Gateway) SubmitInternalClaim(ctx context.Context, from string, id int64, penaltyPercent int) (string, error) {
	data, err := abi.EncodeCall(sigSubmitClaim,
		abi.Uint64(uint64(id)),
		abi.Uint64(uint64(penaltyPercent)*100), // percent -> basis points
	)
	if err != nil {
		return "", err
	}
	receipt, err := g.submitAndWait(ctx, "submit_claim", rpc.TxParams{From: from, To: g.addrs.Vow, Data: data})
	if err != nil {
		return "", err
	}
	return receipt.TransactionHash, nil
}

// SubmitAIClaim records a claim whose verdict comes from the third-party
// verification path; reason and evidence travel on chain.
func (g *Gateway) SubmitAIClaim(ctx context.Context, from string, id int64, reason, evidence string, timestamp int64) (string, error) {
	data, err := abi.EncodeCall(sigSubmitAIClaim,
		abi.Uint64(uint64(id)),
		abi.String(reason),
		abi.String(evidence),
		abi.Uint64(uint64(timestamp)),
	)
	if err != nil {
		return "", err
	}
	receipt, err := g.submitAndWait(ctx, "submit_ai_claim", rpc.TxParams{From: from, To: g.addrs.Vow, Data: data})
	if err != nil {
		return "", err
	}
	return receipt.TransactionHash, nil
}

func isZeroAddress(addr string) bool {
	if addr == "" {
		return true
	}
	for _, r := range addr[2:] {
		if r != '0' {
			return false
		}
	}
	return true
}
