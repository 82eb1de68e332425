package model

// VerificationMethod selects how a breach claim against a clause is judged.
type VerificationMethod string

const (
	VerificationInternal VerificationMethod = "internal"
	VerificationAI       VerificationMethod = "ai"
)

// DistributionMode selects how a linked asset NFT is handled on breach.
type DistributionMode string

const (
	DistributionFullTransfer DistributionMode = "full_transfer"
	DistributionSellAndSplit DistributionMode = "sell_and_split"
)

// Clause is one penalty-bearing term of an agreement. On chain it exists
// only as an encoded description string plus a penalty in basis points; the
// structured form lives in the local store.
type Clause struct {
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	PenaltyPercent int              `json:"penaltyPercent"`
	LinkedAssetID  *int64           `json:"linkedAssetId,omitempty"`
	Distribution   DistributionMode `json:"distribution,omitempty"`
}

// AgreementEnrichment carries the locally cached fields the ledger does not
// expose cheaply: clause text, category tags, verification choice, and the
// transaction hash of creation. Best effort only; the ledger is authoritative.
type AgreementEnrichment struct {
	VowID        int64              `json:"vowId"`
	Clauses      []Clause           `json:"clauses"`
	Verification VerificationMethod `json:"verification"`
	Categories   []string           `json:"categories"`
	CreateTxHash string             `json:"createTxHash"`
}
