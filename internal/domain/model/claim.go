package model

import "time"

// Claim documents a breach claim submitted against a vow. The payout itself
// is enacted by the ledger; this record is best-effort transparency kept in
// the local store, with no durability guarantee across devices.
type Claim struct {
	ID                string             `json:"id"`
	VowID             int64              `json:"vowId"`
	Claimant          string             `json:"claimant"`
	Reason            string             `json:"reason"`
	Evidence          string             `json:"evidence,omitempty"`
	PenaltyPercent    int                `json:"penaltyPercent"`
	ClaimantShare     string             `json:"claimantShare"`
	CounterpartyShare string             `json:"counterpartyShare"`
	Verification      VerificationMethod `json:"verification"`
	TxHash            string             `json:"txHash"`
	CreatedAt         time.Time          `json:"createdAt"`
}
