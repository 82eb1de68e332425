package model

import "time"

// HistoryKind labels one entry in the per-account activity feed.
type HistoryKind string

const (
	HistoryCreateVow       HistoryKind = "create_vow"
	HistorySign            HistoryKind = "sign"
	HistoryActivate        HistoryKind = "activate"
	HistoryDeposit         HistoryKind = "deposit"
	HistoryTransferShared  HistoryKind = "transfer_shared"
	HistoryWithdraw        HistoryKind = "withdraw"
	HistoryClaim           HistoryKind = "claim"
	HistoryMintCertificate HistoryKind = "mint_certificate"
	HistoryMintAsset       HistoryKind = "mint_asset"
)

// HistoryEntry is one row of the activity feed, assembled from confirmed
// ledger receipts merged with locally recorded context. De-duplicated by
// transaction hash.
type HistoryEntry struct {
	ID           string      `json:"id"`
	TxHash       string      `json:"txHash"`
	Kind         HistoryKind `json:"kind"`
	Account      string      `json:"account"`
	Counterparty string      `json:"counterparty,omitempty"`
	Amount       string      `json:"amount,omitempty"`
	VowID        *int64      `json:"vowId,omitempty"`
	Timestamp    time.Time   `json:"timestamp"`
}
