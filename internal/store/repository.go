// Package store defines the persistence boundary for device-local state:
// everything SmartVow keeps off chain. Consumers depend on these interfaces
// and receive a concrete store through construction.
package store

import (
	"context"

	"github.com/fairuzakhdan/smartvowd/internal/domain/model"
)

// EnrichmentRepository holds the off-chain clause enrichments keyed by vow id.
// The ledger only carries clause descriptions and penalties; titles, linked
// assets, distribution modes and AI categories live here.
type EnrichmentRepository interface {
	SaveEnrichment(ctx context.Context, e model.AgreementEnrichment) error
	Enrichment(vowID int64) (model.AgreementEnrichment, bool)
}

// CertificateRepository holds certificate negotiation state. The flow spans
// several steps before anything reaches the ledger, so drafts live locally
// until the mint confirms.
type CertificateRepository interface {
	SaveCertificate(ctx context.Context, c model.Certificate) error
	Certificate(id string) (model.Certificate, bool)
	Certificates() []model.Certificate
}

// ClaimRepository keeps submitted claims for transparency. The payout is
// enacted by the ledger write; these records are best-effort documentation
// and do not survive a state reset.
type ClaimRepository interface {
	SaveClaim(ctx context.Context, c model.Claim) error
	Claims(vowID int64) []model.Claim
}

// HistoryRepository records locally-observed activity so the history view
// can show operations whose receipts are no longer cheap to enumerate.
type HistoryRepository interface {
	AppendHistory(ctx context.Context, entry model.HistoryEntry) error
	History(account string) []model.HistoryEntry
}

// Repository is the full local store surface.
type Repository interface {
	EnrichmentRepository
	CertificateRepository
	ClaimRepository
	HistoryRepository

	// Version is the monotonic revision of the local state, bumped on every
	// committed mutation.
	Version() int64
}
