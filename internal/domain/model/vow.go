package model

// VowStatus mirrors the status enumeration reported by the vow contract.
// The on-chain value is an uint8; anything outside the known range maps to
// VowStatusUnknown so a contract upgrade cannot panic the projection layer.
type VowStatus uint8

const (
	VowStatusDraft VowStatus = iota
	VowStatusPendingSignatures
	VowStatusActive
	VowStatusBreached
	VowStatusResolved
	VowStatusTerminated

	VowStatusUnknown VowStatus = 255
)

func VowStatusFromCode(code uint8) VowStatus {
	if code > uint8(VowStatusTerminated) {
		return VowStatusUnknown
	}
	return VowStatus(code)
}

func (s VowStatus) String() string {
	switch s {
	case VowStatusDraft:
		return "draft"
	case VowStatusPendingSignatures:
		return "pending_signatures"
	case VowStatusActive:
		return "active"
	case VowStatusBreached:
		return "breached"
	case VowStatusResolved:
		return "resolved"
	case VowStatusTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the vow can no longer transition.
func (s VowStatus) IsTerminal() bool {
	switch s {
	case VowStatusBreached, VowStatusResolved, VowStatusTerminated:
		return true
	default:
		return false
	}
}

// Vow is the ledger projection of one agreement. Amounts are base-unit
// integer strings; conversion to decimal ETH happens only at the API edge.
type Vow struct {
	ID            int64     `json:"id"`
	PartnerA      string    `json:"partnerA"`
	PartnerB      string    `json:"partnerB"`
	EscrowBalance string    `json:"escrowBalance"`
	PendingEscrow string    `json:"pendingEscrow"`
	Status        VowStatus `json:"status"`
	CreatedAt     int64     `json:"createdAt"`
	ActivatedAt   int64     `json:"activatedAt"`
	ASigned       bool      `json:"aSigned"`
	BSigned       bool      `json:"bSigned"`
	MetadataURI   string    `json:"metadataURI"`
}

// BothSigned reports whether both partners have signed.
func (v *Vow) BothSigned() bool {
	return v.ASigned && v.BSigned
}

// PartnerOf returns the counterparty address for the given account, or an
// empty string when the account is not a party to the vow.
func (v *Vow) PartnerOf(account string) string {
	switch {
	case EqualAddress(account, v.PartnerA):
		return v.PartnerB
	case EqualAddress(account, v.PartnerB):
		return v.PartnerA
	default:
		return ""
	}
}
