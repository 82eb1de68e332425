package viewmodel

import (
	"github.com/fairuzakhdan/smartvowd/internal/domain/model"
)

// Bucket is the single display classification of an agreement for one
// viewing account. Every agreement lands in exactly one bucket.
type Bucket string

const (
	BucketDraft               Bucket = "draft"
	BucketAwaitingMySignature Bucket = "awaiting_my_signature"
	BucketAwaitingPartner     Bucket = "awaiting_partner"
	BucketReadyToActivate     Bucket = "ready_to_activate"
	BucketActive              Bucket = "active"
	BucketTerminal            Bucket = "terminal"
)

// Action is a ledger-mutating operation the viewer may perform on an
// agreement in its current bucket.
type Action string

const (
	ActionSign            Action = "sign"
	ActionSignAndActivate Action = "sign_and_activate"
	ActionActivate        Action = "activate"
	ActionSubmitClaim     Action = "submit_claim"
)

// Classify places an agreement into its display bucket for the given
// viewer. Precedence is fixed: a terminal ledger status wins over
// everything; an active status next; then both-signed-but-not-active;
// then the signature gaps.
func Classify(v *model.Vow, viewer string) Bucket {
	if v.Status.IsTerminal() {
		return BucketTerminal
	}
	if v.Status == model.VowStatusActive {
		return BucketActive
	}
	if v.BothSigned() {
		return BucketReadyToActivate
	}

	viewerIsB := model.EqualAddress(viewer, v.PartnerB)
	viewerIsA := model.EqualAddress(viewer, v.PartnerA)
	switch {
	case viewerIsB && !v.BSigned:
		return BucketAwaitingMySignature
	case viewerIsA && !v.BSigned:
		return BucketAwaitingPartner
	case viewerIsB && !v.ASigned:
		return BucketAwaitingPartner
	case viewerIsA && !v.ASigned:
		return BucketAwaitingMySignature
	default:
		return BucketDraft
	}
}

// AvailableActions is a pure function of the bucket plus the ledger
// signature flags. It never consults the local store, so it cannot offer a
// write the ledger would reject on signature grounds.
func AvailableActions(bucket Bucket, v *model.Vow, viewer string) []Action {
	switch bucket {
	case BucketAwaitingMySignature:
		if model.EqualAddress(viewer, v.PartnerB) {
			// Partner B's signature doubles as activation; the matching
			// escrow comes out of the shared vault.
			return []Action{ActionSignAndActivate}
		}
		return []Action{ActionSign}
	case BucketReadyToActivate:
		return []Action{ActionActivate}
	case BucketActive:
		return []Action{ActionSubmitClaim}
	default:
		return nil
	}
}

// ClaimAllowed reports whether the viewer may start a claim against the
// agreement based on its ledger state. The final word belongs to a fresh
// already-claimed read immediately before submission; this only gates the
// attempt.
func ClaimAllowed(v *model.Vow) bool {
	if v.Status.IsTerminal() {
		return false
	}
	return v.Status == model.VowStatusActive || v.BothSigned()
}
