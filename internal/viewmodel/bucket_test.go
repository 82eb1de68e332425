package viewmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairuzakhdan/smartvowd/internal/domain/model"
)

const (
	addrA = "0xaaaa000000000000000000000000000000000001"
	addrB = "0xbbbb000000000000000000000000000000000002"
)

func vow(status model.VowStatus, aSigned, bSigned bool) *model.Vow {
	return &model.Vow{
		ID:            1,
		PartnerA:      addrA,
		PartnerB:      addrB,
		EscrowBalance: "1000000000000000000",
		Status:        status,
		ASigned:       aSigned,
		BSigned:       bSigned,
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		vow    *model.Vow
		viewer string
		want   Bucket
	}{
		{"terminal wins over signatures", vow(model.VowStatusBreached, true, true), addrA, BucketTerminal},
		{"resolved is terminal", vow(model.VowStatusResolved, true, true), addrB, BucketTerminal},
		{"active status", vow(model.VowStatusActive, true, true), addrA, BucketActive},
		{"both signed not active", vow(model.VowStatusPendingSignatures, true, true), addrA, BucketReadyToActivate},
		{"viewer is B and unsigned", vow(model.VowStatusPendingSignatures, true, false), addrB, BucketAwaitingMySignature},
		{"viewer is A waiting on B", vow(model.VowStatusPendingSignatures, true, false), addrA, BucketAwaitingPartner},
		{"viewer is B waiting on A", vow(model.VowStatusPendingSignatures, false, true), addrB, BucketAwaitingPartner},
		{"both unsigned", vow(model.VowStatusDraft, false, false), addrB, BucketAwaitingMySignature},
		{"non-party viewer sees draft", vow(model.VowStatusDraft, false, false), "0xcccc000000000000000000000000000000000003", BucketDraft},
		{"case-insensitive address match", vow(model.VowStatusPendingSignatures, true, false), "0xBBBB000000000000000000000000000000000002", BucketAwaitingMySignature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.vow, tt.viewer))
		})
	}
}

// Both signatures present and no terminal status: exactly the activate
// action, never sign.
func TestActions_ReadyToActivate(t *testing.T) {
	v := vow(model.VowStatusPendingSignatures, true, true)
	bucket := Classify(v, addrA)
	assert.Equal(t, BucketReadyToActivate, bucket)
	assert.Equal(t, []Action{ActionActivate}, AvailableActions(bucket, v, addrA))
}

// Viewer is partner B with an unsigned flag: sign-and-activate and nothing
// else that mutates the ledger.
func TestActions_PartnerBUnsigned(t *testing.T) {
	v := vow(model.VowStatusPendingSignatures, true, false)
	bucket := Classify(v, addrB)
	assert.Equal(t, BucketAwaitingMySignature, bucket)
	assert.Equal(t, []Action{ActionSignAndActivate}, AvailableActions(bucket, v, addrB))
}

func TestActions_AwaitingPartnerHasNone(t *testing.T) {
	v := vow(model.VowStatusPendingSignatures, true, false)
	bucket := Classify(v, addrA)
	assert.Empty(t, AvailableActions(bucket, v, addrA))
}

func TestActions_ActiveOffersClaim(t *testing.T) {
	v := vow(model.VowStatusActive, true, true)
	assert.Equal(t, []Action{ActionSubmitClaim}, AvailableActions(BucketActive, v, addrA))
}

func TestClaimAllowed(t *testing.T) {
	assert.True(t, ClaimAllowed(vow(model.VowStatusActive, true, true)))
	assert.True(t, ClaimAllowed(vow(model.VowStatusPendingSignatures, true, true)))
	assert.False(t, ClaimAllowed(vow(model.VowStatusPendingSignatures, true, false)))
	assert.False(t, ClaimAllowed(vow(model.VowStatusBreached, true, true)))
	assert.False(t, ClaimAllowed(vow(model.VowStatusTerminated, true, true)))
}
