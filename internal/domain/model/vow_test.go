package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVowStatusFromCode(t *testing.T) {
	tests := []struct {
		code uint8
		want VowStatus
	}{
		{0, VowStatusDraft},
		{1, VowStatusPendingSignatures},
		{2, VowStatusActive},
		{3, VowStatusBreached},
		{4, VowStatusResolved},
		{5, VowStatusTerminated},
		{6, VowStatusUnknown},
		{200, VowStatusUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VowStatusFromCode(tt.code), "code %d", tt.code)
	}
}

func TestVowStatus_IsTerminal(t *testing.T) {
	assert.False(t, VowStatusDraft.IsTerminal())
	assert.False(t, VowStatusPendingSignatures.IsTerminal())
	assert.False(t, VowStatusActive.IsTerminal())
	assert.True(t, VowStatusBreached.IsTerminal())
	assert.True(t, VowStatusResolved.IsTerminal())
	assert.True(t, VowStatusTerminated.IsTerminal())
	assert.False(t, VowStatusUnknown.IsTerminal())
}

func TestVow_PartnerOf(t *testing.T) {
	v := &Vow{
		PartnerA: "0xAbCd000000000000000000000000000000000001",
		PartnerB: "0x0000000000000000000000000000000000000002",
	}

	// Case-insensitive match on either side.
	assert.Equal(t, v.PartnerB, v.PartnerOf("0xabcd000000000000000000000000000000000001"))
	assert.Equal(t, v.PartnerA, v.PartnerOf("0x0000000000000000000000000000000000000002"))
	assert.Empty(t, v.PartnerOf("0x0000000000000000000000000000000000000003"))
	assert.Empty(t, v.PartnerOf(""))
}

func TestEqualAddress(t *testing.T) {
	assert.True(t, EqualAddress("0xAB", "0xab"))
	assert.False(t, EqualAddress("", ""))
	assert.False(t, EqualAddress("0xab", "0xcd"))
}
