package abi

import (
	"encoding/hex"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelector_KnownVectors(t *testing.T) {
	assert.Equal(t, "a9059cbb", hex.EncodeToString(Selector("transfer(address,uint256)")))
	assert.Equal(t, "70a08231", hex.EncodeToString(Selector("balanceOf(address)")))
}

func TestEventTopic_KnownVector(t *testing.T) {
	assert.Equal(t,
		"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
		EventTopic("Transfer(address,address,uint256)"))
}

func TestEncodeCall_StaticArgs(t *testing.T) {
	data, err := EncodeCall("transfer(address,uint256)",
		Address("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4"),
		Uint256(big.NewInt(1000)),
	)
	require.NoError(t, err)

	want := "0xa9059cbb" +
		"0000000000000000000000005b38da6a701c568545dcfcb03fcb875f56beddc4" +
		"00000000000000000000000000000000000000000000000000000000000003e8"
	assert.Equal(t, want, data)
}

func TestEncodeCall_DynamicString(t *testing.T) {
	data, err := EncodeCall("setURI(string)", String("ipfs://abc"))
	require.NoError(t, err)

	raw := strings.TrimPrefix(data, "0x")[8:] // drop selector
	// head: offset 0x20; tail: length 10 + padded payload
	assert.Equal(t,
		"0000000000000000000000000000000000000000000000000000000000000020",
		raw[:64])
	assert.Equal(t,
		"000000000000000000000000000000000000000000000000000000000000000a",
		raw[64:128])

	payload, err := hex.DecodeString(raw[128:192])
	require.NoError(t, err)
	assert.Equal(t, "ipfs://abc", string(payload[:10]))
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	data, err := EncodeCall("f(address,uint256,bool,string,uint256[],string[])",
		Address("0x00000000000000000000000000000000000000aa"),
		Uint256(big.NewInt(7)),
		Bool(true),
		String("hello world, this is longer than one word of payload"),
		Uint256Slice([]*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)}),
		StringSlice([]string{"first", "second clause text", ""}),
	)
	require.NoError(t, err)

	// Strip selector, decode the argument region.
	d, err := NewDecoder("0x" + strings.TrimPrefix(data, "0x")[8:])
	require.NoError(t, err)

	addr, err := d.Address(0)
	require.NoError(t, err)
	assert.Equal(t, "0x00000000000000000000000000000000000000aa", addr)

	v, err := d.Int64(1)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)

	b, err := d.Bool(2)
	require.NoError(t, err)
	assert.True(t, b)

	s, err := d.String(3)
	require.NoError(t, err)
	assert.Equal(t, "hello world, this is longer than one word of payload", s)

	nums, err := d.BigIntSlice(4)
	require.NoError(t, err)
	require.Len(t, nums, 3)
	assert.Equal(t, int64(2), nums[1].Int64())

	ss, err := d.StringSliceAt(5)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second clause text", ""}, ss)
}

func TestEncodeCall_PropagatesArgErrors(t *testing.T) {
	_, err := EncodeCall("f(address)", Address("not-an-address"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed address")

	_, err = EncodeCall("f(uint256)", Uint256(big.NewInt(-1)))
	require.Error(t, err)
}

func TestDecoder_Truncated(t *testing.T) {
	d, err := NewDecoder("0x00")
	require.NoError(t, err)
	_, err = d.BigInt(0)
	assert.Error(t, err)

	// Offset pointing past the end of the data.
	d2, err := NewDecoder("0x0000000000000000000000000000000000000000000000000000000000000100")
	require.NoError(t, err)
	_, err = d2.String(0)
	assert.Error(t, err)
}

func TestTopicInt64(t *testing.T) {
	id, err := TopicInt64("0x0000000000000000000000000000000000000000000000000000000000000005")
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)

	_, err = TopicInt64("0xzz")
	assert.Error(t, err)
}
