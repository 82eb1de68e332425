// Package abi implements the small slice of contract ABI encoding the
// gateway needs: 4-byte selectors, static words, and dynamic strings and
// arrays. It covers exactly the fixed method set of the three SmartVow
// contracts, not the general ABI grammar.
package abi

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

const wordSize = 32

// Selector returns the 4-byte method selector for a canonical signature
// such as "createAndLock(address,string,string,uint256[])".
func Selector(signature string) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return h.Sum(nil)[:4]
}

// EventTopic returns the 32-byte topic hash for an event signature.
func EventTopic(signature string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// Arg is one encodable call argument.
type Arg struct {
	dynamic bool
	word    [wordSize]byte // static value, or ignored when dynamic
	tail    []byte         // dynamic payload
	err     error
}

// EncodeCall builds the hex calldata for a method invocation using the
// standard head/tail layout: static args inline, dynamic args as offsets
// into a tail region.
func EncodeCall(signature string, args ...Arg) (string, error) {
	for _, a := range args {
		if a.err != nil {
			return "", fmt.Errorf("encode %s: %w", signature, a.err)
		}
	}

	head := make([]byte, 0, len(args)*wordSize)
	tail := make([]byte, 0)
	tailBase := len(args) * wordSize

	for _, a := range args {
		if a.dynamic {
			head = append(head, uintWord(uint64(tailBase+len(tail)))...)
			tail = append(tail, a.tail...)
		} else {
			head = append(head, a.word[:]...)
		}
	}

	data := append(Selector(signature), head...)
	data = append(data, tail...)
	return "0x" + hex.EncodeToString(data), nil
}

func Address(addr string) Arg {
	raw := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(addr)), "0x")
	b, err := hex.DecodeString(raw)
	if err != nil || len(b) != 20 {
		return Arg{err: fmt.Errorf("malformed address %q", addr)}
	}
	var a Arg
	copy(a.word[wordSize-20:], b)
	return a
}

func Uint256(v *big.Int) Arg {
	if v == nil || v.Sign() < 0 || v.BitLen() > 256 {
		return Arg{err: fmt.Errorf("uint256 out of range")}
	}
	var a Arg
	v.FillBytes(a.word[:])
	return a
}

func Uint64(v uint64) Arg {
	var a Arg
	copy(a.word[:], uintWord(v))
	return a
}

func Bool(v bool) Arg {
	var a Arg
	if v {
		a.word[wordSize-1] = 1
	}
	return a
}

func String(s string) Arg {
	return Arg{dynamic: true, tail: encodeBytes([]byte(s))}
}

func Bytes(b []byte) Arg {
	return Arg{dynamic: true, tail: encodeBytes(b)}
}

// Uint256Slice encodes a dynamic uint256[] argument.
func Uint256Slice(vs []*big.Int) Arg {
	tail := uintWord(uint64(len(vs)))
	for _, v := range vs {
		if v == nil || v.Sign() < 0 || v.BitLen() > 256 {
			return Arg{err: fmt.Errorf("uint256[] element out of range")}
		}
		var w [wordSize]byte
		v.FillBytes(w[:])
		tail = append(tail, w[:]...)
	}
	return Arg{dynamic: true, tail: tail}
}

// StringSlice encodes a dynamic string[] argument: a length word, one
// offset word per element relative to the start of the element region,
// then the encoded strings.
func StringSlice(ss []string) Arg {
	elems := make([][]byte, len(ss))
	for i, s := range ss {
		elems[i] = encodeBytes([]byte(s))
	}

	tail := uintWord(uint64(len(ss)))
	offset := len(ss) * wordSize
	for _, e := range elems {
		tail = append(tail, uintWord(uint64(offset))...)
		offset += len(e)
	}
	for _, e := range elems {
		tail = append(tail, e...)
	}
	return Arg{dynamic: true, tail: tail}
}

func encodeBytes(b []byte) []byte {
	out := uintWord(uint64(len(b)))
	out = append(out, b...)
	if pad := len(b) % wordSize; pad != 0 {
		out = append(out, make([]byte, wordSize-pad)...)
	}
	return out
}

func uintWord(v uint64) []byte {
	w := make([]byte, wordSize)
	big.NewInt(0).SetUint64(v).FillBytes(w)
	return w
}

// Decoder reads return data word by word. Head slots are addressed by
// index; dynamic values follow the offset stored in their head slot.
type Decoder struct {
	data []byte
}

func NewDecoder(hexData string) (*Decoder, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(hexData), "0x")
	b, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("malformed return data: %w", err)
	}
	return &Decoder{data: b}, nil
}

// Words returns the number of complete head words available.
func (d *Decoder) Words() int {
	return len(d.data) / wordSize
}

func (d *Decoder) word(i int) ([]byte, error) {
	start := i * wordSize
	if start < 0 || start+wordSize > len(d.data) {
		return nil, fmt.Errorf("return data too short for word %d", i)
	}
	return d.data[start : start+wordSize], nil
}

func (d *Decoder) BigInt(i int) (*big.Int, error) {
	w, err := d.word(i)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(w), nil
}

func (d *Decoder) Int64(i int) (int64, error) {
	v, err := d.BigInt(i)
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() {
		return 0, fmt.Errorf("word %d overflows int64", i)
	}
	return v.Int64(), nil
}

func (d *Decoder) Uint8(i int) (uint8, error) {
	v, err := d.Int64(i)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 255 {
		return 0, fmt.Errorf("word %d out of uint8 range", i)
	}
	return uint8(v), nil
}

func (d *Decoder) Bool(i int) (bool, error) {
	v, err := d.BigInt(i)
	if err != nil {
		return false, err
	}
	return v.Sign() != 0, nil
}

func (d *Decoder) Address(i int) (string, error) {
	w, err := d.word(i)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(w[wordSize-20:]), nil
}

// String reads the dynamic string whose offset lives in head slot i.
func (d *Decoder) String(i int) (string, error) {
	b, err := d.bytesAtSlot(i)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *Decoder) bytesAtSlot(i int) ([]byte, error) {
	offset, err := d.Int64(i)
	if err != nil {
		return nil, err
	}
	return d.bytesAt(int(offset))
}

func (d *Decoder) bytesAt(offset int) ([]byte, error) {
	if offset < 0 || offset+wordSize > len(d.data) {
		return nil, fmt.Errorf("dynamic offset %d out of range", offset)
	}
	length := new(big.Int).SetBytes(d.data[offset : offset+wordSize])
	if !length.IsInt64() {
		return nil, fmt.Errorf("dynamic length overflows")
	}
	n := int(length.Int64())
	start := offset + wordSize
	if n < 0 || start+n > len(d.data) {
		return nil, fmt.Errorf("dynamic payload at %d truncated", offset)
	}
	return d.data[start : start+n], nil
}

// BigIntSlice reads the dynamic uint256[] whose offset lives in head slot i.
func (d *Decoder) BigIntSlice(i int) ([]*big.Int, error) {
	offset, err := d.Int64(i)
	if err != nil {
		return nil, err
	}
	base := int(offset)
	if base < 0 || base+wordSize > len(d.data) {
		return nil, fmt.Errorf("array offset %d out of range", base)
	}
	length := new(big.Int).SetBytes(d.data[base : base+wordSize])
	if !length.IsInt64() {
		return nil, fmt.Errorf("array length overflows")
	}
	n := int(length.Int64())
	out := make([]*big.Int, 0, n)
	for j := 0; j < n; j++ {
		start := base + wordSize + j*wordSize
		if start+wordSize > len(d.data) {
			return nil, fmt.Errorf("array element %d truncated", j)
		}
		out = append(out, new(big.Int).SetBytes(d.data[start:start+wordSize]))
	}
	return out, nil
}

// StringSliceAt reads the dynamic string[] whose offset lives in head slot i.
func (d *Decoder) StringSliceAt(i int) ([]string, error) {
	offset, err := d.Int64(i)
	if err != nil {
		return nil, err
	}
	base := int(offset)
	if base < 0 || base+wordSize > len(d.data) {
		return nil, fmt.Errorf("array offset %d out of range", base)
	}
	length := new(big.Int).SetBytes(d.data[base : base+wordSize])
	if !length.IsInt64() {
		return nil, fmt.Errorf("array length overflows")
	}
	n := int(length.Int64())
	out := make([]string, 0, n)
	elemBase := base + wordSize
	for j := 0; j < n; j++ {
		slot := elemBase + j*wordSize
		if slot+wordSize > len(d.data) {
			return nil, fmt.Errorf("array element %d truncated", j)
		}
		elemOffset := new(big.Int).SetBytes(d.data[slot : slot+wordSize])
		if !elemOffset.IsInt64() {
			return nil, fmt.Errorf("array element offset overflows")
		}
		b, err := d.bytesAt(elemBase + int(elemOffset.Int64()))
		if err != nil {
			return nil, fmt.Errorf("array element %d: %w", j, err)
		}
		out = append(out, string(b))
	}
	return out, nil
}

// TopicInt64 decodes an indexed integer event topic.
func TopicInt64(topic string) (int64, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(topic), "0x")
	v, ok := new(big.Int).SetString(raw, 16)
	if !ok {
		return 0, fmt.Errorf("malformed topic %q", topic)
	}
	if !v.IsInt64() {
		return 0, fmt.Errorf("topic %q overflows int64", topic)
	}
	return v.Int64(), nil
}
