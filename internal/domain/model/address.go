package model

import "strings"

// EqualAddress compares two hex addresses case-insensitively. EIP-55
// checksum casing differs between the wallet and the RPC node, so raw
// string equality is never safe.
func EqualAddress(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}

// NormalizeAddress lowercases a hex address for use as a map or store key.
func NormalizeAddress(a string) string {
	return strings.ToLower(strings.TrimSpace(a))
}
