package viewmodel

import (
	"fmt"
	"math/big"
)

var oneHundred = big.NewInt(100)

// ComputeClaimSplit derives the payout split for a claim with the given
// penalty percentage over an escrow balance in base units. Integer
// arithmetic only: claimant gets floor(escrow * percent / 100), the
// counterparty the exact remainder.
func ComputeClaimSplit(escrowBase string, penaltyPercent int) (claimant, counterparty string, err error) {
	if penaltyPercent < 1 || penaltyPercent > 100 {
		return "", "", fmt.Errorf("penalty percent %d out of range [1,100]", penaltyPercent)
	}
	escrow, ok := new(big.Int).SetString(escrowBase, 10)
	if !ok || escrow.Sign() < 0 {
		return "", "", fmt.Errorf("malformed escrow amount %q", escrowBase)
	}

	share := new(big.Int).Mul(escrow, big.NewInt(int64(penaltyPercent)))
	share.Quo(share, oneHundred)
	rest := new(big.Int).Sub(escrow, share)
	return share.String(), rest.String(), nil
}
