package leaderboarddomain

import (
	"fmt"
	"math/big"
)

// DefaultTokenDecimals is the base-unit precision of the governance token
// when a vote event does not carry its own.
const DefaultTokenDecimals = 18

// VotesFromTokenAmount converts a raw token amount in base units into whole
// votes. One vote per whole token; the fractional remainder is floored away.
// A nil amount converts to zero votes.
func VotesFromTokenAmount(amount *big.Int, decimals uint8) (*big.Int, error) {
	if amount == nil {
		return new(big.Int), nil
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: token amount %s", ErrNegativeVotes, amount)
	}

	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Int).Quo(amount, unit), nil
}
