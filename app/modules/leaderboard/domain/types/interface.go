package leaderboardtypes

import (
	"fmt"
	"math/big"
)

// CycleID identifies the season cycle a ranking belongs to.
type CycleID int64

// IsValid checks if the cycle ID refers to a real season.
func (c CycleID) IsValid() bool {
	return c > 0
}

// String returns the string representation of the cycle ID.
func (c CycleID) String() string {
	return fmt.Sprintf("%d", c)
}

// VoteCount carries an unbounded-precision vote total across module
// boundaries. It is a decimal string on the wire so consumers that parse
// JSON numbers as 64-bit floats cannot corrupt large totals.
type VoteCount string

// VoteCountFromBig encodes a big integer total, treating nil as zero.
func VoteCountFromBig(v *big.Int) VoteCount {
	if v == nil {
		return VoteCount("0")
	}
	return VoteCount(v.String())
}

// BigInt decodes the total back into a big integer.
func (v VoteCount) BigInt() (*big.Int, error) {
	if v == "" {
		return new(big.Int), nil
	}
	parsed, ok := new(big.Int).SetString(string(v), 10)
	if !ok {
		return nil, fmt.Errorf("malformed vote count %q", string(v))
	}
	return parsed, nil
}

// IsValid checks if the vote count parses as a non-negative integer.
func (v VoteCount) IsValid() bool {
	parsed, err := v.BigInt()
	return err == nil && parsed.Sign() >= 0
}

// String returns the decimal representation of the vote count.
func (v VoteCount) String() string {
	if v == "" {
		return "0"
	}
	return string(v)
}
