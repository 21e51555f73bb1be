package utils

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

var ErrInvalidNumber = errors.New("invalid number")

var decimalRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d+)?|\.\d+)$`)

var illegalNameChars = strings.NewReplacer(
	"?", "", "<", "", ">", "", ":", "", "*", "",
	`"`, "", "/", "", `\`, "", "|", "",
)

// Rectify removes characters that are not allowed in file names.
func Rectify(name string) string {
	return illegalNameChars.Replace(name)
}

var suffixes = map[string]int64{
	"K": 1_000,
	"M": 1_000_000,
}

// Number is an exact count parsed by ExpandNum.
type Number struct {
	rat *big.Rat
}

// IsInt reports whether the count has no fractional part.
func (n Number) IsInt() bool {
	return n.rat != nil && n.rat.IsInt()
}

// Int64 returns the count when it is whole and fits in an int64.
func (n Number) Int64() (int64, bool) {
	if !n.IsInt() || !n.rat.Num().IsInt64() {
		return 0, false
	}
	return n.rat.Num().Int64(), true
}

// Float64 returns the nearest float64, which is inexact past 2^53.
func (n Number) Float64() float64 {
	if n.rat == nil {
		return 0
	}
	f, _ := n.rat.Float64()
	return f
}

// String prints whole counts as integers and the rest in their shortest decimal form.
func (n Number) String() string {
	if n.rat == nil {
		return "0"
	}
	if n.IsInt() {
		return n.rat.Num().String()
	}
	return strconv.FormatFloat(n.Float64(), 'f', -1, 64)
}

func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.String()), nil
}

// ExpandNum parses counts such as "61.8K" or "2M" as they are printed on web pages.
func ExpandNum(s string) (Number, error) {
	num := strings.TrimSpace(s)
	if num == "" {
		return Number{}, fmt.Errorf("%w: empty", ErrInvalidNumber)
	}

	multiplier := int64(1)
	if m, ok := suffixes[strings.ToUpper(num[len(num)-1:])]; ok {
		multiplier = m
		num = strings.TrimSpace(num[:len(num)-1])
	}

	if !decimalRegex.MatchString(num) {
		return Number{}, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	// exact decimal arithmetic: 61.8K is 61800
	r, ok := new(big.Rat).SetString(num)
	if !ok {
		return Number{}, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	r.Mul(r, new(big.Rat).SetInt64(multiplier))

	return Number{rat: r}, nil
}
