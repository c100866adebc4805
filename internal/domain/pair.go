package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// CurrencyPair is one of the closed set of supported trading pairs. The zero
// value is a real pair, so code holding an unvalidated pair must have gotten
// it from MapPair or ParsePairs.
type CurrencyPair int

const (
	XRPBTC CurrencyPair = iota
	ETHBTC
	LTCBTC
	BTCAUD
	ETHAUD
	XRPAUD
)

var pairNames = [...]string{
	XRPBTC: "XRPBTC",
	ETHBTC: "ETHBTC",
	LTCBTC: "LTCBTC",
	BTCAUD: "BTCAUD",
	ETHAUD: "ETHAUD",
	XRPAUD: "XRPAUD",
}

var ErrUnknownPair = errors.New("unknown currency pair")

func (p CurrencyPair) String() string {
	if p < 0 || int(p) >= len(pairNames) {
		return fmt.Sprintf("CurrencyPair(%d)", int(p))
	}
	return pairNames[p]
}

func (p CurrencyPair) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// MapPair resolves a concatenated instrument+currency code such as "XRPBTC".
func MapPair(code string) (CurrencyPair, error) {
	for p, name := range pairNames {
		if name == code {
			return CurrencyPair(p), nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownPair, code)
}

// ParsePairs parses a comma-separated pair list into a sorted, deduplicated
// slice. Any unknown code fails the whole parse.
func ParsePairs(values string) ([]CurrencyPair, error) {
	parts := strings.Split(values, ",")
	pairs := make([]CurrencyPair, 0, len(parts))
	for _, part := range parts {
		pair, err := MapPair(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i] < pairs[j] })
	dedup := pairs[:0]
	for i, pair := range pairs {
		if i == 0 || pair != pairs[i-1] {
			dedup = append(dedup, pair)
		}
	}
	return dedup, nil
}
