package domain

// Exchange identifies a market-data source.
type Exchange int

const (
	Bitfinex Exchange = iota
	BTCMarkets
)

// Wire returns the canonical lowercase name used in broadcast payloads.
func (e Exchange) Wire() string {
	switch e {
	case Bitfinex:
		return "bitfinex"
	case BTCMarkets:
		return "btcmarkets"
	}
	return "unknown"
}

func (e Exchange) String() string {
	switch e {
	case Bitfinex:
		return "Bitfinex"
	case BTCMarkets:
		return "BTCMarkets"
	}
	return "Unknown"
}

func (e Exchange) MarshalJSON() ([]byte, error) {
	return []byte(`"` + e.Wire() + `"`), nil
}
