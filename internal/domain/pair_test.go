package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestParsePairs(t *testing.T) {
	pairs, err := ParsePairs("ETHBTC,XRPBTC,XRPBTC,BTCAUD")
	if err != nil {
		t.Fatal(err)
	}
	want := []CurrencyPair{XRPBTC, ETHBTC, BTCAUD}
	if !reflect.DeepEqual(pairs, want) {
		t.Errorf("got %v, want %v", pairs, want)
	}
}

func TestParsePairsUnknown(t *testing.T) {
	if _, err := ParsePairs("XRPBTC,DOGEBTC"); !errors.Is(err, ErrUnknownPair) {
		t.Errorf("err = %v, want ErrUnknownPair", err)
	}
}

func TestMapPair(t *testing.T) {
	pair, err := MapPair("XRPBTC")
	if err != nil {
		t.Fatal(err)
	}
	if pair != XRPBTC {
		t.Errorf("got %v", pair)
	}
	if _, err := MapPair(""); !errors.Is(err, ErrUnknownPair) {
		t.Errorf("err = %v, want ErrUnknownPair", err)
	}
}

func TestExchangeNames(t *testing.T) {
	if Bitfinex.Wire() != "bitfinex" || Bitfinex.String() != "Bitfinex" {
		t.Error("bitfinex names")
	}
	if BTCMarkets.Wire() != "btcmarkets" || BTCMarkets.String() != "BTCMarkets" {
		t.Error("btcmarkets names")
	}
}
