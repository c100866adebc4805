package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/mdeg/cryptocurrency-market-aggregator/internal/common/timestamp"
)

// DefaultMultiplier is the process-wide fixed-point scale factor: every price
// and volume is carried as value*1e8.
const DefaultMultiplier int64 = 100_000_000

var ErrNotFinite = errors.New("value is not a finite number")

// Standardize converts an exchange floating-point value into scaled integer
// form, rounding half away from zero. It is the single scaling authority:
// a float must pass through here before it is compared, summed or published.
func Standardize(x float64, multiplier int64) (int64, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, fmt.Errorf("%w: %v", ErrNotFinite, x)
	}
	return int64(math.Round(x * float64(multiplier))), nil
}

// Level is one published order-book level, serialized as [price, volume].
type Level struct {
	Price  int64
	Volume int64
}

func (l Level) MarshalJSON() ([]byte, error) {
	b := make([]byte, 0, 24)
	b = append(b, '[')
	b = strconv.AppendInt(b, l.Price, 10)
	b = append(b, ',')
	b = strconv.AppendInt(b, l.Volume, 10)
	b = append(b, ']')
	return b, nil
}

// BookEntry is a full order-book tuple as an exchange reports it. Entries are
// equal only when all three fields match, which is what snapshot diffing
// relies on: a level whose volume moved is a removal plus an addition.
type BookEntry struct {
	Price  int64
	Volume int64
	Code   int64
}

// Level strips the exchange-specific tie-break code for publication.
func (e BookEntry) Level() Level {
	return Level{Price: e.Price, Volume: e.Volume}
}

// TradeTuple is one executed trade, serialized as
// [timestamp, price, volume, total] with total = price*volume.
type TradeTuple struct {
	Timestamp timestamp.T
	Price     int64
	Volume    int64
	Total     int64
}

func (t TradeTuple) MarshalJSON() ([]byte, error) {
	b := make([]byte, 0, 48)
	b = append(b, '[')
	b = strconv.AppendInt(b, int64(t.Timestamp), 10)
	b = append(b, ',')
	b = strconv.AppendInt(b, t.Price, 10)
	b = append(b, ',')
	b = strconv.AppendInt(b, t.Volume, 10)
	b = append(b, ',')
	b = strconv.AppendInt(b, t.Total, 10)
	b = append(b, ']')
	return b, nil
}
