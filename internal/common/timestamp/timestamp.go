package timestamp

import "time"

// T is a moment in time as milliseconds since the Unix epoch, which is the
// resolution the supported exchanges report and the broadcast format carries.
type T int64

func Now() T {
	return Stamp(time.Now())
}

func Stamp(t time.Time) T {
	if t.IsZero() {
		return 0
	}
	return T(t.UnixMilli())
}

func Milli(ms int64) T {
	return T(ms)
}

func (t T) Time() time.Time {
	return time.UnixMilli(int64(t)).UTC()
}

func (t T) UnixMilli() int64 {
	return int64(t)
}
