package lwb

import (
	"math/bits"
	"time"
)

// ClockHz is the frequency of the low-frequency clock timestamping
// time requests.
const ClockHz = 32768

// Ticks converts a duration to clock ticks.
func Ticks(d time.Duration) uint64 {
	hi, lo := bits.Mul64(uint64(d), ClockHz)
	q, _ := bits.Div64(hi, lo, uint64(time.Second))
	return q
}

// TicksToMicros converts ticks of a hz clock to microseconds and adds
// offset: floor(ticks*1e6/hz) + offset. The product is computed in
// 128 bits.
func TicksToMicros(ticks, hz, offset uint64) uint64 {
	if hz == 0 {
		return offset
	}
	hi, lo := bits.Mul64(ticks, 1000000)
	if hi >= hz {
		// quotient does not fit, saturate
		return ^uint64(0)
	}
	q, _ := bits.Div64(hi, lo, hz)
	return q + offset
}
