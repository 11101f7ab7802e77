package msgs

import "math"

// MotorDelta is the encoder reading of one wheel.
type MotorDelta struct {
	// Count is the raw tick count, it wraps at the timer resolution.
	Count uint32 `json:"count"`
	// Delta is the signed change since the previous sample, use it
	// instead of differencing Count across a wrap.
	Delta int64 `json:"delta"`
}

// MotorCounts is the encoder snapshot of all four wheels. It's sampled
// by a 1Hz timer on the MCU and may lag the physical state by up to a
// second.
//
// NorthWest and NorthEast come from a 32-bit timer, SouthEast and
// SouthWest from a 16-bit timer, so absolute counts are only comparable
// within a pair.
type MotorCounts struct {
	NorthWest MotorDelta `json:"north_west"`
	NorthEast MotorDelta `json:"north_east"`
	SouthEast MotorDelta `json:"south_east"`
	SouthWest MotorDelta `json:"south_west"`
}

const (
	motorDeltaSize  = 4 + 8
	motorCountsSize = 4 * motorDeltaSize
)

// Wheels returns the readings in NW, NE, SE, SW order.
func (c *MotorCounts) Wheels() [4]*MotorDelta {
	return [4]*MotorDelta{&c.NorthWest, &c.NorthEast, &c.SouthEast, &c.SouthWest}
}

func (c *MotorCounts) encode(e *encoder) {
	for _, w := range c.Wheels() {
		e.u32(w.Count)
		e.i64(w.Delta)
	}
}

func (c *MotorCounts) decode(d *decoder) {
	for _, w := range c.Wheels() {
		w.Count = d.u32()
		w.Delta = d.i64()
	}
}

// Speed targets are within [SpeedMin, SpeedMax].
const (
	SpeedMin float32 = -1
	SpeedMax float32 = 1
)

// ValidSpeed checks a drive target is within [SpeedMin, SpeedMax].
func ValidSpeed(target float32) bool {
	return target >= SpeedMin && target <= SpeedMax
}

// ClampSpeed limits target to [SpeedMin, SpeedMax], NaN becomes 0.
func ClampSpeed(target float32) float32 {
	switch {
	case math.IsNaN(float64(target)):
		return 0
	case target < SpeedMin:
		return SpeedMin
	case target > SpeedMax:
		return SpeedMax
	}
	return target
}
