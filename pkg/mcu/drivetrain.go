package mcu

import (
	"math"
	"time"

	"github.com/robotalks/rover.go/pkg/l0/msgs"
)

// wheel integrates the encoder position of one motor.
type wheel struct {
	speed    float64
	pos      float64
	lastTime time.Time
	sampled  int64
	// mask is the counter resolution of the timer.
	mask uint64
}

func (w *wheel) estimate(now time.Time, ticksPerSec float64) {
	if !w.lastTime.IsZero() && now.After(w.lastTime) {
		w.pos += now.Sub(w.lastTime).Seconds() * w.speed * ticksPerSec
	}
	if w.lastTime.IsZero() || now.After(w.lastTime) {
		w.lastTime = now
	}
}

func (w *wheel) ticks() int64 {
	return int64(math.Floor(w.pos))
}

func (w *wheel) sample() msgs.MotorDelta {
	ticks := w.ticks()
	d := msgs.MotorDelta{
		Count: uint32(uint64(ticks) & w.mask),
		Delta: ticks - w.sampled,
	}
	w.sampled = ticks
	return d
}

// Drivetrain simulates a skid-steer drivetrain with four encoders.
// NW/NE counters come from a 32-bit timer and SE/SW from a 16-bit timer.
type Drivetrain struct {
	TicksPerSecond float64

	left, right float32
	// wheels in NW, NE, SE, SW order.
	wheels [4]wheel
}

const (
	mask32 = math.MaxUint32
	mask16 = math.MaxUint16
)

// NewDrivetrain creates a stopped drivetrain.
func NewDrivetrain(ticksPerSec float64) *Drivetrain {
	d := &Drivetrain{TicksPerSecond: ticksPerSec}
	d.wheels[0].mask, d.wheels[1].mask = mask32, mask32
	d.wheels[2].mask, d.wheels[3].mask = mask16, mask16
	return d
}

// Targets returns the current left and right targets.
func (d *Drivetrain) Targets() (left, right float32) {
	return d.left, d.right
}

// SetTargets changes the speed as of now, targets are clamped.
func (d *Drivetrain) SetTargets(now time.Time, left, right float32) {
	d.Estimate(now)
	d.left, d.right = msgs.ClampSpeed(left), msgs.ClampSpeed(right)
	for i := range d.wheels {
		if i == 0 || i == 3 {
			d.wheels[i].speed = float64(d.left)
		} else {
			d.wheels[i].speed = float64(d.right)
		}
	}
}

// SetLeft changes the left target only.
func (d *Drivetrain) SetLeft(now time.Time, target float32) {
	d.SetTargets(now, target, d.right)
}

// SetRight changes the right target only.
func (d *Drivetrain) SetRight(now time.Time, target float32) {
	d.SetTargets(now, d.left, target)
}

// Halt stops all motors.
func (d *Drivetrain) Halt(now time.Time) {
	d.SetTargets(now, 0, 0)
}

// Estimate advances the encoders to now.
func (d *Drivetrain) Estimate(now time.Time) {
	for i := range d.wheels {
		d.wheels[i].estimate(now, d.TicksPerSecond)
	}
}

// Sample reads the encoders as of now, Delta is relative to the
// previous sample.
func (d *Drivetrain) Sample(now time.Time) (counts msgs.MotorCounts) {
	d.Estimate(now)
	for i, w := range counts.Wheels() {
		*w = d.wheels[i].sample()
	}
	return
}
