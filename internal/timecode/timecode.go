// Package timecode implements the millisecond timestamps used on the
// timeline. Values are never negative: subtraction clamps at zero and
// addition saturates.
package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Time is a non-negative timeline position or duration in milliseconds.
type Time uint64

// Max is the largest representable Time.
const Max = Time(math.MaxUint64)

// FromSeconds converts seconds to a Time, clamping negatives to zero.
func FromSeconds(s float64) Time {
	if s <= 0 || math.IsNaN(s) {
		return 0
	}
	ms := math.Round(s * 1000)
	if ms >= float64(Max) {
		return Max
	}
	return Time(ms)
}

// FromDuration converts a time.Duration, clamping negatives to zero.
func FromDuration(d time.Duration) Time {
	if d <= 0 {
		return 0
	}
	return Time(d / time.Millisecond)
}

// Add returns t+d, saturating at Max.
func (t Time) Add(d Time) Time {
	if t > Max-d {
		return Max
	}
	return t + d
}

// Sub returns t-d, clamped at zero.
func (t Time) Sub(d Time) Time {
	if d >= t {
		return 0
	}
	return t - d
}

// Mul returns t*n, saturating at Max.
func (t Time) Mul(n uint64) Time {
	if n != 0 && uint64(t) > uint64(Max)/n {
		return Max
	}
	return t * Time(n)
}

func (t Time) Millis() uint64 { return uint64(t) }

func (t Time) Seconds() float64 { return float64(t) / 1000 }

func (t Time) Duration() time.Duration {
	if uint64(t) > uint64(math.MaxInt64/int64(time.Millisecond)) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(t) * time.Millisecond
}

// String formats t as HH:MM:SS.mmm.
func (t Time) String() string {
	ms := uint64(t)
	h := ms / 3_600_000
	m := (ms / 60_000) % 60
	s := (ms / 1000) % 60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms%1000)
}

// Parse accepts plain milliseconds ("1500"), Go durations ("1.5s",
// "250ms") and clock notation ("00:00:01.500").
func Parse(s string) (Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("timecode: empty value")
	}
	if ms, err := strconv.ParseUint(s, 10, 64); err == nil {
		return Time(ms), nil
	}
	if strings.Contains(s, ":") {
		return parseClock(s)
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("timecode: parse %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("timecode: negative value %q", s)
	}
	return FromDuration(d), nil
}

func parseClock(s string) (Time, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("timecode: parse %q: too many fields", s)
	}
	var total float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("timecode: parse %q: invalid field %q", s, p)
		}
		total = total*60 + v
	}
	return FromSeconds(total), nil
}
