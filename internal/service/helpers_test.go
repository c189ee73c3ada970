package service

import (
	"encoding/json"
	"math"
	"time"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func jsonMarshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// fixedJitter always returns v.
type fixedJitter float64

func (f fixedJitter) Float64() float64 { return float64(f) }

// testClock is a settable clock.
type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t }
