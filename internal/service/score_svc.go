package service

import (
	"math"
	"math/rand/v2"
)

const (
	// View signal: each order of magnitude is worth a fixed increment.
	viewLogWeight = 40.0

	// Engagement signal: (likes+comments)/views, capped at 10%.
	engagementRatioCap = 0.1
	engagementScale    = 3000.0

	// Quality signal sub-terms and their caps.
	likeRatioScale    = 1000.0
	likeRatioCap      = 20.0
	commentRatioScale = 5000.0
	commentRatioCap   = 10.0
	durationDivisor   = 10.0
	durationCap       = 20.0

	// Jitter is uniform in [0, maxJitter).
	maxJitter = 0.1
)

// JitterSource yields floats uniform in [0, 1). The scorer is shared by the
// refresh workers and the submission listener, so implementations must be
// safe for concurrent use. A bare *rand.Rand is not.
type JitterSource interface {
	Float64() float64
}

type noJitter struct{}

func (noJitter) Float64() float64 { return 0 }

// sharedJitter draws from the math/rand/v2 top-level generator, which is
// safe for concurrent use.
type sharedJitter struct{}

func (sharedJitter) Float64() float64 { return rand.Float64() }

// NoJitter makes Score deterministic.
var NoJitter JitterSource = noJitter{}

// ScoreService turns raw engagement metrics into a comparable, gaming
// resistant performance score.
type ScoreService struct {
	jitter JitterSource
}

// NewScoreService creates a scorer. A nil source uses live randomness.
func NewScoreService(src JitterSource) *ScoreService {
	if src == nil {
		src = sharedJitter{}
	}
	return &ScoreService{jitter: src}
}

// Score computes:
//
//	view       = log10(max(1, views)) * 40
//	engagement = min((likes+comments) / max(1, views), 0.1) * 3000
//	quality    = min(likeRatio*1000, 20) + min(commentRatio*5000, 10) + min(duration/10, 20)
//	score      = max(0, view + engagement + quality + jitter)
func (s *ScoreService) Score(views, likes, comments int64, durationSeconds float64) float64 {
	views, likes, comments = nonNegative(views), nonNegative(likes), nonNegative(comments)
	denom := math.Max(1, float64(views))

	viewScore := math.Log10(denom) * viewLogWeight

	engagementRatio := math.Min(float64(likes+comments)/denom, engagementRatioCap)
	engagementScore := engagementRatio * engagementScale

	likeRatio := float64(likes) / denom
	commentRatio := float64(comments) / denom
	qualityScore := math.Min(likeRatio*likeRatioScale, likeRatioCap) +
		math.Min(commentRatio*commentRatioScale, commentRatioCap) +
		math.Min(math.Max(durationSeconds, 0)/durationDivisor, durationCap)

	total := viewScore + engagementScore + qualityScore + s.jitter.Float64()*maxJitter
	return math.Max(0, total)
}

func nonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
