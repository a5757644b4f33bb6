// Package trend synthesizes daily outcome series for the trend views.
package trend

import (
	"math"
	"time"

	"github.com/hylla/slaboard/internal/domain"
)

// DefaultHorizonDays is the series length used when callers pass a non-positive horizon.
const DefaultHorizonDays = 30

// Base daily rates before dampening and injection.
const (
	baseSuccess    = 8
	baseViolations = 1
	baseRunning    = 1
)

const (
	weekendSuccessFactor  = 0.6
	appSuccessFactor      = 0.3
	appViolationsFactor   = 0.5
	appRunningFactor      = 0.3
	activitySuccessChance = 0.8
)

// Pattern injects extra violations into one business area over a window of days counted back from the most recent day.
type Pattern struct {
	BusinessArea  string
	FromDaysBack  int
	ToDaysBack    int
	MaxViolations int
	SuccessFloor  int
}

// covers reports whether daysBack falls inside the pattern window.
func (p Pattern) covers(daysBack int) bool {
	return daysBack >= p.FromDaysBack && daysBack < p.ToDaysBack
}

// DefaultPatterns returns the COMMS and RATES incident patterns.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{BusinessArea: "COMMS", FromDaysBack: 0, ToDaysBack: 10, MaxViolations: 2, SuccessFloor: 5},
		{BusinessArea: "RATES", FromDaysBack: 10, ToDaysBack: 20, MaxViolations: 3, SuccessFloor: 4},
	}
}

// Generator produces synthetic trend series. It is not safe for concurrent use when its source is not.
type Generator struct {
	rnd      RandomSource
	patterns []Pattern
}

// GeneratorOption customizes a Generator.
type GeneratorOption func(*Generator)

// WithPatterns replaces the area incident patterns.
func WithPatterns(patterns []Pattern) GeneratorOption {
	return func(g *Generator) {
		g.patterns = append([]Pattern(nil), patterns...)
	}
}

// NewGenerator constructs a generator. A nil source falls back to a time-seeded one.
func NewGenerator(rnd RandomSource, opts ...GeneratorOption) *Generator {
	if rnd == nil {
		rnd = NewMathRand(uint64(time.Now().UnixNano()))
	}
	g := &Generator{rnd: rnd, patterns: DefaultPatterns()}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Generate returns horizonDays entries, oldest first, ending at referenceDate inclusive.
// Scopes that match no data still yield a full series.
func (g *Generator) Generate(scope domain.Scope, referenceDate time.Time, horizonDays int) []domain.HistoricalTrendDay {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	end := time.Date(referenceDate.Year(), referenceDate.Month(), referenceDate.Day(), 0, 0, 0, 0, time.UTC)
	kind := scope.Kind()
	out := make([]domain.HistoricalTrendDay, 0, horizonDays)
	for daysBack := horizonDays - 1; daysBack >= 0; daysBack-- {
		day := end.AddDate(0, 0, -daysBack)
		success, violations, running := baseSuccess, baseViolations, baseRunning

		weekend := isWeekend(day)
		if weekend {
			success = floorScale(success, weekendSuccessFactor)
			violations = 0
			running = 0
		}

		if !weekend && (kind == domain.ScopeBusinessArea || kind == domain.ScopeApplication) {
			if pattern, ok := g.patternFor(scope.BusinessArea, daysBack); ok {
				violations = g.randomInt(pattern.MaxViolations)
				success = max(pattern.SuccessFloor, success-violations)
			}
		}

		if kind == domain.ScopeApplication {
			success = floorScale(success, appSuccessFactor)
			violations = floorScale(violations, appViolationsFactor)
			running = floorScale(running, appRunningFactor)
		}

		if kind == domain.ScopeActivity {
			running = 0
			if g.rnd.Float64() >= 1-activitySuccessChance {
				success, violations = 1, 0
			} else {
				success = 0
				// Weekend days never carry violations; a failed weekend day is a no-run day.
				violations = 1
				if weekend {
					violations = 0
				}
			}
		}

		// Counts are never negative here.
		entry, _ := domain.NewHistoricalTrendDay(day, success, violations, running)
		out = append(out, entry)
	}
	return out
}

// patternFor returns the first pattern for area covering daysBack.
func (g *Generator) patternFor(area string, daysBack int) (Pattern, bool) {
	for _, pattern := range g.patterns {
		if pattern.BusinessArea == area && pattern.covers(daysBack) {
			return pattern, true
		}
	}
	return Pattern{}, false
}

// randomInt draws uniformly from 1..n.
func (g *Generator) randomInt(n int) int {
	if n <= 1 {
		return 1
	}
	v := int(math.Floor(g.rnd.Float64()*float64(n))) + 1
	return min(v, n)
}

// floorScale multiplies and floors to an integer.
func floorScale(v int, factor float64) int {
	return int(math.Floor(float64(v) * factor))
}

// isWeekend reports whether day is Saturday or Sunday.
func isWeekend(day time.Time) bool {
	wd := day.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
