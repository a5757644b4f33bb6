package app

import (
	"context"
	"sync"

	"github.com/hylla/slaboard/internal/domain"
	"github.com/hylla/slaboard/internal/trend"
)

// GeneratorTrendSource serves trend series from a synthetic generator.
type GeneratorTrendSource struct {
	mu  sync.Mutex
	gen *trend.Generator
}

// NewGeneratorTrendSource wraps a generator. Calls are serialized since the RNG is shared.
func NewGeneratorTrendSource(gen *trend.Generator) *GeneratorTrendSource {
	if gen == nil {
		gen = trend.NewGenerator(nil)
	}
	return &GeneratorTrendSource{gen: gen}
}

// FetchTrends generates one series for the query.
func (g *GeneratorTrendSource) FetchTrends(ctx context.Context, q TrendQuery) ([]domain.HistoricalTrendDay, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gen.Generate(q.Scope, q.ReferenceDate, q.HorizonDays), nil
}
