package receivables

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/quipu-reports/quipu/internal/engine"
)

// Service coordinates report building with the summary cache. Summaries
// are the expensive full-composition paths, so identical concurrent
// requests collapse into one build.
type Service struct {
	engine *engine.Engine
	cache  *engine.Cache
	group  singleflight.Group
}

// NewService wires the report engine with a cache helper. A nil cache
// disables caching but not deduplication.
func NewService(eng *engine.Engine, cache *engine.Cache) *Service {
	return &Service{engine: eng, cache: cache}
}

// Report builds one page of the collections report.
func (s *Service) Report(ctx context.Context, f engine.Filters) (engine.Page, error) {
	return s.engine.Report(ctx, f)
}

// Export builds the full filtered row set for file export.
func (s *Service) Export(ctx context.Context, f engine.Filters) ([]engine.ReportRow, error) {
	return s.engine.Export(ctx, f)
}

// SummaryByAccount aggregates the report per receivable account.
func (s *Service) SummaryByAccount(ctx context.Context, f engine.Filters) (engine.Summary, error) {
	return s.summary(ctx, "account", f, s.engine.SummaryByAccount)
}

// SummaryByCounterparty aggregates the report per customer.
func (s *Service) SummaryByCounterparty(ctx context.Context, f engine.Filters) (engine.Summary, error) {
	return s.summary(ctx, "customer", f, s.engine.SummaryByCounterparty)
}

// SummaryByAging aggregates the report per aging band.
func (s *Service) SummaryByAging(ctx context.Context, f engine.Filters) (engine.Summary, error) {
	return s.summary(ctx, "aging", f, s.engine.SummaryByAging)
}

// FilterOptions lists the dropdown values for the report filters.
func (s *Service) FilterOptions(ctx context.Context) (engine.FilterOptions, error) {
	return s.engine.FilterOptionsFor(ctx)
}

func (s *Service) summary(ctx context.Context, dimension string, f engine.Filters,
	build func(context.Context, engine.Filters) (engine.Summary, error)) (engine.Summary, error) {

	key, err := s.cache.BuildKey(ctx, engine.SummaryKey("receivables", dimension, f))
	if err != nil {
		// Cache trouble never blocks the report.
		return build(ctx, f)
	}
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		var out engine.Summary
		err := s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
			return build(ctx, f)
		})
		return out, err
	})
	if err != nil {
		return engine.Summary{}, err
	}
	return v.(engine.Summary), nil
}
