package payables

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/quipu-reports/quipu/internal/engine"
	"github.com/quipu-reports/quipu/internal/ledger"
)

// Service coordinates the treasury report with the summary cache and
// the supplier bank directory.
type Service struct {
	engine *engine.Engine
	source ledger.Source
	cache  *engine.Cache
	group  singleflight.Group
}

// NewService wires the report engine, the raw source used by the bank
// directory and a cache helper.
func NewService(eng *engine.Engine, source ledger.Source, cache *engine.Cache) *Service {
	return &Service{engine: eng, source: source, cache: cache}
}

// normalize applies the payables cutoff rule: a point-in-time payables
// position is meaningless without the lines settled since the cutoff,
// so a cutoff always implies include_reconciled.
func normalize(f engine.Filters) engine.Filters {
	if f.Historical() {
		f.IncludeReconciled = true
	}
	return f
}

// Report builds one page of the treasury report.
func (s *Service) Report(ctx context.Context, f engine.Filters) (engine.Page, error) {
	return s.engine.Report(ctx, normalize(f))
}

// Export builds the full filtered row set for file export.
func (s *Service) Export(ctx context.Context, f engine.Filters) ([]engine.ReportRow, error) {
	return s.engine.Export(ctx, normalize(f))
}

// SummaryByAccount aggregates the report per payable account.
func (s *Service) SummaryByAccount(ctx context.Context, f engine.Filters) (engine.Summary, error) {
	return s.summary(ctx, "account", f, s.engine.SummaryByAccount)
}

// SummaryBySupplier aggregates the report per supplier.
func (s *Service) SummaryBySupplier(ctx context.Context, f engine.Filters) (engine.Summary, error) {
	return s.summary(ctx, "supplier", f, s.engine.SummaryByCounterparty)
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

	f = normalize(f)
	key, err := s.cache.BuildKey(ctx, engine.SummaryKey("payables", dimension, f))
	if err != nil {
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
