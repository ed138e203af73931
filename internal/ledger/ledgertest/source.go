// Package ledgertest provides an in-memory ledger.Source for tests.
package ledgertest

import (
	"context"
	"sync"

	"github.com/quipu-reports/quipu/internal/ledger"
)

// Call records one invocation against the fake source.
type Call struct {
	Method string
	Entity string
	Domain *ledger.Domain
	IDs    []int64
	Fields []string
	Opts   ledger.SearchOptions
}

// Source is a scriptable ledger.Source. Entities map to canned records;
// SearchRead serves windows of the entity slice honoring limit/offset,
// Read filters by id. Errors can be injected per entity.
type Source struct {
	mu sync.Mutex

	Records map[string][]ledger.Record
	Groups  map[string][]ledger.Record
	Errs    map[string]error
	Calls   []Call
}

// New returns an empty fake source.
func New() *Source {
	return &Source{
		Records: map[string][]ledger.Record{},
		Groups:  map[string][]ledger.Record{},
		Errs:    map[string]error{},
	}
}

// Add appends records for an entity.
func (s *Source) Add(entity string, records ...ledger.Record) {
	s.Records[entity] = append(s.Records[entity], records...)
}

// FailEntity makes every call touching the entity return err.
func (s *Source) FailEntity(entity string, err error) {
	s.Errs[entity] = err
}

func (s *Source) record(c Call) {
	s.mu.Lock()
	s.Calls = append(s.Calls, c)
	s.mu.Unlock()
}

// CallsFor returns the recorded calls against one entity.
func (s *Source) CallsFor(entity string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.Calls {
		if c.Entity == entity {
			out = append(out, c)
		}
	}
	return out
}

// Count implements ledger.Source.
func (s *Source) Count(ctx context.Context, entity string, domain *ledger.Domain) (int, error) {
	s.record(Call{Method: "count", Entity: entity, Domain: domain})
	if err := s.Errs[entity]; err != nil {
		return 0, err
	}
	return len(s.Records[entity]), nil
}

// Read implements ledger.Source.
func (s *Source) Read(ctx context.Context, entity string, ids []int64, fields []string) ([]ledger.Record, error) {
	s.record(Call{Method: "read", Entity: entity, IDs: ids, Fields: fields})
	if err := s.Errs[entity]; err != nil {
		return nil, err
	}
	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []ledger.Record
	for _, rec := range s.Records[entity] {
		if wanted[rec.ID()] {
			out = append(out, rec)
		}
	}
	return out, nil
}

// SearchRead implements ledger.Source.
func (s *Source) SearchRead(ctx context.Context, entity string, domain *ledger.Domain, fields []string, opts ledger.SearchOptions) ([]ledger.Record, error) {
	s.record(Call{Method: "search_read", Entity: entity, Domain: domain, Fields: fields, Opts: opts})
	if err := s.Errs[entity]; err != nil {
		return nil, err
	}
	records := s.Records[entity]
	if opts.Offset >= len(records) {
		return nil, nil
	}
	records = records[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(records) {
		records = records[:opts.Limit]
	}
	return records, nil
}

// ReadGroup implements ledger.Source.
func (s *Source) ReadGroup(ctx context.Context, entity string, domain *ledger.Domain, aggFields, groupBy []string) ([]ledger.Record, error) {
	s.record(Call{Method: "read_group", Entity: entity, Domain: domain, Fields: aggFields})
	if err := s.Errs[entity]; err != nil {
		return nil, err
	}
	return s.Groups[entity], nil
}
