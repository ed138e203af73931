package engine

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/quipu-reports/quipu/internal/ledger"
)

// exportMaxRows bounds the deliberate non-paginated dump path.
const exportMaxRows = 10000

// Engine turns report filters into composed, aging-classified rows for
// one report family. It is stateless between calls; all reads go to the
// injected Source.
type Engine struct {
	source  ledger.Source
	profile Profile
	logger  *slog.Logger
	now     func() time.Time
}

// New constructs an engine for the given family profile.
func New(source ledger.Source, profile Profile, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{source: source, profile: profile, logger: logger, now: time.Now}
}

// Profile returns the family profile the engine was built with.
func (e *Engine) Profile() Profile { return e.profile }

// Page is one page of composed rows plus pagination metadata.
type Page struct {
	Data       []ReportRow `json:"data"`
	TotalCount int         `json:"total_count"`
	Page       int         `json:"page"`
	PerPage    int         `json:"per_page"`
	TotalPages int         `json:"total_pages"`
	HasMore    bool        `json:"has_more"`
}

func newPage(rows []ReportRow, f Filters, total int) Page {
	totalPages := 0
	if f.PerPage > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(f.PerPage)))
	}
	if rows == nil {
		rows = []ReportRow{}
	}
	return Page{
		Data:       rows,
		TotalCount: total,
		Page:       f.Page,
		PerPage:    f.PerPage,
		TotalPages: totalPages,
		HasMore:    f.Page < totalPages,
	}
}

// Report builds one page of the report: count, paged read, parallel
// enrichment, reconciliation resolution under a cutoff, composition.
// Transient source unavailability yields an empty page, not an error;
// only context cancellation propagates.
func (e *Engine) Report(ctx context.Context, f Filters) (Page, error) {
	domain := BuildDomain(f, e.profile, e.channelName(ctx, f.ChannelID))

	// Under a cutoff without include_reconciled, composition drops the
	// lines settled at the cutoff, so a remote count over the domain
	// would overstate the total and leave late pages short. Compose the
	// whole matching set and page in memory; the total then counts
	// surviving rows.
	if f.Historical() && !f.IncludeReconciled {
		return e.reportComposed(ctx, domain, f)
	}

	total, err := e.source.Count(ctx, ledger.EntityLine, domain)
	if err != nil {
		if ctx.Err() != nil {
			return Page{}, ctx.Err()
		}
		e.warn("line count unavailable", err)
		return newPage(nil, f, 0), nil
	}

	lines, err := e.searchLines(ctx, domain, ledger.SearchOptions{
		Limit:  f.PerPage,
		Offset: f.Offset(),
		Order:  "date asc, id asc",
	})
	if err != nil {
		if ctx.Err() != nil {
			return Page{}, ctx.Err()
		}
		e.warn("line read unavailable", err)
		return newPage(nil, f, 0), nil
	}

	rows := e.enrich(ctx, lines, f)
	return newPage(rows, f, total), nil
}

func (e *Engine) reportComposed(ctx context.Context, domain *ledger.Domain, f Filters) (Page, error) {
	lines, err := e.searchLines(ctx, domain, ledger.SearchOptions{
		Limit: exportMaxRows,
		Order: "date asc, id asc",
	})
	if err != nil {
		if ctx.Err() != nil {
			return Page{}, ctx.Err()
		}
		e.warn("line read unavailable", err)
		return newPage(nil, f, 0), nil
	}

	rows := e.enrich(ctx, lines, f)
	total := len(rows)
	start := f.Offset()
	if start < 0 || start > total {
		start = total
	}
	end := total
	if f.PerPage > 0 && start+f.PerPage < total {
		end = start + f.PerPage
	}
	return newPage(rows[start:end], f, total), nil
}

// Export is the deliberate full-dump path used by file exports: the
// whole filtered line set in one pass, no pagination.
func (e *Engine) Export(ctx context.Context, f Filters) ([]ReportRow, error) {
	domain := BuildDomain(f, e.profile, e.channelName(ctx, f.ChannelID))
	lines, err := e.searchLines(ctx, domain, ledger.SearchOptions{
		Limit: exportMaxRows,
		Order: "date asc, id asc",
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.warn("export read unavailable", err)
		return []ReportRow{}, nil
	}
	return e.enrich(ctx, lines, f), nil
}

func (e *Engine) searchLines(ctx context.Context, domain *ledger.Domain, opts ledger.SearchOptions) ([]LedgerLine, error) {
	records, err := e.source.SearchRead(ctx, ledger.EntityLine, domain, lineFields, opts)
	if err != nil {
		return nil, err
	}
	lines := make([]LedgerLine, 0, len(records))
	for _, rec := range records {
		lines = append(lines, lineFromRecord(rec))
	}
	return lines, nil
}

// enrich runs the fork-join entity fetch, resolves reconciliation facts
// when a cutoff is requested and composes the final rows.
func (e *Engine) enrich(ctx context.Context, lines []LedgerLine, f Filters) []ReportRow {
	if len(lines) == 0 {
		return []ReportRow{}
	}
	rel := e.fetchRelated(ctx, lines)

	var facts map[int64]ReconciliationFact
	if f.Historical() {
		resolved, err := e.resolveReconciliation(ctx, lines, f.CutoffDate)
		if err != nil {
			// Without the matching history the balance cannot be moved
			// back in time; report current residuals instead of failing
			// the page.
			e.warn("reconciliation history unavailable", err)
			resolved = map[int64]ReconciliationFact{}
		}
		facts = resolved
	}

	asOf := f.AsOf(e.now())
	rows := make([]ReportRow, 0, len(lines))
	for _, line := range lines {
		if row, keep := e.composeRow(line, rel, facts, f, asOf); keep {
			rows = append(rows, row)
		}
	}
	return rows
}

// SummaryByAccount aggregates the filtered lines per account. Without a
// cutoff it uses the remote group-by fast path and never touches
// individual rows; a cutoff forces full composition because historical
// residuals cannot be aggregated remotely.
func (e *Engine) SummaryByAccount(ctx context.Context, f Filters) (Summary, error) {
	if f.Historical() {
		rows, err := e.Export(ctx, f)
		if err != nil {
			return Summary{}, err
		}
		return SummarizeByAccount(rows), nil
	}

	domain := BuildDomain(f, e.profile, e.channelName(ctx, f.ChannelID))
	groups, err := e.source.ReadGroup(ctx, ledger.EntityLine, domain,
		[]string{"debit", "credit", "amount_residual"}, []string{"account_id"})
	if err != nil {
		if ctx.Err() != nil {
			return Summary{}, ctx.Err()
		}
		e.warn("summary group-by unavailable", err)
		return Summary{Overall: GroupTotals{Key: "overall"}, Groups: []GroupTotals{}}, nil
	}

	accountIDs := make([]int64, 0, len(groups))
	for _, g := range groups {
		if ref := g.Ref("account_id"); ref.Valid() {
			accountIDs = append(accountIDs, ref.ID)
		}
	}
	codes := e.accountCodes(ctx, accountIDs)

	summary := Summary{Overall: GroupTotals{Key: "overall"}}
	for _, g := range groups {
		ref := g.Ref("account_id")
		acc := codes[ref.ID]
		key := acc.Code
		if key == "" {
			key = unknownKey
		}
		grp := GroupTotals{
			Key:    key,
			Name:   acc.Name,
			Debit:  g.Float("debit"),
			Credit: g.Float("credit"),
			// The remote folds signs before this absolute value, so a
			// group holding mixed-sign residuals reads lower here than
			// the per-line |residual| sum of the composed path.
			PendingAtCutoff: math.Abs(g.Float("amount_residual")),
			Count:           int(g.Int("__count")),
		}
		grp.Saldo = grp.Debit - grp.Credit
		summary.Groups = append(summary.Groups, grp)

		summary.Overall.Debit += grp.Debit
		summary.Overall.Credit += grp.Credit
		summary.Overall.PendingAtCutoff += grp.PendingAtCutoff
		summary.Overall.Count += grp.Count
	}
	summary.Overall.Saldo = summary.Overall.Debit - summary.Overall.Credit
	sortGroups(summary.Groups)
	return summary, nil
}

// SummaryByCounterparty aggregates the filtered lines per customer or
// supplier via full composition.
func (e *Engine) SummaryByCounterparty(ctx context.Context, f Filters) (Summary, error) {
	rows, err := e.Export(ctx, f)
	if err != nil {
		return Summary{}, err
	}
	return SummarizeByCounterparty(rows), nil
}

// SummaryByAging aggregates the filtered lines per aging band.
func (e *Engine) SummaryByAging(ctx context.Context, f Filters) (Summary, error) {
	rows, err := e.Export(ctx, f)
	if err != nil {
		return Summary{}, err
	}
	return SummarizeByAging(rows), nil
}

func (e *Engine) accountCodes(ctx context.Context, ids []int64) map[int64]Account {
	out := map[int64]Account{}
	if len(ids) == 0 {
		return out
	}
	records, err := e.source.Read(ctx, ledger.EntityAccount, ids, accountFields)
	if err != nil {
		e.warn("account code lookup degraded", err)
		return out
	}
	for _, rec := range records {
		acc := accountFromRecord(rec)
		out[acc.ID] = acc
	}
	return out
}

// channelName resolves the display name of a channel filter, empty when
// unavailable. The nationality heuristic then simply does not apply.
func (e *Engine) channelName(ctx context.Context, channelID int64) string {
	if channelID == 0 {
		return ""
	}
	records, err := e.source.Read(ctx, ledger.EntityChannel, []int64{channelID}, []string{"id", "name"})
	if err != nil || len(records) == 0 {
		if err != nil {
			e.warn("channel lookup degraded", err)
		}
		return ""
	}
	return records[0].Str("name")
}

// Option is one selectable value for a report filter dropdown.
type Option struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// FilterOptions lists the selectable channels and document types.
type FilterOptions struct {
	SalesChannels []Option `json:"sales_channels,omitempty"`
	DocumentTypes []Option `json:"document_types"`
}

// FilterOptionsFor reads the dropdown options for the family. Either
// list degrades to empty on source failure.
func (e *Engine) FilterOptionsFor(ctx context.Context) (FilterOptions, error) {
	opts := FilterOptions{DocumentTypes: []Option{}}
	if e.profile.FetchChannels {
		opts.SalesChannels = e.listOptions(ctx, ledger.EntityChannel)
	}
	opts.DocumentTypes = e.listOptions(ctx, ledger.EntityDocumentType)
	return opts, ctx.Err()
}

func (e *Engine) listOptions(ctx context.Context, entity string) []Option {
	records, err := e.source.SearchRead(ctx, entity, &ledger.Domain{},
		[]string{"id", "name"}, ledger.SearchOptions{Order: "name asc"})
	if err != nil {
		e.warn("filter option lookup degraded", err)
		return []Option{}
	}
	out := make([]Option, 0, len(records))
	for _, rec := range records {
		out = append(out, Option{ID: rec.ID(), Name: rec.Str("name")})
	}
	return out
}

func sortGroups(groups []GroupTotals) {
	for i := 1; i < len(groups); i++ {
		for j := i; j > 0 && groups[j-1].Key > groups[j].Key; j-- {
			groups[j-1], groups[j] = groups[j], groups[j-1]
		}
	}
}
