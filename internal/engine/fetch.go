package engine

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/quipu-reports/quipu/internal/ledger"
)

// Related holds the lookup maps produced by one enrichment pass over a
// page of lines. Maps are never nil; a failed optional lookup leaves
// its map empty.
type Related struct {
	Documents      map[int64]Document
	Counterparties map[int64]Counterparty
	Accounts       map[int64]Account
	Credits        map[int64]CreditInfo
	Banks          map[int64][]BankAccount
	GroupNames     map[int64]string
	BankDetails    map[int64]string
}

// GroupsFor renders the comma-joined group names of a counterparty.
func (r Related) GroupsFor(cp Counterparty) string {
	names := make([]string, 0, len(cp.GroupIDs))
	for _, gid := range cp.GroupIDs {
		if name := r.GroupNames[gid]; name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// fetchRelated retrieves every entity referenced by the given lines.
// The five primary reads are independent and run as a fork-join; the
// caller blocks until the slowest finishes. Group names and bank
// details depend on ids discovered in the counterparty read and run as
// a second wave. Optional lookups (credit records, groups, banks)
// degrade to empty maps on failure; the mandatory ones do too, because
// a missing reference only blanks fields on the affected rows.
func (e *Engine) fetchRelated(ctx context.Context, lines []LedgerLine) Related {
	rel := Related{
		Documents:      map[int64]Document{},
		Counterparties: map[int64]Counterparty{},
		Accounts:       map[int64]Account{},
		Credits:        map[int64]CreditInfo{},
		Banks:          map[int64][]BankAccount{},
		GroupNames:     map[int64]string{},
		BankDetails:    map[int64]string{},
	}
	if len(lines) == 0 {
		return rel
	}

	docIDs := collectIDs(lines, func(l LedgerLine) int64 { return l.Document.ID })
	cpIDs := collectIDs(lines, func(l LedgerLine) int64 { return l.Counterparty.ID })
	accIDs := collectIDs(lines, func(l LedgerLine) int64 { return l.Account.ID })

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		records, err := e.source.Read(gctx, ledger.EntityDocument, docIDs, documentFields)
		if err != nil {
			e.warn("document read degraded", err)
			return nil
		}
		for _, rec := range records {
			doc := documentFromRecord(rec)
			rel.Documents[doc.ID] = doc
		}
		return nil
	})

	g.Go(func() error {
		records, err := e.source.Read(gctx, ledger.EntityCounterparty, cpIDs, counterpartyFields)
		if err != nil {
			e.warn("counterparty read degraded", err)
			return nil
		}
		for _, rec := range records {
			cp := counterpartyFromRecord(rec)
			rel.Counterparties[cp.ID] = cp
		}
		return nil
	})

	g.Go(func() error {
		records, err := e.source.Read(gctx, ledger.EntityAccount, accIDs, accountFields)
		if err != nil {
			e.warn("account read degraded", err)
			return nil
		}
		for _, rec := range records {
			acc := accountFromRecord(rec)
			rel.Accounts[acc.ID] = acc
		}
		return nil
	})

	g.Go(func() error {
		domain := (&ledger.Domain{}).And("partner_id", "in", cpIDs)
		records, err := e.source.SearchRead(gctx, ledger.EntityCredit, domain,
			[]string{"id", "partner_id", "sub_channel_id"}, ledger.SearchOptions{})
		if err != nil {
			// The credit model is an optional add-on; its absence must
			// not abort the page.
			e.warn("credit record lookup degraded", err)
			return nil
		}
		for _, rec := range records {
			partner := rec.Ref("partner_id")
			rel.Credits[partner.ID] = CreditInfo{
				CounterpartyID: partner.ID,
				SubChannel:     rec.Ref("sub_channel_id"),
			}
		}
		return nil
	})

	if e.profile.FetchBanks {
		g.Go(func() error {
			domain := (&ledger.Domain{}).And("partner_id", "in", cpIDs)
			records, err := e.source.SearchRead(gctx, ledger.EntityBankAccount, domain,
				[]string{"id", "partner_id", "acc_number", "bank_id", "currency_id"}, ledger.SearchOptions{})
			if err != nil {
				e.warn("bank account lookup degraded", err)
				return nil
			}
			for _, rec := range records {
				partner := rec.Ref("partner_id")
				rel.Banks[partner.ID] = append(rel.Banks[partner.ID], BankAccount{
					ID:             rec.ID(),
					CounterpartyID: partner.ID,
					Number:         rec.Str("acc_number"),
					Bank:           rec.Ref("bank_id"),
					Currency:       rec.Ref("currency_id"),
				})
			}
			return nil
		})
	}

	_ = g.Wait()

	if ctx.Err() != nil {
		return rel
	}
	e.fetchDependent(ctx, &rel)
	return rel
}

// fetchDependent resolves ids only known after the counterparty read:
// named groups and bank master data.
func (e *Engine) fetchDependent(ctx context.Context, rel *Related) {
	groupIDs := map[int64]bool{}
	bankIDs := map[int64]bool{}
	for _, cp := range rel.Counterparties {
		for _, gid := range cp.GroupIDs {
			groupIDs[gid] = true
		}
	}
	for _, accounts := range rel.Banks {
		for _, ba := range accounts {
			if ba.Bank.Valid() {
				bankIDs[ba.Bank.ID] = true
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if len(groupIDs) > 0 {
		g.Go(func() error {
			records, err := e.source.Read(gctx, ledger.EntityGroup, keys(groupIDs), []string{"id", "name"})
			if err != nil {
				e.warn("group name lookup degraded", err)
				return nil
			}
			for _, rec := range records {
				rel.GroupNames[rec.ID()] = rec.Str("name")
			}
			return nil
		})
	}
	if len(bankIDs) > 0 {
		g.Go(func() error {
			records, err := e.source.Read(gctx, ledger.EntityBank, keys(bankIDs), []string{"id", "bic"})
			if err != nil {
				e.warn("bank detail lookup degraded", err)
				return nil
			}
			for _, rec := range records {
				rel.BankDetails[rec.ID()] = rec.Str("bic")
			}
			return nil
		})
	}
	_ = g.Wait()

	for partnerID, accounts := range rel.Banks {
		for i := range accounts {
			accounts[i].BIC = rel.BankDetails[accounts[i].Bank.ID]
		}
		rel.Banks[partnerID] = accounts
	}
}

func (e *Engine) warn(msg string, err error) {
	e.logger.Warn(msg, slog.String("report", e.profile.Name), slog.Any("error", err))
}

func collectIDs(lines []LedgerLine, pick func(LedgerLine) int64) []int64 {
	seen := map[int64]bool{}
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		id := pick(l)
		if id != 0 && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func keys(set map[int64]bool) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
