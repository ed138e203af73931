package payables

import (
	"context"

	"github.com/quipu-reports/quipu/internal/ledger"
)

// SupplierBank is one payable bank account with its owner.
type SupplierBank struct {
	SupplierID    int64  `json:"supplier_id"`
	SupplierName  string `json:"supplier_name"`
	TaxID         string `json:"tax_id"`
	AccountNumber string `json:"account_number"`
	BankName      string `json:"bank_name"`
	BIC           string `json:"bic"`
	Currency      string `json:"currency"`
}

// SupplierBanks lists supplier bank accounts, optionally narrowed by a
// case-insensitive supplier name match. Bank master data resolves in a
// second read and degrades to blank fields.
func (s *Service) SupplierBanks(ctx context.Context, nameFilter string) ([]SupplierBank, error) {
	domain := &ledger.Domain{}
	if nameFilter != "" {
		domain = domain.And("partner_id.name", "ilike", nameFilter)
	}
	records, err := s.source.SearchRead(ctx, ledger.EntityBankAccount, domain,
		[]string{"id", "partner_id", "acc_number", "bank_id", "currency_id"},
		ledger.SearchOptions{Order: "partner_id asc"})
	if err != nil {
		return nil, err
	}

	bankIDs := make([]int64, 0, len(records))
	partnerIDs := make([]int64, 0, len(records))
	seenBank := map[int64]bool{}
	seenPartner := map[int64]bool{}
	for _, rec := range records {
		if ref := rec.Ref("bank_id"); ref.Valid() && !seenBank[ref.ID] {
			seenBank[ref.ID] = true
			bankIDs = append(bankIDs, ref.ID)
		}
		if ref := rec.Ref("partner_id"); ref.Valid() && !seenPartner[ref.ID] {
			seenPartner[ref.ID] = true
			partnerIDs = append(partnerIDs, ref.ID)
		}
	}

	bics := map[int64]string{}
	if len(bankIDs) > 0 {
		banks, err := s.source.Read(ctx, ledger.EntityBank, bankIDs, []string{"id", "bic"})
		if err == nil {
			for _, rec := range banks {
				bics[rec.ID()] = rec.Str("bic")
			}
		}
	}
	taxIDs := map[int64]string{}
	if len(partnerIDs) > 0 {
		partners, err := s.source.Read(ctx, ledger.EntityCounterparty, partnerIDs, []string{"id", "vat"})
		if err == nil {
			for _, rec := range partners {
				taxIDs[rec.ID()] = rec.Str("vat")
			}
		}
	}

	out := make([]SupplierBank, 0, len(records))
	for _, rec := range records {
		partner := rec.Ref("partner_id")
		bank := rec.Ref("bank_id")
		out = append(out, SupplierBank{
			SupplierID:    partner.ID,
			SupplierName:  partner.Name,
			TaxID:         taxIDs[partner.ID],
			AccountNumber: rec.Str("acc_number"),
			BankName:      bank.Name,
			BIC:           bics[bank.ID],
			Currency:      rec.Ref("currency_id").Name,
		})
	}
	return out, nil
}
