package pipeline

import (
	"time"

	"github.com/shopspring/decimal"

	"vinted-ledger/internal/config"
	"vinted-ledger/internal/extract"
	"vinted-ledger/internal/gmail"
	"vinted-ledger/internal/normalize"
	"vinted-ledger/internal/sheets"
)

// Label names are Gmail-side state: renaming one reprocesses every message
// that carried the old name.
const (
	labelPurchases = "vinted-achats"
	labelBoosts    = "vinted-boost"
	labelTransfers = "vinted-virements"
	labelRefunds   = "vinted-remboursements"
	labelSales     = "vinted-ventes"

	senderVinted = "no-reply@vinted.fr"

	// Only transfers and refunds keep undated rows; a dateless purchase or
	// promotion entry is dropped at reconcile time.
	undatedTab = "Sans date"
)

// Categories builds the full category table from the configured spreadsheet
// IDs. Order matters only for log readability; each category is independent.
// Boost and showcase invoices share one spreadsheet, one layout and one
// label: a showcase mail tagged vinted-boost is excluded from both queries.
func Categories(cfg *config.Config) []Category {
	comma := cfg.Sheets.CommaDecimals
	return []Category{
		{
			Name:          extract.CategoryPurchase,
			Query:         gmail.BuildQuery(senderVinted, "Ton reçu pour la commande", labelPurchases),
			Label:         labelPurchases,
			SpreadsheetID: cfg.Sheets.PurchasesID,
			Spec: sheets.TabSpec{
				Category: string(extract.CategoryPurchase),
				Header: []string{"Date", "Article", "Bénéficiaire", "Montant total",
					"Frais port", "Montant article", "Frais protection",
					"Transaction ID", "Moyen de paiement", "Vérifié"},
				KeyColumn:      7,
				SumColumns:     []int{3, 4, 5, 6},
				CheckboxColumn: 9,
				MonthTabbed:    true,
			},
			Build: func(text, receivedAt string) (sheets.Entry, bool) {
				return buildPurchase(text, comma)
			},
		},
		{
			Name:          extract.CategoryBoost,
			Query:         gmail.BuildQuery(senderVinted, "Articles boostés : ta facture", labelBoosts),
			Label:         labelBoosts,
			SpreadsheetID: cfg.Sheets.PromotionsID,
			Spec:          promotionSpec(extract.CategoryBoost),
			Build: func(text, receivedAt string) (sheets.Entry, bool) {
				return buildPromotion(extract.ExtractBoost(text, receivedAt))
			},
		},
		{
			Name:          extract.CategoryShowcase,
			Query:         gmail.BuildQuery(senderVinted, "Dressing en Vitrine - Ta facture", labelBoosts),
			Label:         labelBoosts,
			SpreadsheetID: cfg.Sheets.PromotionsID,
			Spec:          promotionSpec(extract.CategoryShowcase),
			Build: func(text, receivedAt string) (sheets.Entry, bool) {
				return buildPromotion(extract.ExtractShowcase(text, receivedAt))
			},
		},
		{
			Name:          extract.CategoryTransfer,
			Query:         gmail.BuildQuery(senderVinted, "Ton transfert est en route", labelTransfers),
			Label:         labelTransfers,
			SpreadsheetID: cfg.Sheets.TransfersID,
			Spec: sheets.TabSpec{
				Category: string(extract.CategoryTransfer),
				Header: []string{"Date d'émission", "Date de réception estimée",
					"Bénéficiaire", "Montant", "Compte"},
				KeyColumn:      -1,
				SumColumns:     []int{3},
				CheckboxColumn: -1,
				MonthTabbed:    true,
				UndatedTitle:   undatedTab,
			},
			Build: func(text, receivedAt string) (sheets.Entry, bool) {
				return buildTransfer(text)
			},
		},
		{
			Name:          extract.CategoryRefund,
			Query:         gmail.BuildQuery(senderVinted, "Ton remboursement", labelRefunds),
			Label:         labelRefunds,
			SpreadsheetID: cfg.Sheets.RefundsID,
			Spec: sheets.TabSpec{
				Category: string(extract.CategoryRefund),
				Header: []string{"Date de réception du mail", "Date de remboursement",
					"Commande", "Montant", "Moyen de paiement", "Transaction ID",
					"Destinataire"},
				KeyColumn:      5,
				SumColumns:     []int{3},
				CheckboxColumn: -1,
				MonthTabbed:    true,
				UndatedTitle:   undatedTab,
			},
			Build: buildRefund,
		},
		{
			Name:          extract.CategorySale,
			Query:         gmail.BuildQuery(senderVinted, "Ton article s'est vendu", labelSales),
			Label:         labelSales,
			SpreadsheetID: cfg.Sheets.SalesID,
			Spec: sheets.TabSpec{
				Category: string(extract.CategorySale),
				Header: []string{"Date de réception du mail", "E-mail acheteur", "Nom",
					"Rue", "Ville", "Code postal", "Pays", "Pays (texte)"},
				KeyColumn:      -1,
				SumColumns:     nil,
				CheckboxColumn: -1,
				FixedTitle:     "Ventes",
			},
			Build: buildSale,
		},
	}
}

func promotionSpec(cat extract.Category) sheets.TabSpec {
	return sheets.TabSpec{
		Category: string(cat),
		Header: []string{"Date", "Montant boost", "Réduction", "Total",
			"Moyen de paiement", "Vérifié"},
		KeyColumn:      -1,
		SumColumns:     []int{1, 2, 3},
		CheckboxColumn: 5,
		MonthTabbed:    true,
	}
}

func buildPurchase(text string, commaDecimals bool) (sheets.Entry, bool) {
	rec := extract.ExtractPurchase(text)
	if rec.Empty() {
		return sheets.Entry{}, false
	}
	date, hasDate := normalize.ParseRecordDate(rec.PaymentDate)
	return sheets.Entry{
		Date:    date,
		HasDate: hasDate,
		Key:     rec.TransactionID,
		Cells: []interface{}{
			rec.PaymentDate,
			rec.ArticleLabel,
			rec.Beneficiary,
			rec.TotalPaid,
			normalize.NetShipping(rec.ShippingFee, rec.Discount, commaDecimals),
			rec.OrderAmount,
			rec.ProtectionFee,
			rec.TransactionID,
			rec.PaymentMethod,
			false,
		},
	}, true
}

func buildPromotion(rec extract.PromotionRecord) (sheets.Entry, bool) {
	if rec.Empty() {
		return sheets.Entry{}, false
	}
	date, hasDate := normalize.ParseRecordDate(rec.BoostDate)
	return sheets.Entry{
		Date:    date,
		HasDate: hasDate,
		Cells: []interface{}{
			rec.BoostDate,
			numberCell(rec.BoostAmount),
			numberCell(rec.Discount),
			numberCell(rec.Total),
			rec.PaymentMethod,
			false,
		},
	}, true
}

func buildTransfer(text string) (sheets.Entry, bool) {
	rec := extract.ExtractTransfer(text)
	if rec == (extract.TransferRecord{}) {
		return sheets.Entry{}, false
	}
	date, hasDate := normalize.ParseRecordDate(rec.IssueDate)
	return sheets.Entry{
		Date:    date,
		HasDate: hasDate,
		Cells: []interface{}{
			rec.IssueDate,
			rec.EstimatedReceiptDate,
			rec.Beneficiary,
			rec.Amount,
			rec.Account,
		},
	}, true
}

// buildRefund buckets by mail arrival, not by the estimated refund date: the
// estimate can be a future date or the wallet marker phrase, neither of which
// names the month the money actually moved.
func buildRefund(text, receivedAt string) (sheets.Entry, bool) {
	rec := extract.ExtractRefund(text, receivedAt)
	date, hasDate := normalize.ParseRecordDate(rec.MailReceivedDate)
	return sheets.Entry{
		Date:    date,
		HasDate: hasDate,
		Key:     rec.TransactionID,
		Cells: []interface{}{
			rec.MailReceivedDate,
			rec.EstimatedRefundDate,
			rec.OrderLabel,
			rec.Amount,
			rec.PaymentMethod,
			rec.TransactionID,
			rec.Recipient,
		},
	}, true
}

func buildSale(text, receivedAt string) (sheets.Entry, bool) {
	rec := extract.ExtractSale(text)
	received := normalize.FormatEpochMillis(receivedAt, time.Local)
	date, hasDate := normalize.ParseRecordDate(received)
	return sheets.Entry{
		Date:    date,
		HasDate: hasDate,
		Cells: []interface{}{
			received,
			rec.BuyerEmail,
			rec.Name,
			rec.Street,
			rec.City,
			rec.PostalCode,
			rec.Country,
			rec.CountryText,
		},
	}, true
}

// numberCell renders an absent amount as an empty cell instead of zero so a
// missed anchor never pollutes the SUM formulas.
func numberCell(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return ""
	}
	f, _ := d.Decimal.Float64()
	return f
}
