package extract

import (
	"regexp"
	"time"

	"vinted-ledger/internal/normalize"
)

// Boost invoices are stamped in Europe/Paris regardless of where the job
// runs, because historical boost rows were written by a Paris-zoned system
// and the tabs mix old and new rows. Showcase invoices have always used the
// process-local zone. The asymmetry is an existing convention to preserve,
// per-category, not to unify.
var (
	boostZone    = parisOrLocal()
	showcaseZone = time.Local
)

func parisOrLocal() *time.Location {
	if loc, err := time.LoadLocation("Europe/Paris"); err == nil {
		return loc
	}
	return time.Local
}

var promotionRules = struct {
	boostAmount    fieldRule
	showcaseAmount []fieldRule
	discount       fieldRule
	total          fieldRule
	paymentMethod  []fieldRule
}{
	boostAmount: fieldRule{"boost_amount", regexp.MustCompile(`Montant du boost\s*:\s*([\d,]+)`), nil},
	showcaseAmount: []fieldRule{
		{"showcase_amount", regexp.MustCompile(`Montant de la Vitrine\s*:\s*([\d,]+)`), nil},
		{"showcase_amount_generic", regexp.MustCompile(`Montant\s*:\s*([\d,]+)`), nil},
	},
	discount: fieldRule{"discount", regexp.MustCompile(`Réduction\s*:\s*([\d,]+)`), nil},
	total:    fieldRule{"total", regexp.MustCompile(`Total\s*:\s*([\d,]+)`), nil},
	paymentMethod: []fieldRule{
		{"payment_method", regexp.MustCompile(`Moyen de paiement\s*:\s*(.+?)\s+(?:Total|Montant|N°)`), nil},
		{"payment_method_eol", regexp.MustCompile(`Moyen de paiement\s*:\s*(.+?)$`), nil},
	},
}

// ExtractBoost extracts a boost invoice ("Articles boostés : ta facture").
// receivedAt is the message internalDate, epoch milliseconds as a string;
// the boost date is derived from it since the invoice body carries no date.
func ExtractBoost(text, receivedAt string) PromotionRecord {
	return PromotionRecord{
		BoostDate:     normalize.FormatEpochMillis(receivedAt, boostZone),
		BoostAmount:   normalize.ToDecimal(promotionRules.boostAmount.match(text)),
		Discount:      normalize.ToDecimal(promotionRules.discount.match(text)),
		Total:         normalize.ToDecimal(promotionRules.total.match(text)),
		PaymentMethod: firstMatch(text, promotionRules.paymentMethod),
	}
}

// ExtractShowcase extracts a showcase invoice ("Dressing en Vitrine - Ta
// facture"). Same record shape as boosts; the two land in the same tabs.
func ExtractShowcase(text, receivedAt string) PromotionRecord {
	return PromotionRecord{
		BoostDate:     normalize.FormatEpochMillis(receivedAt, showcaseZone),
		BoostAmount:   normalize.ToDecimal(firstMatch(text, promotionRules.showcaseAmount)),
		Discount:      normalize.ToDecimal(promotionRules.discount.match(text)),
		Total:         normalize.ToDecimal(promotionRules.total.match(text)),
		PaymentMethod: firstMatch(text, promotionRules.paymentMethod),
	}
}
