package extract

import (
	"regexp"
	"strings"
)

// Anchor patterns for purchase receipts ("Ton reçu pour la commande").
// Values are delimited by the next label because the input text has all
// whitespace collapsed to single spaces.
var purchaseRules = struct {
	beneficiary   fieldRule
	article       fieldRule
	totalPaid     fieldRule
	shippingFee   fieldRule
	orderAmount   fieldRule
	protectionFee fieldRule
	paymentDate   fieldRule
	transactionID fieldRule
	discount      fieldRule
	paymentMethod []fieldRule
}{
	beneficiary:   fieldRule{"beneficiary", regexp.MustCompile(`Bénéficiaire\s*:\s*(.+?)\s+Commande\s*:`), nil},
	article:       fieldRule{"article", regexp.MustCompile(`Commande\s*:\s*(.+?)\s+Montant payé`), nil},
	totalPaid:     fieldRule{"total_paid", regexp.MustCompile(`Montant payé\s*:\s*([\d,]+)`), nil},
	shippingFee:   fieldRule{"shipping_fee", regexp.MustCompile(`frais de port\s*:\s*([\d,]+)`), nil},
	orderAmount:   fieldRule{"order_amount", regexp.MustCompile(`commande\s*:\s*([\d,]+)`), nil},
	protectionFee: fieldRule{"protection_fee", regexp.MustCompile(`Protection acheteurs\s*:\s*([\d,]+)`), nil},
	paymentDate:   fieldRule{"payment_date", regexp.MustCompile(`Date du paiement\s*:\s*([0-9:\-\s]+)`), strings.TrimSpace},
	transactionID: fieldRule{"transaction_id", regexp.MustCompile(`N° de transaction\s*:\s*(\d+)`), nil},
	discount:      fieldRule{"discount", regexp.MustCompile(`Réduction\s*:\s*([\d,]+) ?€?`), nil},
	paymentMethod: []fieldRule{
		{"payment_method", regexp.MustCompile(`Moyen de paiement\s*:\s*(.+?)\s+(?:N° de transaction|Date du paiement)`), nil},
		{"payment_method_eol", regexp.MustCompile(`Moyen de paiement\s*:\s*(.+?)$`), nil},
	},
}

// ExtractPurchase extracts a purchase record from the collapsed body text of
// a receipt email. Monetary fields stay as captured localized strings. Every
// field can independently be absent; callers drop records that are Empty.
func ExtractPurchase(text string) PurchaseRecord {
	return PurchaseRecord{
		Beneficiary:   purchaseRules.beneficiary.match(text),
		ArticleLabel:  purchaseRules.article.match(text),
		TotalPaid:     purchaseRules.totalPaid.match(text),
		ShippingFee:   purchaseRules.shippingFee.match(text),
		OrderAmount:   purchaseRules.orderAmount.match(text),
		ProtectionFee: purchaseRules.protectionFee.match(text),
		PaymentDate:   purchaseRules.paymentDate.match(text),
		TransactionID: purchaseRules.transactionID.match(text),
		Discount:      purchaseRules.discount.match(text),
		PaymentMethod: firstMatch(text, purchaseRules.paymentMethod),
	}
}
