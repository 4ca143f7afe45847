package extract

import (
	"regexp"
	"time"

	"vinted-ledger/internal/normalize"
)

// WalletMarker is the phrase identifying a refund issued to the Vinted
// wallet. When the email states no refund date, the phrase itself is
// recorded in the date column so the row still says where the money went.
const WalletMarker = "porte-monnaie Vinted"

var refundRules = struct {
	recipient      fieldRule
	orderLabel     fieldRule
	amount         fieldRule
	transactionID  fieldRule
	paymentMethod  []fieldRule
	structuredDate fieldRule
	walletDate     *regexp.Regexp
}{
	recipient:     fieldRule{"recipient", regexp.MustCompile(`Destinataire\s*:\s*(.+?)\s+Commande`), nil},
	orderLabel:    fieldRule{"order_label", regexp.MustCompile(`Commande\s*:\s*(.+?)\s+Montant remboursé`), nil},
	amount:        fieldRule{"amount", regexp.MustCompile(`Montant remboursé\s*:\s*([\d,]+)`), nil},
	transactionID: fieldRule{"transaction_id", regexp.MustCompile(`N° de transaction\s*:\s*(\d+)`), nil},
	paymentMethod: []fieldRule{
		{"payment_method", regexp.MustCompile(`Moyen de paiement\s*:\s*(.+?)\s+(?:N°|Date)`), nil},
		{"refunded_to", regexp.MustCompile(`Remboursé sur\s*:\s*(.+?)\s+(?:N°|Date)`), nil},
		{"payment_method_eol", regexp.MustCompile(`Moyen de paiement\s*:\s*(.+?)$`), nil},
		{"refunded_to_eol", regexp.MustCompile(`Remboursé sur\s*:\s*(.+?)$`), nil},
	},
	structuredDate: fieldRule{"estimated_refund_date", regexp.MustCompile(`Date estimée du remboursement\s*:\s*(\d{2}/\d{2}/\d{4})`), nil},
	walletDate:     regexp.MustCompile(`(?i)porte-monnaie Vinted(?:\s+le\s+(\d{2}/\d{2}/\d{4}))?`),
}

// ExtractRefund extracts a refund notification. The estimated refund date
// has a two-tier fallback: a structured date first, then the wallet marker
// phrase — with its own trailing date if one follows, otherwise the literal
// phrase. receivedAt is the message internalDate in epoch milliseconds.
func ExtractRefund(text, receivedAt string) RefundRecord {
	return RefundRecord{
		Recipient:           refundRules.recipient.match(text),
		OrderLabel:          refundRules.orderLabel.match(text),
		Amount:              refundRules.amount.match(text),
		PaymentMethod:       firstMatch(text, refundRules.paymentMethod),
		TransactionID:       refundRules.transactionID.match(text),
		EstimatedRefundDate: refundDate(text),
		MailReceivedDate:    normalize.FormatEpochMillis(receivedAt, time.Local),
	}
}

func refundDate(text string) string {
	if v := refundRules.structuredDate.match(text); v != "" {
		return v
	}
	m := refundRules.walletDate.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return WalletMarker
}
