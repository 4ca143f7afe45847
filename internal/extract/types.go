package extract

import "github.com/shopspring/decimal"

// Category identifies one kind of Vinted notification email. Each category
// has its own extractor, its own Gmail query upstream and its own spreadsheet
// layout downstream.
type Category string

const (
	CategoryPurchase Category = "purchase"
	CategoryBoost    Category = "boost"
	CategoryShowcase Category = "showcase"
	CategoryTransfer Category = "transfer"
	CategoryRefund   Category = "refund"
	CategorySale     Category = "sale"
)

// PurchaseRecord holds the fields of a purchase receipt email. Monetary
// fields keep the localized string exactly as captured ("12,50") because the
// purchase tabs have always stored that form; conversion happens only for
// the net shipping computation.
type PurchaseRecord struct {
	Beneficiary   string
	ArticleLabel  string
	TotalPaid     string
	ShippingFee   string
	OrderAmount   string
	ProtectionFee string
	PaymentDate   string
	TransactionID string
	Discount      string
	PaymentMethod string
}

// Empty reports whether no field matched at all. The extractor itself never
// rejects a record; callers discard empty ones.
func (r PurchaseRecord) Empty() bool {
	return r == PurchaseRecord{}
}

// PromotionRecord is shared by the boost and showcase ("Dressing en Vitrine")
// invoice emails. Unlike purchases, these tabs store numbers, so monetary
// fields are converted at extraction time; an invalid NullDecimal means the
// anchor was not found.
type PromotionRecord struct {
	BoostDate     string
	BoostAmount   decimal.NullDecimal
	Discount      decimal.NullDecimal
	Total         decimal.NullDecimal
	PaymentMethod string
}

// Empty reports whether no field beyond the message-derived date matched.
func (r PromotionRecord) Empty() bool {
	return !r.BoostAmount.Valid && !r.Discount.Valid && !r.Total.Valid && r.PaymentMethod == ""
}

// TransferRecord holds the fields of a bank transfer notification.
type TransferRecord struct {
	Beneficiary          string
	Amount               string
	Account              string
	IssueDate            string
	EstimatedReceiptDate string
}

// RefundRecord holds the fields of a refund notification. The estimated
// refund date can be the literal wallet marker phrase when the refund went
// to the Vinted wallet without a stated date.
type RefundRecord struct {
	Recipient           string
	OrderLabel          string
	Amount              string
	PaymentMethod       string
	TransactionID       string
	EstimatedRefundDate string
	MailReceivedDate    string
}

// SaleRecord holds the buyer details of a sale notification. The address
// subfields are positional; a short address line leaves trailing fields as
// empty strings rather than failing extraction.
type SaleRecord struct {
	BuyerEmail  string
	Name        string
	Street      string
	City        string
	PostalCode  string
	Country     string
	CountryText string
}
