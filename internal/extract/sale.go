package extract

import (
	"regexp"
	"strings"
)

var saleRules = struct {
	buyerEmail  fieldRule
	addressLine fieldRule
}{
	buyerEmail:  fieldRule{"buyer_email", regexp.MustCompile(`E-mail de l['’]acheteur\s*:\s*(\S+@\S+)`), nil},
	addressLine: fieldRule{"address_line", regexp.MustCompile(`Adresse de livraison\s*:\s*(.+?)(?:\s+E-mail|$)`), nil},
}

// ExtractSale extracts the buyer details from a sale notification. The
// shipping address is one comma-delimited line split into six positional
// subfields; a shorter line pads the trailing subfields with empty strings.
func ExtractSale(text string) SaleRecord {
	rec := SaleRecord{
		BuyerEmail: saleRules.buyerEmail.match(text),
	}

	line := saleRules.addressLine.match(text)
	if line == "" {
		return rec
	}

	parts := strings.Split(line, ",")
	get := func(i int) string {
		if i < len(parts) {
			return strings.TrimSpace(parts[i])
		}
		return ""
	}
	rec.Name = get(0)
	rec.Street = get(1)
	rec.City = get(2)
	rec.PostalCode = get(3)
	rec.Country = get(4)
	rec.CountryText = get(5)
	return rec
}
