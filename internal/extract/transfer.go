package extract

import "regexp"

var transferRules = struct {
	beneficiary   fieldRule
	amount        fieldRule
	account       fieldRule
	issueDate     fieldRule
	estimatedDate fieldRule
}{
	beneficiary:   fieldRule{"beneficiary", regexp.MustCompile(`Bénéficiaire\s*:\s*(.+?)\s+Montant`), nil},
	amount:        fieldRule{"amount", regexp.MustCompile(`Montant\s*:\s*([\d,]+)`), nil},
	account:       fieldRule{"account", regexp.MustCompile(`Compte\s*:\s*(.+?)(?:\s+Date d['’]émission|$)`), nil},
	issueDate:     fieldRule{"issue_date", regexp.MustCompile(`Date d['’]émission\s*:\s*(\d{2}/\d{2}/\d{4})`), nil},
	estimatedDate: fieldRule{"estimated_receipt_date", regexp.MustCompile(`Date de réception estimée\s*:\s*(\d{2}/\d{2}/\d{4})`), nil},
}

// ExtractTransfer extracts a bank transfer notification. Transfers have no
// reliable required field; a record with only some fields is still returned
// and an undated one lands in the "Sans date" tab downstream.
func ExtractTransfer(text string) TransferRecord {
	return TransferRecord{
		Beneficiary:          transferRules.beneficiary.match(text),
		Amount:               transferRules.amount.match(text),
		Account:              transferRules.account.match(text),
		IssueDate:            transferRules.issueDate.match(text),
		EstimatedReceiptDate: transferRules.estimatedDate.match(text),
	}
}
