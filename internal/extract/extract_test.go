package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"vinted-ledger/internal/normalize"
)

// 2024-03-15 10:00:00 UTC
const receivedAtFixture = "1710496800000"

const purchaseHTML = `<html><body>
<h1>Ton reçu pour la commande</h1>
<p>Bénéficiaire : Marie Dupont</p>
<p>Commande : Robe vintage fleurie</p>
<p>Montant payé : 18,70 €</p>
<p>Dont commande : 15,00 €</p>
<p>Dont frais de port : 2,50 €</p>
<p>Dont Protection acheteurs : 1,20 €</p>
<p>Date du paiement : 2024-03-15 10:00</p>
<p>N° de transaction : 123456789</p>
<p>Moyen de paiement : Visa **** 4242</p>
</body></html>`

func TestBodyText(t *testing.T) {
	html := `<html><head><style>body { color: red; }</style></head><body>
	<script>var x = 1;</script>
	<p>Montant&nbsp;payé : <b>18,70</b> €</p>
	<div>  N° de   transaction :
	123456789</div></body></html>`

	got := BodyText(html)
	assert.Equal(t, "Montant payé : 18,70 € N° de transaction : 123456789", got)
}

func TestExtractPurchase(t *testing.T) {
	rec := ExtractPurchase(BodyText(purchaseHTML))

	assert.Equal(t, "Marie Dupont", rec.Beneficiary)
	assert.Equal(t, "Robe vintage fleurie", rec.ArticleLabel)
	assert.Equal(t, "18,70", rec.TotalPaid)
	assert.Equal(t, "2,50", rec.ShippingFee)
	assert.Equal(t, "15,00", rec.OrderAmount)
	assert.Equal(t, "1,20", rec.ProtectionFee)
	assert.Equal(t, "2024-03-15 10:00", rec.PaymentDate)
	assert.Equal(t, "123456789", rec.TransactionID)
	assert.Equal(t, "", rec.Discount)
	assert.Equal(t, "Visa **** 4242", rec.PaymentMethod)
	assert.False(t, rec.Empty())
}

func TestExtractPurchaseWithDiscount(t *testing.T) {
	text := BodyText(`<html><body>
	<p>Bénéficiaire : Jean Martin</p>
	<p>Commande : Baskets montantes</p>
	<p>Montant payé : 10,00 €</p>
	<p>Réduction : 1,50 €</p>
	<p>N° de transaction : 42</p>
	</body></html>`)

	rec := ExtractPurchase(text)
	assert.Equal(t, "1,50", rec.Discount)
	assert.Equal(t, "42", rec.TransactionID)
	// Fields with no anchor in the body stay absent without error.
	assert.Equal(t, "", rec.ShippingFee)
	assert.Equal(t, "", rec.PaymentDate)
}

func TestExtractPurchaseNoAnchors(t *testing.T) {
	rec := ExtractPurchase(BodyText("<html><body><p>Newsletter du mois</p></body></html>"))
	assert.True(t, rec.Empty())
}

func TestExtractBoost(t *testing.T) {
	text := BodyText(`<html><body>
	<h1>Articles boostés : ta facture</h1>
	<p>Montant du boost : 1,95 €</p>
	<p>Réduction : 0,30 €</p>
	<p>Total : 1,65 €</p>
	<p>Moyen de paiement : Porte-monnaie Vinted</p>
	</body></html>`)

	rec := ExtractBoost(text, receivedAtFixture)

	assert.Equal(t, normalize.FormatEpochMillis(receivedAtFixture, boostZone), rec.BoostDate)
	assert.True(t, rec.BoostAmount.Valid)
	assert.Equal(t, "1.95", rec.BoostAmount.Decimal.String())
	assert.True(t, rec.Discount.Valid)
	assert.Equal(t, "0.3", rec.Discount.Decimal.String())
	assert.True(t, rec.Total.Valid)
	assert.Equal(t, "1.65", rec.Total.Decimal.String())
	assert.Equal(t, "Porte-monnaie Vinted", rec.PaymentMethod)
	assert.False(t, rec.Empty())
}

func TestExtractBoostAbsentAmounts(t *testing.T) {
	rec := ExtractBoost(BodyText("<html><body><p>Ta facture est disponible.</p></body></html>"), receivedAtFixture)

	// Absent monetary fields propagate as invalid, never as zero.
	assert.False(t, rec.BoostAmount.Valid)
	assert.False(t, rec.Discount.Valid)
	assert.False(t, rec.Total.Valid)
	assert.True(t, rec.Empty())
}

func TestExtractShowcase(t *testing.T) {
	text := BodyText(`<html><body>
	<h1>Dressing en Vitrine - Ta facture</h1>
	<p>Montant de la Vitrine : 6,95 €</p>
	<p>Total : 6,95 €</p>
	</body></html>`)

	rec := ExtractShowcase(text, receivedAtFixture)
	assert.Equal(t, normalize.FormatEpochMillis(receivedAtFixture, time.Local), rec.BoostDate)
	assert.True(t, rec.BoostAmount.Valid)
	assert.Equal(t, "6.95", rec.BoostAmount.Decimal.String())
	assert.False(t, rec.Discount.Valid)
}

func TestExtractShowcaseGenericAmountFallback(t *testing.T) {
	text := BodyText(`<html><body><p>Montant : 4,50 €</p><p>Total : 4,50 €</p></body></html>`)

	rec := ExtractShowcase(text, receivedAtFixture)
	assert.True(t, rec.BoostAmount.Valid)
	assert.Equal(t, "4.5", rec.BoostAmount.Decimal.String())
}

func TestExtractTransfer(t *testing.T) {
	text := BodyText(`<html><body>
	<h1>Ton transfert est en route</h1>
	<p>Bénéficiaire : Marie Dupont</p>
	<p>Montant : 45,00 €</p>
	<p>Compte : FR76 3000 6000 0112 3456 7890 189</p>
	<p>Date d'émission : 15/03/2024</p>
	<p>Date de réception estimée : 18/03/2024</p>
	</body></html>`)

	rec := ExtractTransfer(text)
	assert.Equal(t, "Marie Dupont", rec.Beneficiary)
	assert.Equal(t, "45,00", rec.Amount)
	assert.Equal(t, "FR76 3000 6000 0112 3456 7890 189", rec.Account)
	assert.Equal(t, "15/03/2024", rec.IssueDate)
	assert.Equal(t, "18/03/2024", rec.EstimatedReceiptDate)
}

func TestExtractTransferMissingDates(t *testing.T) {
	text := BodyText(`<html><body><p>Bénéficiaire : Jean Martin</p><p>Montant : 12,00 €</p></body></html>`)

	rec := ExtractTransfer(text)
	assert.Equal(t, "Jean Martin", rec.Beneficiary)
	assert.Equal(t, "", rec.IssueDate)
	assert.Equal(t, "", rec.EstimatedReceiptDate)
}

func TestExtractRefundStructuredDate(t *testing.T) {
	text := BodyText(`<html><body>
	<p>Destinataire : Marie Dupont</p>
	<p>Commande : Robe vintage fleurie</p>
	<p>Montant remboursé : 18,70 €</p>
	<p>Moyen de paiement : Visa **** 4242</p>
	<p>N° de transaction : 987654321</p>
	<p>Date estimée du remboursement : 20/03/2024</p>
	</body></html>`)

	rec := ExtractRefund(text, receivedAtFixture)
	assert.Equal(t, "Marie Dupont", rec.Recipient)
	assert.Equal(t, "Robe vintage fleurie", rec.OrderLabel)
	assert.Equal(t, "18,70", rec.Amount)
	assert.Equal(t, "Visa **** 4242", rec.PaymentMethod)
	assert.Equal(t, "987654321", rec.TransactionID)
	assert.Equal(t, "20/03/2024", rec.EstimatedRefundDate)
	assert.Equal(t, normalize.FormatEpochMillis(receivedAtFixture, time.Local), rec.MailReceivedDate)
}

func TestExtractRefundWalletWithDate(t *testing.T) {
	text := BodyText(`<html><body>
	<p>Montant remboursé : 9,50 €</p>
	<p>Le montant sera crédité sur ton porte-monnaie Vinted le 22/03/2024.</p>
	</body></html>`)

	rec := ExtractRefund(text, receivedAtFixture)
	assert.Equal(t, "22/03/2024", rec.EstimatedRefundDate)
}

func TestExtractRefundWalletMarkerOnly(t *testing.T) {
	text := BodyText(`<html><body>
	<p>Montant remboursé : 9,50 €</p>
	<p>Le montant a été crédité sur ton porte-monnaie Vinted.</p>
	</body></html>`)

	rec := ExtractRefund(text, receivedAtFixture)
	assert.Equal(t, WalletMarker, rec.EstimatedRefundDate)
}

func TestExtractRefundNoDate(t *testing.T) {
	text := BodyText(`<html><body><p>Montant remboursé : 9,50 €</p></body></html>`)

	rec := ExtractRefund(text, receivedAtFixture)
	assert.Equal(t, "", rec.EstimatedRefundDate)
}

func TestExtractSale(t *testing.T) {
	text := BodyText(`<html><body>
	<h1>Ton article s'est vendu !</h1>
	<p>Adresse de livraison : Marie Dupont, 12 rue de la Paix, Paris, 75002, FR, France</p>
	<p>E-mail de l'acheteur : marie.dupont@example.com</p>
	</body></html>`)

	rec := ExtractSale(text)
	assert.Equal(t, "marie.dupont@example.com", rec.BuyerEmail)
	assert.Equal(t, "Marie Dupont", rec.Name)
	assert.Equal(t, "12 rue de la Paix", rec.Street)
	assert.Equal(t, "Paris", rec.City)
	assert.Equal(t, "75002", rec.PostalCode)
	assert.Equal(t, "FR", rec.Country)
	assert.Equal(t, "France", rec.CountryText)
}

func TestExtractSaleShortAddress(t *testing.T) {
	text := BodyText(`<html><body>
	<p>Adresse de livraison : Jean Martin, 3 avenue Foch, Lyon</p>
	<p>E-mail de l'acheteur : jean@example.com</p>
	</body></html>`)

	rec := ExtractSale(text)
	assert.Equal(t, "Jean Martin", rec.Name)
	assert.Equal(t, "3 avenue Foch", rec.Street)
	assert.Equal(t, "Lyon", rec.City)
	// Trailing subfields default to empty strings, not extraction failure.
	assert.Equal(t, "", rec.PostalCode)
	assert.Equal(t, "", rec.Country)
	assert.Equal(t, "", rec.CountryText)
}

func TestExtractSaleNoAddress(t *testing.T) {
	rec := ExtractSale(BodyText(`<html><body><p>E-mail de l'acheteur : x@example.com</p></body></html>`))
	assert.Equal(t, "x@example.com", rec.BuyerEmail)
	assert.Equal(t, "", rec.Name)
}
