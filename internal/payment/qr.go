package payment

import (
	"fmt"
	"net/url"
	"strconv"
)

// QRGateway builds static bank-transfer QR image URLs. There is no provider
// callback for transfers, so QR orders wait for an admin to confirm receipt
// against the bank statement.
type QRGateway struct {
	BankID      string
	AccountNo   string
	AccountName string
	Template    string
}

func NewQRGateway(bankID, accountNo, accountName, template string) *QRGateway {
	return &QRGateway{
		BankID:      bankID,
		AccountNo:   accountNo,
		AccountName: accountName,
		Template:    template,
	}
}

// TransferNote derives the transfer description the customer must include so
// the admin can match the incoming transfer to the order.
func TransferNote(orderNumber string) string {
	ref := orderNumber
	if len(ref) > 8 {
		ref = ref[len(ref)-8:]
	}
	return "DH" + ref
}

// BuildImageURL returns the QR image URL for a transfer of amount with the
// given description, rendered by the img.vietqr.io service.
func (g *QRGateway) BuildImageURL(amount int64, description string) string {
	q := url.Values{}
	q.Set("amount", strconv.FormatInt(amount, 10))
	q.Set("addInfo", description)
	q.Set("accountName", g.AccountName)
	return fmt.Sprintf("https://img.vietqr.io/image/%s-%s-%s.png?%s",
		g.BankID, g.AccountNo, g.Template, q.Encode())
}
