package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// RedirectGateway builds signed pay URLs for a bank-redirect provider and
// verifies the signed return redirect. The signature is an HMAC-SHA512 over
// the sorted, URL-encoded parameter string.
type RedirectGateway struct {
	PayURL     string
	TmnCode    string
	HashSecret string
	ReturnURL  string
	Now        func() time.Time
}

func NewRedirectGateway(payURL, tmnCode, hashSecret, returnURL string) *RedirectGateway {
	return &RedirectGateway{
		PayURL:     payURL,
		TmnCode:    tmnCode,
		HashSecret: hashSecret,
		ReturnURL:  returnURL,
		Now:        time.Now,
	}
}

// ReturnResult is the parsed, verified outcome of a return redirect.
type ReturnResult struct {
	OrderID       int64
	Amount        int64
	TransactionID string
	ResponseCode  string
	BankCode      string
	Succeeded     bool
}

func (g *RedirectGateway) sign(v url.Values) string {
	mac := hmac.New(sha512.New, []byte(g.HashSecret))
	mac.Write([]byte(v.Encode()))
	return hex.EncodeToString(mac.Sum(nil))
}

// BuildPayURL returns the provider URL the client is redirected to. The amount
// is in the major currency unit and multiplied by 100 per the provider's wire
// format. orderInfo appears on the provider's payment page.
func (g *RedirectGateway) BuildPayURL(orderID, amount int64, orderInfo, clientIP string) string {
	v := url.Values{}
	v.Set("vnp_Version", "2.1.0")
	v.Set("vnp_Command", "pay")
	v.Set("vnp_TmnCode", g.TmnCode)
	v.Set("vnp_Locale", "vn")
	v.Set("vnp_CurrCode", "VND")
	v.Set("vnp_TxnRef", strconv.FormatInt(orderID, 10))
	v.Set("vnp_OrderInfo", orderInfo)
	v.Set("vnp_OrderType", "other")
	v.Set("vnp_Amount", strconv.FormatInt(amount*100, 10))
	v.Set("vnp_ReturnUrl", g.ReturnURL)
	v.Set("vnp_IpAddr", clientIP)
	v.Set("vnp_CreateDate", g.Now().Format("20060102150405"))

	v.Set("vnp_SecureHash", g.sign(v))
	return g.PayURL + "?" + v.Encode()
}

// VerifyReturn checks the signature on a return redirect's query parameters
// and extracts the outcome. Response code "00" means the payment succeeded.
func (g *RedirectGateway) VerifyReturn(query url.Values) (*ReturnResult, error) {
	received := query.Get("vnp_SecureHash")
	if received == "" {
		return nil, fmt.Errorf("%w: missing secure hash", ErrBadSignature)
	}

	v := url.Values{}
	for key, vals := range query {
		if key == "vnp_SecureHash" || key == "vnp_SecureHashType" {
			continue
		}
		for _, val := range vals {
			v.Add(key, val)
		}
	}

	expected := g.sign(v)
	if !hmac.Equal([]byte(expected), []byte(received)) {
		return nil, ErrBadSignature
	}

	orderID, err := strconv.ParseInt(query.Get("vnp_TxnRef"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction ref %q", query.Get("vnp_TxnRef"))
	}
	amount, _ := strconv.ParseInt(query.Get("vnp_Amount"), 10, 64)
	code := query.Get("vnp_ResponseCode")

	return &ReturnResult{
		OrderID:       orderID,
		Amount:        amount / 100,
		TransactionID: query.Get("vnp_TransactionNo"),
		ResponseCode:  code,
		BankCode:      query.Get("vnp_BankCode"),
		Succeeded:     code == "00",
	}, nil
}
