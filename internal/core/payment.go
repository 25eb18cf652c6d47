package core

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultPaymentBaseURL is the MobilePay business payment link endpoint.
const DefaultPaymentBaseURL = "https://mobilepay.dk/erhverv/betalingslink"

// PaymentLink is a prefilled link to the external payment provider.
type PaymentLink struct {
	Member string
	Amount int64
	URL    string
}

// PaymentComment is the free-text comment attached to a payment.
func PaymentComment(member string) string {
	return "Fine payment for " + member
}

// BuildPaymentURL embeds the recipient phone, the amount and a
// percent-encoded comment into base.
func BuildPaymentURL(base, phone string, amount int64, comment string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "?")
	if base == "" {
		base = DefaultPaymentBaseURL
	}
	escaped := strings.ReplaceAll(url.QueryEscape(comment), "+", "%20")
	return fmt.Sprintf("%s?phone=%s&amount=%d&comment=%s",
		base, url.QueryEscape(phone), amount, escaped)
}

// PaymentLinks builds one link per indebted member. No links are built
// without a recipient phone.
func PaymentLinks(base, phone string, totals []MemberTotal) []PaymentLink {
	if strings.TrimSpace(phone) == "" {
		return nil
	}
	out := make([]PaymentLink, 0, len(totals))
	for _, t := range totals {
		out = append(out, PaymentLink{
			Member: t.Member,
			Amount: t.Total,
			URL:    BuildPaymentURL(base, phone, t.Total, PaymentComment(t.Member)),
		})
	}
	return out
}
