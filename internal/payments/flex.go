package payments

import (
	"fmt"
	"strconv"

	"github.com/SuSaiGit/ikeman/internal/line"
)

// BuildPaymentFlex renders the payment card: product name, formatted
// amount, and a button opening the provider checkout URL. Pure formatting.
func BuildPaymentFlex(productName string, amount int64, currency, paymentURL string) *line.FlexMessage {
	bubble := &line.FlexBubble{
		Type: "bubble",
		Header: &line.FlexBox{
			Type:   "box",
			Layout: "vertical",
			Contents: []line.FlexComponent{
				{Type: "text", Text: "Payment Request", Weight: "bold", Size: "xl", Color: "#00C851"},
			},
		},
		Body: &line.FlexBox{
			Type:   "box",
			Layout: "vertical",
			Contents: []line.FlexComponent{
				{Type: "text", Text: productName, Weight: "bold", Size: "lg"},
				{Type: "text", Text: fmt.Sprintf("Amount: %s %s", currency, groupDigits(amount)), Size: "md", Color: "#666666"},
				{Type: "separator", Margin: "md"},
				{Type: "text", Text: "Click the button below to proceed with LINE Pay", Size: "sm", Color: "#999999", Margin: "md"},
			},
		},
		Footer: &line.FlexBox{
			Type:   "box",
			Layout: "vertical",
			Contents: []line.FlexComponent{
				{
					Type:  "button",
					Style: "primary",
					Color: "#00C851",
					Action: &line.FlexAction{
						Type:  "uri",
						Label: "Pay with LINE Pay",
						URI:   paymentURL,
					},
				},
			},
		},
	}
	return line.NewFlexMessage("Payment for "+productName, bubble)
}

// groupDigits formats n with thousands separators, e.g. 1234567 -> 1,234,567.
func groupDigits(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		return "-" + s
	}
	return s
}
