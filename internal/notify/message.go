// AngelaMos | 2026
// message.go

package notify

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindAdminRegistration Kind = "admin_registration"
	KindTierUpgrade       Kind = "tier_upgrade"
)

const signature = "Best regards,\nNoyes Boys Team"

type Message struct {
	Kind      Kind   `json:"kind"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

func AdminRegistration(adminEmail, affiliateID, name, email string) Message {
	var b strings.Builder
	b.WriteString("New affiliate registered:\n\n")
	fmt.Fprintf(&b, "ID: %s\n", affiliateID)
	fmt.Fprintf(&b, "Name: %s\n", name)
	fmt.Fprintf(&b, "Email: %s\n\n", email)
	b.WriteString("Please review and approve this application.")

	return Message{
		Kind:      KindAdminRegistration,
		Recipient: adminEmail,
		Subject:   "New Affiliate Application",
		Body:      b.String(),
	}
}

func TierUpgrade(name, email, tierName string, rate decimal.Decimal) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "Great news! Your affiliate account has been upgraded to %s tier.\n", tierName)
	fmt.Fprintf(&b, "Your new commission rate is %s%%.\n\n", rate.String())
	b.WriteString("Keep up the great work!\n\n")
	b.WriteString(signature)

	return Message{
		Kind:      KindTierUpgrade,
		Recipient: email,
		Subject:   fmt.Sprintf("Congratulations! You've been upgraded to %s tier", tierName),
		Body:      b.String(),
	}
}
