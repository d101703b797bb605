package notify

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// WhatsAppURL builds a click-to-chat link. Everything but digits is dropped
// from the number.
func WhatsAppURL(number, text string) string {
	var digits strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	text = strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return fmt.Sprintf("https://wa.me/%s?text=%s", digits.String(), text)
}

// WhatsAppLink turns a message into a wa.me link and hands it to the owner
// channel so the owner can open the chat with the text prefilled.
type WhatsAppLink struct {
	Owner Notifier
}

func NewWhatsAppLink(owner Notifier) *WhatsAppLink {
	return &WhatsAppLink{Owner: owner}
}

func (w *WhatsAppLink) Name() string { return "whatsapp" }

func (w *WhatsAppLink) Notify(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}
	link := WhatsAppURL(msg.To, msg.Body)
	return w.Owner.Notify(ctx, Message{
		Kind:        msg.Kind,
		Title:       msg.Title,
		Body:        fmt.Sprintf("%s WhatsApp: %s", msg.Summary, link),
		OrderNumber: msg.OrderNumber,
	})
}
