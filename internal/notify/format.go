package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"ms-storefront/internal/models"
)

// Money renders cents as dollars, e.g. 12345 -> "$123.45".
func Money(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

func orderTypeLabel(orderType string) string {
	if orderType == models.OrderTypeClothing {
		return "Clothing Order"
	}
	return "Event Ticket"
}

// OrderMessage is the owner-facing text for a new order. Asterisks mark bold
// text for WhatsApp.
func OrderMessage(order models.Order, items []models.OrderItem) string {
	var b strings.Builder
	b.WriteString("🛍️ *NEW ORDER RECEIVED*\n\n")
	fmt.Fprintf(&b, "📋 Order Number: %s\n", order.OrderNumber)
	fmt.Fprintf(&b, "👤 Customer: %s\n", order.CustomerName)
	fmt.Fprintf(&b, "📧 Email: %s\n", order.CustomerEmail)
	fmt.Fprintf(&b, "📱 Phone: %s\n", order.CustomerPhone)
	fmt.Fprintf(&b, "💰 Total: %s\n", Money(order.TotalAmount))
	fmt.Fprintf(&b, "📦 Type: %s\n\n", orderTypeLabel(order.OrderType))

	if order.OrderType == models.OrderTypeClothing && len(items) > 0 {
		b.WriteString("*ITEMS:*\n")
		for i, item := range items {
			fmt.Fprintf(&b, "%d. %s\n", i+1, item.ProductName)
			fmt.Fprintf(&b, "   Qty: %d", item.Quantity)
			if item.Size != "" {
				fmt.Fprintf(&b, " | Size: %s", item.Size)
			}
			if item.Color != "" {
				fmt.Fprintf(&b, " | Color: %s", item.Color)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if addr := shippingAddress(order); addr != "" {
		fmt.Fprintf(&b, "📍 *SHIPPING ADDRESS:*\n%s\n\n", addr)
	}

	b.WriteString("Please process this order as soon as possible.")
	return b.String()
}

func shippingAddress(order models.Order) string {
	var parts []string
	for _, p := range []string{order.ShippingAddress, order.City, order.State, order.ZipCode, order.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// OrderEmailSubject is "New Order #N" for clothing and "New Event Booking #N"
// for tickets.
func OrderEmailSubject(order models.Order) string {
	kind := "Event Booking"
	if order.OrderType == models.OrderTypeClothing {
		kind = "Order"
	}
	return fmt.Sprintf("New %s #%s", kind, order.OrderNumber)
}

// TicketBatch describes tickets issued for one order.
type TicketBatch struct {
	OrderNumber   string
	EventName     string
	CustomerName  string
	CustomerEmail string
	TotalAmount   int64
	Tickets       []models.Ticket
}

func (b TicketBatch) numbers() []string {
	out := make([]string, len(b.Tickets))
	for i, t := range b.Tickets {
		out[i] = t.TicketNumber
	}
	return out
}

func TicketOwnerContent(b TicketBatch) string {
	return fmt.Sprintf("%s purchased %d ticket(s) for %s. Email: %s",
		b.CustomerName, len(b.Tickets), b.EventName, b.CustomerEmail)
}

func TicketAdminMessage(b TicketBatch) string {
	var s strings.Builder
	s.WriteString("New Event Ticket Purchase\n\n")
	fmt.Fprintf(&s, "Event: %s\n", b.EventName)
	fmt.Fprintf(&s, "Customer: %s\n", b.CustomerName)
	fmt.Fprintf(&s, "Email: %s\n", b.CustomerEmail)
	fmt.Fprintf(&s, "Quantity: %d ticket(s)\n", len(b.Tickets))
	fmt.Fprintf(&s, "Total: %s\n\n", Money(b.TotalAmount))
	s.WriteString("Ticket Numbers:\n")
	s.WriteString(strings.Join(b.numbers(), "\n"))
	s.WriteString("\n\nTickets have been sent to the customer's email.")
	return s.String()
}

var ticketEmailTemplate = template.Must(template.New("tickets").
	Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
	Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: #000; padding: 20px; text-align: center;">
    <h1 style="color: #FFD700; margin: 0;">LIONS VOGUE</h1>
    <p style="color: #FFF; margin: 5px 0;">WEAR IT WITH STYLE</p>
  </div>
  <div style="padding: 30px 20px;">
    <h2 style="color: #000; margin: 0 0 20px 0;">Your Event Tickets</h2>
    <p style="color: #333; line-height: 1.6;">Dear {{.CustomerName}},</p>
    <p style="color: #333; line-height: 1.6;">Thank you for your purchase! Here are your tickets for <strong>{{.EventName}}</strong>.</p>
    {{range $i, $t := .Tickets}}
    <div style="margin: 20px 0; padding: 20px; border: 2px solid #FFD700; border-radius: 10px; background: #FFF;">
      <h3 style="color: #000; margin: 0 0 10px 0;">Ticket {{inc $i}}</h3>
      <p style="margin: 5px 0;"><strong>Ticket Number:</strong> {{$t.TicketNumber}}</p>
      <p style="margin: 5px 0;"><strong>Event:</strong> {{$.EventName}}</p>
      <p style="margin: 5px 0;"><strong>Customer:</strong> {{$.CustomerName}}</p>
      <div style="margin-top: 15px; text-align: center;">
        <img src="{{$t.QRCode}}" alt="QR Code" style="max-width: 200px; height: auto;" />
      </div>
      <p style="margin-top: 10px; font-size: 12px; color: #666;">Present this QR code at the event entrance for verification.</p>
    </div>
    {{end}}
    <div style="margin-top: 30px; padding: 20px; background: #F5F5F5; border-radius: 5px;">
      <h3 style="color: #000; margin: 0 0 10px 0;">Important Information</h3>
      <ul style="color: #333; line-height: 1.8; margin: 10px 0;">
        <li>Keep these tickets safe and bring them to the event</li>
        <li>Each ticket can only be used once</li>
        <li>Present the QR code at the entrance for scanning</li>
        <li>Screenshots or printed copies are acceptable</li>
      </ul>
    </div>
    <p style="color: #333; line-height: 1.6; margin-top: 20px;">If you have any questions, please contact us.</p>
    <p style="color: #333; line-height: 1.6;">See you at the event!<br><strong>Lions Vogue Team</strong></p>
  </div>
  <div style="background: #F5F5F5; padding: 20px; text-align: center; border-top: 2px solid #FFD700;">
    <p style="color: #666; font-size: 12px; margin: 0;">&copy; {{.Year}} Lions Vogue. All rights reserved.</p>
  </div>
</div>`))

// TicketEmailHTML renders the customer email with one block per ticket.
func TicketEmailHTML(b TicketBatch) (string, error) {
	var buf bytes.Buffer
	data := struct {
		TicketBatch
		Year int
	}{b, time.Now().Year()}
	if err := ticketEmailTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render ticket email: %w", err)
	}
	return buf.String(), nil
}
