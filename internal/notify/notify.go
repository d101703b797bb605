// Package notify delivers order and ticket notifications to the shop owner,
// the admin mailbox and customers. Every channel is a Notifier; the
// Dispatcher decides who gets what and never fails the caller.
package notify

import (
	"context"
	"errors"
)

type Kind string

const (
	KindOrderPlaced   Kind = "order_placed"
	KindTicketsIssued Kind = "tickets_issued"
)

// Message is channel neutral. Email uses To, Subject, Body and HTML; owner
// channels use Title and Body; WhatsAppLink uses To as the phone number and
// Summary as the owner-facing lead line.
type Message struct {
	Kind        Kind
	Title       string
	Subject     string
	Body        string
	HTML        string
	To          string
	Summary     string
	OrderNumber string
}

type Notifier interface {
	Name() string
	Notify(ctx context.Context, msg Message) error
}

var ErrNoRecipient = errors.New("notify: no recipient")
