// Package bot turns classified Messenger events into replies: Classify
// builds typed events, Engine decides replies and state changes, and
// Processor performs the resulting sends and lookups.
package bot

import "github.com/torneiomaker/messenger-bot/internal/messenger"

// Kind names an event variant in logs and metrics.
type Kind string

const (
	KindMessage     Kind = "message"
	KindEcho        Kind = "echo"
	KindQuickReply  Kind = "quick_reply"
	KindPostback    Kind = "postback"
	KindDelivery    Kind = "delivery"
	KindRead        Kind = "read"
	KindOptin       Kind = "optin"
	KindAccountLink Kind = "account_linking"
	KindUnknown     Kind = "unknown"
)

// Meta is carried by every event.
type Meta struct {
	SenderID    string
	RecipientID string
	Timestamp   int64
}

// Event is one classified inbound event. The concrete type is one of
// Message, Echo, QuickReply, Postback, DeliveryReceipt, ReadReceipt,
// Optin or AccountLink.
type Event interface {
	Kind() Kind
	Source() Meta
}

func (m Meta) Source() Meta { return m }

// Message is a user message with text, attachments or both.
type Message struct {
	Meta
	MID         string
	Text        string
	Attachments []messenger.ReceivedAttachment
}

// Echo is a copy of a message sent by the page.
type Echo struct {
	Meta
	MID      string
	AppID    string
	Metadata string
}

// QuickReply is a tapped quick reply chip.
type QuickReply struct {
	Meta
	MID     string
	Payload string
}

// Postback is a tapped postback button (get started, persistent menu, templates).
type Postback struct {
	Meta
	Title   string
	Payload string
}

// DeliveryReceipt confirms delivery of page messages.
type DeliveryReceipt struct {
	Meta
	MIDs      []string
	Watermark int64
}

// ReadReceipt reports that page messages were read.
type ReadReceipt struct {
	Meta
	Watermark int64
	Seq       int64
}

// Optin is an authentication through the Send-to-Messenger plugin.
type Optin struct {
	Meta
	Ref string // pass-through param
}

// AccountLink reports a linked or unlinked account.
type AccountLink struct {
	Meta
	Status            string
	AuthorizationCode string
}

func (Message) Kind() Kind         { return KindMessage }
func (Echo) Kind() Kind            { return KindEcho }
func (QuickReply) Kind() Kind      { return KindQuickReply }
func (Postback) Kind() Kind        { return KindPostback }
func (DeliveryReceipt) Kind() Kind { return KindDelivery }
func (ReadReceipt) Kind() Kind     { return KindRead }
func (Optin) Kind() Kind           { return KindOptin }
func (AccountLink) Kind() Kind     { return KindAccountLink }

// Classify converts a raw messaging entry into a typed event. Fields are
// inspected in order optin, message, delivery, postback, read,
// account_linking; the first present one wins. It returns false when none
// is set.
//
// Within a message, an echo short-circuits before a quick reply, and a
// quick reply ignores any text or attachments.
func Classify(raw messenger.MessagingEvent) (Event, bool) {
	meta := Meta{
		SenderID:    raw.Sender.ID,
		RecipientID: raw.Recipient.ID,
		Timestamp:   raw.Timestamp,
	}

	switch {
	case raw.Optin != nil:
		return Optin{Meta: meta, Ref: raw.Optin.Ref}, true

	case raw.Message != nil:
		msg := raw.Message
		if msg.IsEcho {
			return Echo{Meta: meta, MID: msg.MID, AppID: msg.AppID.String(), Metadata: msg.Metadata}, true
		}
		if msg.QuickReply != nil {
			return QuickReply{Meta: meta, MID: msg.MID, Payload: msg.QuickReply.Payload}, true
		}
		return Message{Meta: meta, MID: msg.MID, Text: msg.Text, Attachments: msg.Attachments}, true

	case raw.Delivery != nil:
		return DeliveryReceipt{Meta: meta, MIDs: raw.Delivery.MIDs, Watermark: raw.Delivery.Watermark}, true

	case raw.Postback != nil:
		return Postback{Meta: meta, Title: raw.Postback.Title, Payload: raw.Postback.Payload}, true

	case raw.Read != nil:
		return ReadReceipt{Meta: meta, Watermark: raw.Read.Watermark, Seq: raw.Read.Seq}, true

	case raw.AccountLinking != nil:
		return AccountLink{Meta: meta, Status: raw.AccountLinking.Status, AuthorizationCode: raw.AccountLinking.AuthorizationCode}, true
	}

	return nil, false
}

// IsObservational reports whether e never produces a reply or state change.
func IsObservational(e Event) bool {
	switch e.(type) {
	case Echo, DeliveryReceipt, ReadReceipt, AccountLink:
		return true
	}
	return false
}
