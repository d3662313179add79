// Package messenger implements the Messenger Platform wire format: inbound
// webhook callbacks, outbound Send API requests, request signature
// verification and a Graph API client.
package messenger

import "encoding/json"

// ObjectPage is the only callback object the bot processes.
const ObjectPage = "page"

// Callback is the top-level webhook POST body.
type Callback struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry groups the messaging events delivered for one page.
type Entry struct {
	ID        string           `json:"id"`
	Time      int64            `json:"time"`
	Messaging []MessagingEvent `json:"messaging"`
}

// Participant identifies a sender or recipient by page-scoped id.
type Participant struct {
	ID string `json:"id"`
}

// MessagingEvent is one element of entry.messaging. Exactly one of the
// pointer fields is expected to be set; see bot.Classify for the order in
// which they are inspected.
type MessagingEvent struct {
	Sender    Participant `json:"sender"`
	Recipient Participant `json:"recipient"`
	Timestamp int64       `json:"timestamp"`

	Optin          *Optin           `json:"optin,omitempty"`
	Message        *ReceivedMessage `json:"message,omitempty"`
	Delivery       *Delivery        `json:"delivery,omitempty"`
	Postback       *Postback        `json:"postback,omitempty"`
	Read           *Read            `json:"read,omitempty"`
	AccountLinking *AccountLinking  `json:"account_linking,omitempty"`
}

// ReceivedMessage is a message sent by a user, or an echo of one sent by the page.
type ReceivedMessage struct {
	MID         string               `json:"mid"`
	Seq         int64                `json:"seq,omitempty"`
	Text        string               `json:"text,omitempty"`
	IsEcho      bool                 `json:"is_echo,omitempty"`
	AppID       json.Number          `json:"app_id,omitempty"`
	Metadata    string               `json:"metadata,omitempty"`
	QuickReply  *QuickReplyPayload   `json:"quick_reply,omitempty"`
	Attachments []ReceivedAttachment `json:"attachments,omitempty"`
}

// QuickReplyPayload carries the developer payload of a tapped quick reply.
type QuickReplyPayload struct {
	Payload string `json:"payload"`
}

// ReceivedAttachment is an attachment on an inbound message. The payload
// shape depends on Type and is kept raw.
type ReceivedAttachment struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Delivery confirms that messages up to Watermark were delivered.
type Delivery struct {
	MIDs      []string `json:"mids,omitempty"`
	Watermark int64    `json:"watermark"`
	Seq       int64    `json:"seq,omitempty"`
}

// Postback is sent when a user taps a postback button.
type Postback struct {
	Title   string `json:"title,omitempty"`
	Payload string `json:"payload"`
}

// Read reports that messages up to Watermark were read.
type Read struct {
	Watermark int64 `json:"watermark"`
	Seq       int64 `json:"seq,omitempty"`
}

// Optin is sent by the Send-to-Messenger plugin.
type Optin struct {
	Ref string `json:"ref"`
}

// AccountLinking reports the outcome of an account linking flow.
type AccountLinking struct {
	Status            string `json:"status"`
	AuthorizationCode string `json:"authorization_code,omitempty"`
}
