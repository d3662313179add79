package messenger

// ActionKind names an outbound action for logging and metrics.
type ActionKind string

const (
	KindText         ActionKind = "text"
	KindImage        ActionKind = "image"
	KindAudio        ActionKind = "audio"
	KindVideo        ActionKind = "video"
	KindFile         ActionKind = "file"
	KindButton       ActionKind = "button"
	KindGeneric      ActionKind = "generic"
	KindReceipt      ActionKind = "receipt"
	KindQuickReplies ActionKind = "quick_replies"
	KindTypingOn     ActionKind = "typing_on"
	KindTypingOff    ActionKind = "typing_off"
	KindMarkSeen     ActionKind = "mark_seen"
	KindAccountLink  ActionKind = "account_link"
)

// SenderAction is a sender_action value.
type SenderAction string

const (
	ActionMarkSeen  SenderAction = "mark_seen"
	ActionTypingOn  SenderAction = "typing_on"
	ActionTypingOff SenderAction = "typing_off"
)

// SendRequest is the body of POST /me/messages.
type SendRequest struct {
	Recipient    Participant  `json:"recipient"`
	Message      *Message     `json:"message,omitempty"`
	SenderAction SenderAction `json:"sender_action,omitempty"`
}

// SendResponse is the success body of POST /me/messages.
type SendResponse struct {
	RecipientID string `json:"recipient_id"`
	MessageID   string `json:"message_id,omitempty"`
}

// Message is an outbound message.
type Message struct {
	Text         string       `json:"text,omitempty"`
	Attachment   *Attachment  `json:"attachment,omitempty"`
	QuickReplies []QuickReply `json:"quick_replies,omitempty"`
	Metadata     string       `json:"metadata,omitempty"`
}

// Attachment is an outbound attachment. Payload is one of *MediaPayload,
// *ButtonTemplate, *GenericTemplate or *ReceiptTemplate.
type Attachment struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// MediaPayload points at a hosted image, audio, video or file.
type MediaPayload struct {
	URL string `json:"url"`
}

// Button types.
const (
	ButtonWebURL      = "web_url"
	ButtonPostback    = "postback"
	ButtonPhoneNumber = "phone_number"
	ButtonAccountLink = "account_link"
)

// Button is a template or menu button.
type Button struct {
	Type    string `json:"type"`
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Payload string `json:"payload,omitempty"`
}

// QuickReply is a text quick reply chip.
type QuickReply struct {
	ContentType string `json:"content_type"`
	Title       string `json:"title"`
	Payload     string `json:"payload"`
}

// TextReply builds a text quick reply.
func TextReply(title, payload string) QuickReply {
	return QuickReply{ContentType: "text", Title: title, Payload: payload}
}

// ButtonTemplate is a text with up to three buttons.
type ButtonTemplate struct {
	TemplateType string   `json:"template_type"`
	Text         string   `json:"text"`
	Buttons      []Button `json:"buttons"`
}

// GenericTemplate is a horizontal carousel of elements.
type GenericTemplate struct {
	TemplateType string           `json:"template_type"`
	Elements     []GenericElement `json:"elements"`
}

// GenericElement is one carousel bubble.
type GenericElement struct {
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle,omitempty"`
	ItemURL  string   `json:"item_url,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
	Buttons  []Button `json:"buttons,omitempty"`
}

// ReceiptTemplate is an order confirmation.
type ReceiptTemplate struct {
	TemplateType  string              `json:"template_type"`
	RecipientName string              `json:"recipient_name"`
	OrderNumber   string              `json:"order_number"`
	Currency      string              `json:"currency"`
	PaymentMethod string              `json:"payment_method"`
	Timestamp     string              `json:"timestamp,omitempty"`
	Elements      []ReceiptElement    `json:"elements"`
	Address       *ReceiptAddress     `json:"address,omitempty"`
	Summary       ReceiptSummary      `json:"summary"`
	Adjustments   []ReceiptAdjustment `json:"adjustments,omitempty"`
}

// ReceiptElement is a purchased item.
type ReceiptElement struct {
	Title    string  `json:"title"`
	Subtitle string  `json:"subtitle,omitempty"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	ImageURL string  `json:"image_url,omitempty"`
}

// ReceiptAddress is the shipping address.
type ReceiptAddress struct {
	Street1    string `json:"street_1"`
	Street2    string `json:"street_2"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	State      string `json:"state"`
	Country    string `json:"country"`
}

// ReceiptSummary totals the order.
type ReceiptSummary struct {
	Subtotal     float64 `json:"subtotal"`
	ShippingCost float64 `json:"shipping_cost"`
	TotalTax     float64 `json:"total_tax"`
	TotalCost    float64 `json:"total_cost"`
}

// ReceiptAdjustment is a discount line.
type ReceiptAdjustment struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Action is one outbound Send API call, built fresh per reply.
// Exactly one of Message and SenderAction is set.
type Action struct {
	Kind         ActionKind
	Message      *Message
	SenderAction SenderAction
}

// Request renders the action as a Send API body for recipientID.
func (a Action) Request(recipientID string) SendRequest {
	return SendRequest{
		Recipient:    Participant{ID: recipientID},
		Message:      a.Message,
		SenderAction: a.SenderAction,
	}
}

// Text builds a plain text message.
func Text(text string) Action {
	return Action{Kind: KindText, Message: &Message{Text: text}}
}

func media(kind ActionKind, attachmentType, url string) Action {
	return Action{Kind: kind, Message: &Message{
		Attachment: &Attachment{Type: attachmentType, Payload: &MediaPayload{URL: url}},
	}}
}

// Image builds an image (or GIF) attachment message.
func Image(url string) Action { return media(KindImage, "image", url) }

// Audio builds an audio attachment message.
func Audio(url string) Action { return media(KindAudio, "audio", url) }

// Video builds a video attachment message.
func Video(url string) Action { return media(KindVideo, "video", url) }

// File builds a file attachment message.
func File(url string) Action { return media(KindFile, "file", url) }

func template(kind ActionKind, payload any) Action {
	return Action{Kind: kind, Message: &Message{
		Attachment: &Attachment{Type: "template", Payload: payload},
	}}
}

// Buttons builds a button template message.
func Buttons(text string, buttons ...Button) Action {
	return template(KindButton, &ButtonTemplate{TemplateType: "button", Text: text, Buttons: buttons})
}

// Generic builds a generic template (carousel) message.
func Generic(elements ...GenericElement) Action {
	return template(KindGeneric, &GenericTemplate{TemplateType: "generic", Elements: elements})
}

// Receipt builds a receipt template message. TemplateType is filled in.
func Receipt(r ReceiptTemplate) Action {
	r.TemplateType = "receipt"
	return template(KindReceipt, &r)
}

// AccountLink builds a button template with a single account_link button.
func AccountLink(text, url string) Action {
	return template(KindAccountLink, &ButtonTemplate{
		TemplateType: "button",
		Text:         text,
		Buttons:      []Button{{Type: ButtonAccountLink, URL: url}},
	})
}

// QuickReplies builds a text message with quick reply chips.
func QuickReplies(text string, replies ...QuickReply) Action {
	return Action{Kind: KindQuickReplies, Message: &Message{Text: text, QuickReplies: replies}}
}

// MarkSeen builds a read receipt sender action.
func MarkSeen() Action { return Action{Kind: KindMarkSeen, SenderAction: ActionMarkSeen} }

// TypingOn builds a typing indicator on sender action.
func TypingOn() Action { return Action{Kind: KindTypingOn, SenderAction: ActionTypingOn} }

// TypingOff builds a typing indicator off sender action.
func TypingOff() Action { return Action{Kind: KindTypingOff, SenderAction: ActionTypingOff} }
