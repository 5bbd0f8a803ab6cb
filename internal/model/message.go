package model

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Activity is the inbound envelope posted by the channel.
type Activity struct {
	Type         string              `json:"type" binding:"required"`
	ID           string              `json:"id"`
	ChannelID    string              `json:"channelId"`
	ServiceURL   string              `json:"serviceUrl" binding:"required"`
	Conversation ConversationAccount `json:"conversation" binding:"required"`
	From         ChannelAccount      `json:"from"`
	Recipient    ChannelAccount      `json:"recipient"`
	Text         string              `json:"text,omitempty"`
	// Value holds the submitted form fields when the user presses a card's submit action.
	Value json.RawMessage `json:"value,omitempty"`
}

type ConversationAccount struct {
	ID string `json:"id" binding:"required"`
}

type ChannelAccount struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

const ActivityTypeMessage = "message"

// Address identifies where replies for a conversation are delivered.
type Address struct {
	ConversationID string         `json:"conversation_id"`
	ServiceURL     string         `json:"service_url"`
	ChannelID      string         `json:"channel_id,omitempty"`
	ReplyToID      string         `json:"reply_to_id,omitempty"`
	Bot            ChannelAccount `json:"bot"`
	User           ChannelAccount `json:"user"`
}

// Message is one routable inbound turn: a TextMessage or a FormSubmission.
type Message interface {
	Addr() Address
	isMessage()
}

// TextMessage carries free text to be classified.
type TextMessage struct {
	Address Address
	Text    string
}

// FormSubmission carries the fields of a submitted card, with no free text.
type FormSubmission struct {
	Address Address
	Fields  map[string]string
}

func (m TextMessage) Addr() Address    { return m.Address }
func (m FormSubmission) Addr() Address { return m.Address }
func (TextMessage) isMessage()         {}
func (FormSubmission) isMessage()      {}

// AddressOf returns the reply address for an inbound activity.
func AddressOf(a Activity) Address {
	return Address{
		ConversationID: a.Conversation.ID,
		ServiceURL:     a.ServiceURL,
		ChannelID:      a.ChannelID,
		ReplyToID:      a.ID,
		Bot:            a.Recipient,
		User:           a.From,
	}
}

// ParseActivity decides the message variant once, at the boundary.
// It returns false for activities that carry nothing routable: non-message
// activities, and messages with neither text nor an object value.
func ParseActivity(a Activity) (Message, bool) {
	if a.Type != ActivityTypeMessage {
		return nil, false
	}
	addr := AddressOf(a)
	if strings.TrimSpace(a.Text) != "" {
		return TextMessage{Address: addr, Text: a.Text}, true
	}
	if len(a.Value) == 0 || !gjson.ValidBytes(a.Value) {
		return nil, false
	}
	value := gjson.ParseBytes(a.Value)
	if !value.IsObject() {
		return nil, false
	}
	fields := make(map[string]string)
	value.ForEach(func(key, val gjson.Result) bool {
		fields[key.String()] = val.String()
		return true
	})
	return FormSubmission{Address: addr, Fields: fields}, true
}
