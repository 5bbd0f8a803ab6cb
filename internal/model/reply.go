package model

// CardActionType is the behaviour of a quick reply button.
type CardActionType string

const (
	CardActionPostBack CardActionType = "postBack"
	CardActionOpenURL  CardActionType = "openUrl"
)

// CardAction is a suggested quick reply.
type CardAction struct {
	Title string         `json:"title"`
	Type  CardActionType `json:"type"`
	Value string         `json:"value"`
}

// Reply is the logical content of one outbound message.
type Reply struct {
	Text             string       `json:"text"`
	SuggestedActions []CardAction `json:"suggested_actions,omitempty"`
	Form             *FormSpec    `json:"form,omitempty"`
}

// TextReply builds a plain text reply.
func TextReply(text string) Reply {
	return Reply{Text: text}
}
