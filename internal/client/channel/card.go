package channel

import "sitebot/internal/model"

// AdaptiveCardContentType is the attachment content type of rendered forms.
const AdaptiveCardContentType = "application/vnd.microsoft.card.adaptive"

type cardElement map[string]any

// RenderForm renders a FormSpec as an Adaptive Card: a title, then a label
// and an input per field, then the submit action.
func RenderForm(form model.FormSpec) map[string]any {
	body := []cardElement{{
		"type":   "TextBlock",
		"text":   form.Title,
		"size":   "large",
		"weight": "bolder",
	}}
	for _, field := range form.Fields {
		if field.Label != "" {
			body = append(body, cardElement{"type": "TextBlock", "text": field.Label})
		}
		switch field.Kind {
		case model.FieldChoice:
			choices := make([]cardElement, 0, len(field.Options))
			for _, opt := range field.Options {
				choices = append(choices, cardElement{"title": opt.Label, "value": opt.Value, "speak": opt.Label})
			}
			body = append(body, cardElement{
				"type":    "Input.ChoiceSet",
				"id":      field.ID,
				"style":   "compact",
				"choices": choices,
			})
		case model.FieldFreeText:
			body = append(body, cardElement{
				"type":        "Input.Text",
				"id":          field.ID,
				"isMultiline": false,
			})
		}
	}
	card := map[string]any{
		"type":    "AdaptiveCard",
		"version": "1.0",
		"body":    body,
		"actions": []cardElement{{"type": "Action.Submit", "title": form.Submit}},
	}
	if form.Speak != "" {
		card["speak"] = form.Speak
	}
	return card
}
