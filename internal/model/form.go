package model

// Field ids of the subsite creation form. Submissions are matched on these keys.
const (
	FieldSite        = "SpSite"
	FieldSubsiteName = "SubsiteName"
	FieldWebTemplate = "SpWebTemplate"
)

type FieldKind int

const (
	FieldChoice FieldKind = iota
	FieldFreeText
)

// Choice is one selectable option of a choice field.
type Choice struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FormField describes one input. Options is only used by choice fields.
type FormField struct {
	ID      string    `json:"id"`
	Kind    FieldKind `json:"kind"`
	Label   string    `json:"label"`
	Options []Choice  `json:"options,omitempty"`
}

// FormSpec is the logical content of an interactive form.
type FormSpec struct {
	Title  string      `json:"title"`
	Speak  string      `json:"speak,omitempty"`
	Fields []FormField `json:"fields"`
	Submit string      `json:"submit"`
}

// Field returns the field with the given id.
func (f FormSpec) Field(id string) (FormField, bool) {
	for _, field := range f.Fields {
		if field.ID == id {
			return field, true
		}
	}
	return FormField{}, false
}
