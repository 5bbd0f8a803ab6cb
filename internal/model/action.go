package model

import "fmt"

// ActionKind tags the variant of an ActionRequest.
type ActionKind int

const (
	ActionShowSuggestions ActionKind = iota
	ActionGreet
	ActionListSites
	ActionShowLogoChangeTargets
	ActionBeginSubsiteForm
	ActionCreateSubsite
	ActionRunDiagnostics
)

// ActionKinds lists every variant; dispatch tables must cover all of them.
var ActionKinds = []ActionKind{
	ActionShowSuggestions,
	ActionGreet,
	ActionListSites,
	ActionShowLogoChangeTargets,
	ActionBeginSubsiteForm,
	ActionCreateSubsite,
	ActionRunDiagnostics,
}

func (k ActionKind) String() string {
	switch k {
	case ActionShowSuggestions:
		return "show_suggestions"
	case ActionGreet:
		return "greet"
	case ActionListSites:
		return "list_sites"
	case ActionShowLogoChangeTargets:
		return "show_logo_change_targets"
	case ActionBeginSubsiteForm:
		return "begin_subsite_form"
	case ActionCreateSubsite:
		return "create_subsite"
	case ActionRunDiagnostics:
		return "run_diagnostics"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

// SubsiteRequest carries the inputs of a subsite creation.
type SubsiteRequest struct {
	SiteURL     string
	SubsiteName string
	WebTemplate string
}

// ActionRequest is a fully resolved action, ready to execute.
// Subsite is set only for ActionCreateSubsite.
type ActionRequest struct {
	Kind    ActionKind
	Subsite *SubsiteRequest
}

// NewAction builds a parameterless action request.
func NewAction(kind ActionKind) ActionRequest {
	return ActionRequest{Kind: kind}
}

// NewCreateSubsite builds a CreateSubsite request. All three values must be
// non-empty; they are kept verbatim.
func NewCreateSubsite(siteURL, subsiteName, webTemplate string) (ActionRequest, error) {
	if siteURL == "" || subsiteName == "" || webTemplate == "" {
		return ActionRequest{}, ErrIncompleteSubmission
	}
	return ActionRequest{
		Kind: ActionCreateSubsite,
		Subsite: &SubsiteRequest{
			SiteURL:     siteURL,
			SubsiteName: subsiteName,
			WebTemplate: webTemplate,
		},
	}, nil
}
