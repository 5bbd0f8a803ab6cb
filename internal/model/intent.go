package model

// Intent is a normalized label produced by the NLU service.
type Intent int

const (
	// IntentNone is the fallback: nothing was confidently resolved.
	IntentNone Intent = iota
	IntentHello
	IntentSuggestionsShow
	IntentSiteCollectionsShow
	IntentLogoChange
	IntentSubsiteCreate
	// IntentDiagnostic is an internal intent used to probe the directory.
	IntentDiagnostic
)

var intentNames = map[Intent]string{
	IntentHello:               "Hello",
	IntentSuggestionsShow:     "Suggestions.Show",
	IntentSiteCollectionsShow: "SiteCollections.Show",
	IntentLogoChange:          "Logo.Change",
	IntentSubsiteCreate:       "Subsite.Create",
	IntentDiagnostic:          "Test",
}

var intentsByName = func() map[string]Intent {
	m := make(map[string]Intent, len(intentNames))
	for intent, name := range intentNames {
		m[name] = intent
	}
	return m
}()

// ParseIntent maps an NLU intent name to an Intent by exact match.
// Unknown and empty names yield IntentNone.
func ParseIntent(name string) Intent {
	return intentsByName[name]
}

// String returns the NLU name of the intent, or "" for IntentNone.
func (i Intent) String() string {
	return intentNames[i]
}

// IntentResult is the outcome of one classification.
type IntentResult struct {
	Name       string
	Confidence float64
}

// Accepted reports whether the result carries a trusted intent name.
func (r IntentResult) Accepted() bool {
	return r.Name != ""
}

// Intent returns the parsed intent of the result.
func (r IntentResult) Intent() Intent {
	return ParseIntent(r.Name)
}
