package service

import (
	"context"
	"fmt"

	"sitebot/internal/model"
)

// FormCollector builds the subsite form and reconciles its submissions.
type FormCollector struct {
	compatLevel int
}

func NewFormCollector(compatLevel int) *FormCollector {
	return &FormCollector{compatLevel: compatLevel}
}

// BuildForm fetches the current sites and web templates and builds the
// subsite creation form. Choices are not cached; entries with an empty
// title are skipped and option order follows the service.
func (f *FormCollector) BuildForm(ctx context.Context, dir Directory) (model.FormSpec, error) {
	sites, err := dir.ListSites(ctx, 0, true)
	if err != nil {
		return model.FormSpec{}, fmt.Errorf("list sites: %w", err)
	}
	lang, err := dir.WebLanguage(ctx)
	if err != nil {
		return model.FormSpec{}, fmt.Errorf("web language: %w", err)
	}
	templates, err := dir.ListWebTemplates(ctx, lang, f.compatLevel)
	if err != nil {
		return model.FormSpec{}, fmt.Errorf("list web templates: %w", err)
	}

	siteOptions := make([]model.Choice, 0, len(sites))
	for _, s := range sites {
		if s.Title == "" {
			continue
		}
		siteOptions = append(siteOptions, model.Choice{Label: s.Title, Value: s.URL})
	}
	templateOptions := make([]model.Choice, 0, len(templates))
	for _, t := range templates {
		if t.Title == "" {
			continue
		}
		templateOptions = append(templateOptions, model.Choice{Label: t.Title, Value: t.Name})
	}

	return model.FormSpec{
		Title: textCreateNewSubsite,
		Speak: textFillSubsiteForm,
		Fields: []model.FormField{
			{ID: model.FieldSite, Kind: model.FieldChoice, Label: textSelectSite, Options: siteOptions},
			{ID: model.FieldSubsiteName, Kind: model.FieldFreeText, Label: textNewSubsiteName},
			{ID: model.FieldWebTemplate, Kind: model.FieldChoice, Label: textWebTemplate, Options: templateOptions},
		},
		Submit: textSave,
	}, nil
}

// Reconcile turns a submission into a CreateSubsite request. It reports
// false unless all three fields are present and non-empty. Values are used
// verbatim. Submissions are not correlated with a shown form.
func (f *FormCollector) Reconcile(fields map[string]string) (model.ActionRequest, bool) {
	req, err := model.NewCreateSubsite(
		fields[model.FieldSite],
		fields[model.FieldSubsiteName],
		fields[model.FieldWebTemplate],
	)
	if err != nil {
		return model.ActionRequest{}, false
	}
	return req, true
}
