package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"sitebot/internal/model"
)

type handlers struct {
	collector *FormCollector
}

func (h *handlers) greet(_ context.Context, _ Directory, _ model.ActionRequest) (model.Reply, error) {
	return model.TextReply(textGreeting), nil
}

func (h *handlers) showSuggestions(_ context.Context, _ Directory, _ model.ActionRequest) (model.Reply, error) {
	return model.Reply{
		Text: textActionsICanDo,
		SuggestedActions: []model.CardAction{
			{Title: textShowAllSites, Type: model.CardActionPostBack, Value: model.IntentSiteCollectionsShow.String()},
			{Title: textChangeSiteLogo, Type: model.CardActionPostBack, Value: model.IntentLogoChange.String()},
			{Title: textCreateSubsite, Type: model.CardActionPostBack, Value: model.IntentSubsiteCreate.String()},
			{Title: textDoSomethingElse, Type: model.CardActionPostBack, Value: model.IntentSuggestionsShow.String()},
		},
	}, nil
}

// listSites replies with one line per site collection.
func (h *handlers) listSites(ctx context.Context, dir Directory, _ model.ActionRequest) (model.Reply, error) {
	sites, err := dir.ListSites(ctx, 0, true)
	if err != nil {
		return model.Reply{}, fmt.Errorf("list sites: %w", err)
	}
	if len(sites) == 0 {
		return model.TextReply(textNoSites), nil
	}
	lines := make([]string, 0, len(sites))
	for _, s := range sites {
		lines = append(lines, textSiteCollection+s.Title+" => "+s.URL)
	}
	return model.TextReply(strings.Join(lines, "\n")), nil
}

func (h *handlers) showLogoChangeTargets(ctx context.Context, dir Directory, _ model.ActionRequest) (model.Reply, error) {
	sites, err := dir.ListSites(ctx, 0, true)
	if err != nil {
		return model.Reply{}, fmt.Errorf("list sites: %w", err)
	}
	reply := model.Reply{Text: textWhichSiteLogo}
	for _, s := range sites {
		if s.Title == "" {
			continue
		}
		reply.SuggestedActions = append(reply.SuggestedActions, model.CardAction{
			Title: s.Title,
			Type:  model.CardActionOpenURL,
			Value: s.URL + logoSettingsPath,
		})
	}
	return reply, nil
}

func (h *handlers) beginSubsiteForm(ctx context.Context, dir Directory, _ model.ActionRequest) (model.Reply, error) {
	form, err := h.collector.BuildForm(ctx, dir)
	if err != nil {
		return model.Reply{}, fmt.Errorf("build subsite form: %w", err)
	}
	return model.Reply{Text: textCreateSubsiteReply, Form: &form}, nil
}

// createSubsite creates the web under the chosen site. Stale choice values
// are passed through; the directory rejects them.
func (h *handlers) createSubsite(ctx context.Context, dir Directory, req model.ActionRequest) (model.Reply, error) {
	if req.Subsite == nil {
		return model.Reply{}, model.ErrIncompleteSubmission
	}
	in := req.Subsite
	parent, err := dir.GetSiteByURL(ctx, in.SiteURL)
	if err != nil {
		return model.Reply{}, fmt.Errorf("get site %s: %w", in.SiteURL, err)
	}
	web, err := dir.CreateSubweb(ctx, parent, model.WebCreation{
		WebTemplate:        in.WebTemplate,
		Title:              in.SubsiteName,
		Description:        in.SubsiteName,
		URL:                url.QueryEscape(in.SubsiteName),
		InheritPermissions: true,
	})
	if err != nil {
		return model.Reply{}, fmt.Errorf("create subweb %q: %w", in.SubsiteName, err)
	}
	return model.Reply{
		Text: textSubsiteCreated,
		SuggestedActions: []model.CardAction{
			{Title: textGoToNewSubsite, Type: model.CardActionOpenURL, Value: web.URL},
		},
	}, nil
}

func (h *handlers) runDiagnostics(ctx context.Context, dir Directory, _ model.ActionRequest) (model.Reply, error) {
	sites, err := dir.ListSites(ctx, 0, true)
	if err != nil {
		return model.Reply{}, fmt.Errorf("list sites: %w", err)
	}
	for _, s := range sites {
		slog.Debug("diagnostics: site collection", "title", s.Title, "url", s.URL)
	}
	return model.TextReply(fmt.Sprintf("Diagnostics: the directory is reachable and lists %d site collections.", len(sites))), nil
}
