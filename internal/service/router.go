package service

import (
	"context"
	"fmt"

	"sitebot/internal/model"
)

// ActionHandler executes one resolved action and produces its reply.
type ActionHandler func(ctx context.Context, dir Directory, req model.ActionRequest) (model.Reply, error)

// IntentRouter maps intents to actions and actions to handlers.
type IntentRouter struct {
	diagnostics bool
	handlers    map[model.ActionKind]ActionHandler
}

// RouterOption configures an IntentRouter.
type RouterOption func(*IntentRouter)

// WithDiagnostics enables the internal diagnostic intent. When disabled the
// intent is treated like any unmatched name.
func WithDiagnostics(enabled bool) RouterOption {
	return func(r *IntentRouter) { r.diagnostics = enabled }
}

// WithHandler replaces the handler of one action kind.
func WithHandler(kind model.ActionKind, h ActionHandler) RouterOption {
	return func(r *IntentRouter) { r.handlers[kind] = h }
}

// NewIntentRouter builds the dispatch table. Every action kind must end up
// with a handler.
func NewIntentRouter(collector *FormCollector, opts ...RouterOption) (*IntentRouter, error) {
	h := &handlers{collector: collector}
	r := &IntentRouter{
		handlers: map[model.ActionKind]ActionHandler{
			model.ActionShowSuggestions:       h.showSuggestions,
			model.ActionGreet:                 h.greet,
			model.ActionListSites:             h.listSites,
			model.ActionShowLogoChangeTargets: h.showLogoChangeTargets,
			model.ActionBeginSubsiteForm:      h.beginSubsiteForm,
			model.ActionCreateSubsite:         h.createSubsite,
			model.ActionRunDiagnostics:        h.runDiagnostics,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, kind := range model.ActionKinds {
		if r.handlers[kind] == nil {
			return nil, fmt.Errorf("%w: %s", model.ErrNoHandler, kind)
		}
	}
	return r, nil
}

// Route maps a classification result to an action. Anything that is not a
// known intent, including the fallback result, shows the suggestions.
func (r *IntentRouter) Route(result model.IntentResult) model.ActionRequest {
	switch result.Intent() {
	case model.IntentHello:
		return model.NewAction(model.ActionGreet)
	case model.IntentSiteCollectionsShow:
		return model.NewAction(model.ActionListSites)
	case model.IntentLogoChange:
		return model.NewAction(model.ActionShowLogoChangeTargets)
	case model.IntentSubsiteCreate:
		return model.NewAction(model.ActionBeginSubsiteForm)
	case model.IntentDiagnostic:
		if r.diagnostics {
			return model.NewAction(model.ActionRunDiagnostics)
		}
		return model.NewAction(model.ActionShowSuggestions)
	default:
		return model.NewAction(model.ActionShowSuggestions)
	}
}

// Execute runs the handler registered for req.
func (r *IntentRouter) Execute(ctx context.Context, dir Directory, req model.ActionRequest) (model.Reply, error) {
	return r.handlers[req.Kind](ctx, dir, req)
}
