package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"sitebot/internal/client/nlu"
	"sitebot/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeNLU struct {
	top   nlu.TopIntent
	err   error
	calls int
}

func (f *fakeNLU) Query(_ context.Context, _ string) (nlu.TopIntent, error) {
	f.calls++
	return f.top, f.err
}

type fakeDirectory struct {
	sites     []model.Site
	templates []model.WebTemplate
	language  int
	web       model.Web
	err       error

	mu          sync.Mutex
	gotLanguage int
	gotCompat   int
	gotParent   model.SiteHandle
	gotCreation model.WebCreation
	created     int
}

func (f *fakeDirectory) ListSites(context.Context, int, bool) ([]model.Site, error) {
	return f.sites, f.err
}

func (f *fakeDirectory) WebLanguage(context.Context) (int, error) {
	return f.language, f.err
}

func (f *fakeDirectory) ListWebTemplates(_ context.Context, lang, compat int) ([]model.WebTemplate, error) {
	f.gotLanguage, f.gotCompat = lang, compat
	return f.templates, f.err
}

func (f *fakeDirectory) GetSiteByURL(_ context.Context, siteURL string) (model.SiteHandle, error) {
	if f.err != nil {
		return model.SiteHandle{}, f.err
	}
	return model.SiteHandle{ID: "site-id", URL: siteURL}, nil
}

func (f *fakeDirectory) CreateSubweb(_ context.Context, parent model.SiteHandle, info model.WebCreation) (model.Web, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotParent, f.gotCreation = parent, info
	if f.err != nil {
		return model.Web{}, f.err
	}
	f.created++
	return f.web, nil
}

type sent struct {
	addr  model.Address
	reply model.Reply
}

type fakeTransport struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (f *fakeTransport) Send(_ context.Context, addr model.Address, reply model.Reply) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sent{addr: addr, reply: reply})
	return nil
}

type fakeSignIn struct {
	token  string
	err    error
	states []string
	codes  []string
}

func (f *fakeSignIn) SignInURL(state, resourceID string) string {
	f.states = append(f.states, state)
	return "https://login.example.com/authorize?state=" + state + "&resource=" + resourceID
}

func (f *fakeSignIn) Exchange(_ context.Context, code, _ string) (string, error) {
	f.codes = append(f.codes, code)
	return f.token, f.err
}
