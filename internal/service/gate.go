package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"sitebot/internal/model"
	"sitebot/internal/session"
)

// Directory is the tenant's Directory Service, bound to one access token.
type Directory interface {
	ListSites(ctx context.Context, pageIndex int, includeAll bool) ([]model.Site, error)
	WebLanguage(ctx context.Context) (int, error)
	ListWebTemplates(ctx context.Context, languageID, compatLevel int) ([]model.WebTemplate, error)
	GetSiteByURL(ctx context.Context, siteURL string) (model.SiteHandle, error)
	CreateSubweb(ctx context.Context, parent model.SiteHandle, info model.WebCreation) (model.Web, error)
}

// ConnectFunc opens an authenticated Directory handle on the admin endpoint.
type ConnectFunc func(adminURL, accessToken string) Directory

// Admission is the outcome of gating one turn. Directory is set only when
// the turn is admitted.
type Admission struct {
	Admitted  bool
	Directory Directory
}

// AuthGate decides whether a turn may proceed or must sign in first.
type AuthGate struct {
	adminURL   string
	resourceID string
	connect    ConnectFunc
}

var tenantIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]*$`)

// AdminURL derives the admin root endpoint from a tenant domain: the part
// before the first dot, followed by the admin host suffix.
// "contoso.onmicrosoft.com" with "-admin.sharepoint.com" gives
// "https://contoso-admin.sharepoint.com".
func AdminURL(tenantDomain, adminHostSuffix string) (string, error) {
	tenantID, _, _ := strings.Cut(strings.TrimSpace(tenantDomain), ".")
	if !tenantIDPattern.MatchString(tenantID) {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidTenant, tenantDomain)
	}
	if adminHostSuffix == "" {
		return "", fmt.Errorf("%w: empty admin host suffix", model.ErrInvalidTenant)
	}
	return "https://" + tenantID + adminHostSuffix, nil
}

// NewAuthGate builds the gate. A missing or malformed tenant is a
// configuration error.
func NewAuthGate(tenantDomain, adminHostSuffix, resourceID string, connect ConnectFunc) (*AuthGate, error) {
	adminURL, err := AdminURL(tenantDomain, adminHostSuffix)
	if err != nil {
		return nil, err
	}
	if resourceID == "" {
		return nil, fmt.Errorf("auth gate: resource id is required")
	}
	return &AuthGate{adminURL: adminURL, resourceID: resourceID, connect: connect}, nil
}

// ResourceID is the resource access tokens are requested for.
func (g *AuthGate) ResourceID() string {
	return g.resourceID
}

// AdminURL is the admin root endpoint handles are bound to.
func (g *AuthGate) AdminURL() string {
	return g.adminURL
}

// Admit checks the session for a token on the gate's resource.
func (g *AuthGate) Admit(s *session.Session) Admission {
	token, ok := s.AccessTokenFor(g.resourceID)
	if !ok {
		return Admission{}
	}
	return Admission{Admitted: true, Directory: g.connect(g.adminURL, token)}
}
