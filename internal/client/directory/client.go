package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sitebot/internal/model"
)

// Config Directory Service client configuration.
type Config struct {
	Timeout time.Duration
}

// Client is the Directory Service REST client. Calls are made through a
// Tenant bound to an admin endpoint and an access token.
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient creates a Directory Service client.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Tenant returns an authenticated handle on the tenant admin endpoint.
func (c *Client) Tenant(adminURL, accessToken string) *Tenant {
	return &Tenant{
		http:     c.client,
		adminURL: strings.TrimRight(adminURL, "/"),
		token:    accessToken,
	}
}

// Tenant is an authenticated session against one tenant.
type Tenant struct {
	http     *http.Client
	adminURL string
	token    string
}

// AdminURL returns the admin root endpoint this handle is bound to.
func (t *Tenant) AdminURL() string {
	return t.adminURL
}

type listResp[T any] struct {
	Value []T `json:"value"`
}

// ListSites lists the tenant's site collections starting at pageIndex.
func (t *Tenant) ListSites(ctx context.Context, pageIndex int, includeAll bool) ([]model.Site, error) {
	q := url.Values{}
	q.Set("startIndex", strconv.Itoa(pageIndex))
	q.Set("includeDetail", strconv.FormatBool(includeAll))
	var out listResp[model.Site]
	if err := t.get(ctx, t.adminURL+"/_api/tenant/sites?"+q.Encode(), "list sites", &out); err != nil {
		return nil, err
	}
	return out.Value, nil
}

// WebLanguage returns the locale id of the admin root web.
func (t *Tenant) WebLanguage(ctx context.Context) (int, error) {
	var out struct {
		Language int `json:"Language"`
	}
	if err := t.get(ctx, t.adminURL+"/_api/web?$select=Language", "get web", &out); err != nil {
		return 0, err
	}
	return out.Language, nil
}

// ListWebTemplates lists the web templates available for a locale and compatibility level.
func (t *Tenant) ListWebTemplates(ctx context.Context, languageID, compatLevel int) ([]model.WebTemplate, error) {
	q := url.Values{}
	q.Set("lcid", strconv.Itoa(languageID))
	q.Set("compatLevel", strconv.Itoa(compatLevel))
	var out listResp[model.WebTemplate]
	if err := t.get(ctx, t.adminURL+"/_api/tenant/webtemplates?"+q.Encode(), "list web templates", &out); err != nil {
		return nil, err
	}
	return out.Value, nil
}

// GetSiteByURL resolves a site collection by its URL.
func (t *Tenant) GetSiteByURL(ctx context.Context, siteURL string) (model.SiteHandle, error) {
	q := url.Values{}
	q.Set("url", siteURL)
	var out model.SiteHandle
	if err := t.get(ctx, t.adminURL+"/_api/tenant/sites/byurl?"+q.Encode(), "get site", &out); err != nil {
		return model.SiteHandle{}, err
	}
	if out.URL == "" {
		out.URL = siteURL
	}
	return out, nil
}

type webCreationParams struct {
	URL                            string `json:"Url"`
	Title                          string `json:"Title"`
	Description                    string `json:"Description"`
	WebTemplate                    string `json:"WebTemplate"`
	UseSamePermissionsAsParentSite bool   `json:"UseSamePermissionsAsParentSite"`
}

// CreateSubweb creates a web under the root web of parent.
func (t *Tenant) CreateSubweb(ctx context.Context, parent model.SiteHandle, info model.WebCreation) (model.Web, error) {
	body, err := json.Marshal(map[string]webCreationParams{
		"parameters": {
			URL:                            info.URL,
			Title:                          info.Title,
			Description:                    info.Description,
			WebTemplate:                    info.WebTemplate,
			UseSamePermissionsAsParentSite: info.InheritPermissions,
		},
	})
	if err != nil {
		return model.Web{}, fmt.Errorf("marshal request: %w", err)
	}
	endpoint := strings.TrimRight(parent.URL, "/") + "/_api/web/webinfos/add"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return model.Web{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	var out model.Web
	if err := t.do(req, "create subweb", &out); err != nil {
		return model.Web{}, err
	}
	return out, nil
}

func (t *Tenant) get(ctx context.Context, endpoint, apiName string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return t.do(req, apiName, out)
}

// do sends req and decodes the body into out. The status code is checked
// before the body is parsed so plain-text gateway errors surface as such.
func (t *Tenant) do(req *http.Request, apiName string, out any) error {
	req.Header.Set("Accept", "application/json;odata=nometadata")
	req.Header.Set("Authorization", "Bearer "+t.token)
	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrDirectory, apiName, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %s: read body: %v", model.ErrDirectory, apiName, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s: http status %d, body: %s", model.ErrDirectory, apiName, resp.StatusCode, string(b))
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%w: %s: parse response: %v, body: %s", model.ErrDirectory, apiName, err, string(b))
	}
	return nil
}
