package nlu

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

// Config NLU endpoint configuration.
type Config struct {
	// ServiceURI is the query URL the percent-encoded text is appended to.
	ServiceURI string
	Timeout    time.Duration
}

// Client queries the hosted NLU classifier.
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient creates an NLU client.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// TopIntent is the topScoringIntent of a response.
type TopIntent struct {
	Intent string
	Score  float64
}

// Query sends text to the endpoint and returns the top scoring intent.
// The response shape is
// {query, intents:[{intent,score}], entities:[...], topScoringIntent:{intent,score}};
// only topScoringIntent is read.
func (c *Client) Query(ctx context.Context, text string) (TopIntent, error) {
	reqURL := c.cfg.ServiceURI + url.QueryEscape(text)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return TopIntent{}, fmt.Errorf("new request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return TopIntent{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return TopIntent{}, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return TopIntent{}, fmt.Errorf("nlu api error: %s %s", resp.Status, string(data))
	}
	if !gjson.ValidBytes(data) {
		return TopIntent{}, fmt.Errorf("nlu response is not valid json")
	}
	top := gjson.GetBytes(data, "topScoringIntent")
	if !top.IsObject() {
		return TopIntent{}, fmt.Errorf("nlu response has no topScoringIntent")
	}
	return TopIntent{
		Intent: top.Get("intent").String(),
		Score:  top.Get("score").Float(),
	}, nil
}
