package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2/clientcredentials"

	"sitebot/internal/model"
)

// Config Channel Transport configuration. When AppID and AppPassword are
// set, outbound requests carry a bot token obtained with client credentials.
type Config struct {
	AppID       string
	AppPassword string
	TokenURL    string
	Scope       string
	Timeout     time.Duration
}

const (
	defaultTokenURL = "https://login.microsoftonline.com/botframework.com/oauth2/v2.0/token"
	defaultScope    = "https://api.botframework.com/.default"
)

// Client posts reply activities to a conversation's service endpoint.
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient creates a Channel Transport client.
func NewClient(cfg Config) *Client {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.AppID != "" && cfg.AppPassword != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.AppID,
			ClientSecret: cfg.AppPassword,
			TokenURL:     orDefault(cfg.TokenURL, defaultTokenURL),
			Scopes:       []string{orDefault(cfg.Scope, defaultScope)},
		}
		httpClient = cc.Client(context.Background())
		httpClient.Timeout = cfg.Timeout
	}
	return &Client{cfg: cfg, client: httpClient}
}

type cardAction struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Value string `json:"value"`
}

type suggestedActions struct {
	Actions []cardAction `json:"actions"`
}

type attachment struct {
	ContentType string `json:"contentType"`
	Content     any    `json:"content"`
}

type outboundActivity struct {
	Type             string                    `json:"type"`
	ID               string                    `json:"id"`
	Timestamp        time.Time                 `json:"timestamp"`
	ChannelID        string                    `json:"channelId,omitempty"`
	From             model.ChannelAccount      `json:"from"`
	Recipient        model.ChannelAccount      `json:"recipient"`
	Conversation     model.ConversationAccount `json:"conversation"`
	ReplyToID        string                    `json:"replyToId,omitempty"`
	Text             string                    `json:"text"`
	TextFormat       string                    `json:"textFormat"`
	Speak            string                    `json:"speak,omitempty"`
	SuggestedActions *suggestedActions         `json:"suggestedActions,omitempty"`
	Attachments      []attachment              `json:"attachments,omitempty"`
}

func buildActivity(addr model.Address, reply model.Reply) outboundActivity {
	act := outboundActivity{
		Type:         model.ActivityTypeMessage,
		ID:           uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		ChannelID:    addr.ChannelID,
		From:         addr.Bot,
		Recipient:    addr.User,
		Conversation: model.ConversationAccount{ID: addr.ConversationID},
		ReplyToID:    addr.ReplyToID,
		Text:         reply.Text,
		TextFormat:   "plain",
	}
	if len(reply.SuggestedActions) > 0 {
		sa := &suggestedActions{}
		for _, a := range reply.SuggestedActions {
			sa.Actions = append(sa.Actions, cardAction{Type: string(a.Type), Title: a.Title, Value: a.Value})
		}
		act.SuggestedActions = sa
	}
	if reply.Form != nil {
		act.Speak = reply.Form.Speak
		act.Attachments = []attachment{{
			ContentType: AdaptiveCardContentType,
			Content:     RenderForm(*reply.Form),
		}}
	}
	return act
}

// Send posts reply to the conversation at addr.
func (c *Client) Send(ctx context.Context, addr model.Address, reply model.Reply) error {
	if addr.ServiceURL == "" || addr.ConversationID == "" {
		return fmt.Errorf("channel send: incomplete address %+v", addr)
	}
	data, err := json.Marshal(buildActivity(addr, reply))
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}
	endpoint := strings.TrimRight(addr.ServiceURL, "/") +
		"/v3/conversations/" + url.PathEscape(addr.ConversationID) + "/activities"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("channel send: %w", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("channel send: http status %d, body: %s", resp.StatusCode, string(b))
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
