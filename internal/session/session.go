// Package session holds per-conversation dialog state and its stores.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sitebot/internal/model"
)

// State is the authentication state of a conversation.
type State int

const (
	StateUnauthenticated State = iota
	StateAwaitingAuth
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAwaitingAuth:
		return "awaiting_auth"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session is the typed state of one conversation.
type Session struct {
	ConversationID string        `json:"conversation_id"`
	Address        model.Address `json:"address"`
	State          State         `json:"state"`
	// AccessToken is valid for Resource once State is StateAuthenticated.
	AccessToken string `json:"access_token,omitempty"`
	Resource    string `json:"resource,omitempty"`
	// AuthNonce binds a pending sign-in to this conversation.
	AuthNonce string    `json:"auth_nonce,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates an unauthenticated session for a conversation.
func New(addr model.Address) *Session {
	now := time.Now().UTC()
	return &Session{
		ConversationID: addr.ConversationID,
		Address:        addr,
		State:          StateUnauthenticated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// AccessTokenFor returns the stored token if it was issued for resourceID.
func (s *Session) AccessTokenFor(resourceID string) (string, bool) {
	if s.State != StateAuthenticated || s.AccessToken == "" || s.Resource != resourceID {
		return "", false
	}
	return s.AccessToken, true
}

// BeginAuth moves the session to StateAwaitingAuth under a fresh nonce.
func (s *Session) BeginAuth(nonce string) {
	s.State = StateAwaitingAuth
	s.AuthNonce = nonce
}

// CompleteAuth stores the token and moves the session to StateAuthenticated.
// The nonce must match the pending sign-in.
func (s *Session) CompleteAuth(nonce, resourceID, token string) error {
	if s.State != StateAwaitingAuth || s.AuthNonce == "" || s.AuthNonce != nonce {
		return model.ErrAuthStateMismatch
	}
	s.State = StateAuthenticated
	s.AccessToken = token
	s.Resource = resourceID
	s.AuthNonce = ""
	return nil
}

// Store loads and saves sessions by conversation id.
type Store interface {
	// Get returns model.ErrUnknownConversation when no session exists.
	Get(ctx context.Context, conversationID string) (*Session, error)
	Put(ctx context.Context, s *Session) error
}

func encode(s *Session) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}
