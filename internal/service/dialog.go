package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"sitebot/internal/model"
	"sitebot/internal/session"
)

// Transport delivers replies to a conversation.
type Transport interface {
	Send(ctx context.Context, addr model.Address, reply model.Reply) error
}

// SignInProvider runs the interactive authentication sub-flow.
type SignInProvider interface {
	SignInURL(state, resourceID string) string
	Exchange(ctx context.Context, code, resourceID string) (string, error)
}

// OutcomeKind summarises what a turn did.
type OutcomeKind string

const (
	OutcomeIgnored      OutcomeKind = "ignored"       // nothing routable in the activity
	OutcomeAuthRequired OutcomeKind = "auth_required" // diverted to sign-in
	OutcomeDropped      OutcomeKind = "dropped"       // incomplete form submission
	OutcomeReplied      OutcomeKind = "replied"
	OutcomeFailed       OutcomeKind = "failed" // handler failed, apology sent
)

// TurnOutcome is the result of one processed turn.
type TurnOutcome struct {
	TurnID string           `json:"turn_id"`
	Kind   OutcomeKind      `json:"outcome"`
	Action model.ActionKind `json:"-"`
	Reply  *model.Reply     `json:"reply,omitempty"`
}

// DialogSession drives the turn loop: gate, classify, route, reply.
// Turns of one conversation run strictly one at a time.
type DialogSession struct {
	store      session.Store
	gate       *AuthGate
	classifier *IntentClassifier
	router     *IntentRouter
	collector  *FormCollector
	transport  Transport
	signIn     SignInProvider
	logger     *slog.Logger
	locks      *conversationLocks
}

// DialogDeps are the collaborators of a DialogSession.
type DialogDeps struct {
	Store      session.Store
	Gate       *AuthGate
	Classifier *IntentClassifier
	Router     *IntentRouter
	Collector  *FormCollector
	Transport  Transport
	SignIn     SignInProvider
	Logger     *slog.Logger
}

func NewDialogSession(deps DialogDeps) *DialogSession {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DialogSession{
		store:      deps.Store,
		gate:       deps.Gate,
		classifier: deps.Classifier,
		router:     deps.Router,
		collector:  deps.Collector,
		transport:  deps.Transport,
		signIn:     deps.SignIn,
		logger:     logger,
		locks:      newConversationLocks(),
	}
}

// HandleActivity decides the message variant of an inbound activity and
// processes it as one turn.
func (d *DialogSession) HandleActivity(ctx context.Context, a model.Activity) (TurnOutcome, error) {
	msg, ok := model.ParseActivity(a)
	if !ok {
		d.logger.Debug("ignoring activity", "type", a.Type, "conversation", a.Conversation.ID)
		return TurnOutcome{TurnID: uuid.NewString(), Kind: OutcomeIgnored}, nil
	}
	return d.HandleMessage(ctx, msg)
}

// HandleMessage processes one turn. Errors are returned only when session
// state could not be loaded or saved, or the reply could not be delivered.
func (d *DialogSession) HandleMessage(ctx context.Context, msg model.Message) (TurnOutcome, error) {
	addr := msg.Addr()
	out := TurnOutcome{TurnID: uuid.NewString()}
	logger := d.logger.With("conversation", addr.ConversationID, "turn", out.TurnID)

	unlock := d.locks.lock(addr.ConversationID)
	defer unlock()

	sess, err := d.loadSession(ctx, addr)
	if err != nil {
		return out, err
	}

	adm := d.gate.Admit(sess)
	if !adm.Admitted {
		out.Kind = OutcomeAuthRequired
		reply := d.beginSignIn(sess)
		out.Reply = &reply
		logger.Info("turn requires sign-in", "state", sess.State)
		if err := d.store.Put(ctx, sess); err != nil {
			return out, fmt.Errorf("save session: %w", err)
		}
		return out, d.send(ctx, addr, reply)
	}

	var req model.ActionRequest
	switch m := msg.(type) {
	case model.TextMessage:
		result := d.classifier.Classify(ctx, m.Text)
		req = d.router.Route(result)
		logger.Debug("classified", "intent", result.Name, "confidence", result.Confidence, "action", req.Kind)
	case model.FormSubmission:
		var ok bool
		req, ok = d.collector.Reconcile(m.Fields)
		if !ok {
			out.Kind = OutcomeDropped
			logger.Info("dropping incomplete form submission", "fields", len(m.Fields))
			if err := d.store.Put(ctx, sess); err != nil {
				return out, fmt.Errorf("save session: %w", err)
			}
			return out, nil
		}
	default:
		return out, fmt.Errorf("unsupported message type %T", msg)
	}
	out.Action = req.Kind

	reply, err := d.router.Execute(ctx, adm.Directory, req)
	if err != nil {
		logger.Error("action failed", "action", req.Kind, "err", err)
		out.Kind = OutcomeFailed
		reply = model.TextReply(textSomethingWrong)
	} else {
		out.Kind = OutcomeReplied
		logger.Info("action executed", "action", req.Kind)
	}
	out.Reply = &reply

	if err := d.store.Put(ctx, sess); err != nil {
		return out, fmt.Errorf("save session: %w", err)
	}
	return out, d.send(ctx, addr, reply)
}

// CompleteSignIn finishes the sub-flow started by a gated turn. The session
// becomes authenticated and waits for a new message; the message that
// triggered the sign-in is not replayed.
func (d *DialogSession) CompleteSignIn(ctx context.Context, state, code string) error {
	conversationID, nonce, err := parseAuthState(state)
	if err != nil {
		return err
	}

	unlock := d.locks.lock(conversationID)
	defer unlock()

	sess, err := d.store.Get(ctx, conversationID)
	if err != nil {
		return err
	}
	if sess.State != session.StateAwaitingAuth || sess.AuthNonce != nonce {
		return model.ErrAuthStateMismatch
	}
	token, err := d.signIn.Exchange(ctx, code, d.gate.ResourceID())
	if err != nil {
		return fmt.Errorf("sign-in: %w", err)
	}
	if err := sess.CompleteAuth(nonce, d.gate.ResourceID(), token); err != nil {
		return err
	}
	if err := d.store.Put(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	d.logger.Info("conversation signed in", "conversation", conversationID)

	if err := d.send(ctx, sess.Address, model.TextReply(textSignedIn)); err != nil {
		return err
	}
	return d.send(ctx, sess.Address, model.TextReply(textWhatWouldYouLike))
}

func (d *DialogSession) loadSession(ctx context.Context, addr model.Address) (*session.Session, error) {
	sess, err := d.store.Get(ctx, addr.ConversationID)
	if errors.Is(err, model.ErrUnknownConversation) {
		return session.New(addr), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	// replies go to wherever the latest turn came from
	sess.Address = addr
	return sess, nil
}

// beginSignIn parks the session in the sign-in sub-flow and returns the
// prompt. A pending sign-in keeps its nonce so earlier links stay valid.
func (d *DialogSession) beginSignIn(sess *session.Session) model.Reply {
	if sess.State != session.StateAwaitingAuth || sess.AuthNonce == "" {
		sess.BeginAuth(uuid.NewString())
	}
	state := formatAuthState(sess.ConversationID, sess.AuthNonce)
	return model.Reply{
		Text: textPleaseSignIn,
		SuggestedActions: []model.CardAction{{
			Title: textSignIn,
			Type:  model.CardActionOpenURL,
			Value: d.signIn.SignInURL(state, d.gate.ResourceID()),
		}},
	}
}

func (d *DialogSession) send(ctx context.Context, addr model.Address, reply model.Reply) error {
	if err := d.transport.Send(ctx, addr, reply); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

const authStateSep = "|"

func formatAuthState(conversationID, nonce string) string {
	return conversationID + authStateSep + nonce
}

// parseAuthState splits at the last separator; nonces never contain it.
func parseAuthState(state string) (conversationID, nonce string, err error) {
	i := strings.LastIndex(state, authStateSep)
	if i <= 0 || i == len(state)-1 {
		return "", "", fmt.Errorf("%w: malformed state", model.ErrAuthStateMismatch)
	}
	return state[:i], state[i+1:], nil
}

// conversationLocks serialises turns per conversation id.
type conversationLocks struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func newConversationLocks() *conversationLocks {
	return &conversationLocks{locks: make(map[string]*refLock)}
}

func (c *conversationLocks) lock(id string) (unlock func()) {
	c.mu.Lock()
	l, ok := c.locks[id]
	if !ok {
		l = &refLock{}
		c.locks[id] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, id)
		}
		c.mu.Unlock()
	}
}
