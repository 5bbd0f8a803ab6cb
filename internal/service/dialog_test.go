package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"sitebot/internal/client/nlu"
	"sitebot/internal/model"
	"sitebot/internal/session"
)

const testResource = "https://contoso-admin.sharepoint.com"

type harness struct {
	dialog    *DialogSession
	store     *session.MemoryStore
	nlu       *fakeNLU
	dir       *fakeDirectory
	transport *fakeTransport
	signIn    *fakeSignIn
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:     session.NewMemoryStore(),
		nlu:       &fakeNLU{},
		dir:       testDirectory(),
		transport: &fakeTransport{},
		signIn:    &fakeSignIn{token: "access-token"},
	}
	gate, err := NewAuthGate("contoso.onmicrosoft.com", "-admin.sharepoint.com", testResource,
		func(string, string) Directory { return h.dir })
	if err != nil {
		t.Fatalf("NewAuthGate: %v", err)
	}
	collector := NewFormCollector(15)
	router, err := NewIntentRouter(collector)
	if err != nil {
		t.Fatalf("NewIntentRouter: %v", err)
	}
	h.dialog = NewDialogSession(DialogDeps{
		Store:      h.store,
		Gate:       gate,
		Classifier: NewIntentClassifier(h.nlu, testLogger()),
		Router:     router,
		Collector:  collector,
		Transport:  h.transport,
		SignIn:     h.signIn,
		Logger:     testLogger(),
	})
	return h
}

func (h *harness) authenticate(t *testing.T, conversationID string) {
	t.Helper()
	s := session.New(model.Address{ConversationID: conversationID, ServiceURL: "https://svc/"})
	s.BeginAuth("n")
	if err := s.CompleteAuth("n", testResource, "access-token"); err != nil {
		t.Fatal(err)
	}
	if err := h.store.Put(context.Background(), s); err != nil {
		t.Fatal(err)
	}
}

func textActivity(conversationID, text string) model.Activity {
	return model.Activity{
		Type:         "message",
		ID:           "act",
		ServiceURL:   "https://svc/",
		Conversation: model.ConversationAccount{ID: conversationID},
		Text:         text,
	}
}

func formActivity(conversationID, value string) model.Activity {
	a := textActivity(conversationID, "")
	a.Value = json.RawMessage(value)
	return a
}

func TestTurn_Greeting(t *testing.T) {
	h := newHarness(t)
	h.authenticate(t, "c1")
	h.nlu.top = nlu.TopIntent{Intent: "Hello", Score: 0.99}

	out, err := h.dialog.HandleActivity(context.Background(), textActivity("c1", "Hello"))
	if err != nil {
		t.Fatalf("HandleActivity: %v", err)
	}
	if out.Kind != OutcomeReplied || out.Action != model.ActionGreet {
		t.Errorf("outcome = %+v", out)
	}
	if len(h.transport.sent) != 1 {
		t.Fatalf("sent %d replies", len(h.transport.sent))
	}
	reply := h.transport.sent[0].reply
	if reply.Text != textGreeting || len(reply.SuggestedActions) != 0 || reply.Form != nil {
		t.Errorf("reply = %+v", reply)
	}
}

func TestTurn_FormSubmissionCreatesSubsite(t *testing.T) {
	h := newHarness(t)
	h.authenticate(t, "c1")
	h.dir.web = model.Web{URL: "https://x/sites/a/Team1"}

	out, err := h.dialog.HandleActivity(context.Background(),
		formActivity("c1", `{"SpSite":"https://x/sites/a","SubsiteName":"Team1","SpWebTemplate":"STS#0"}`))
	if err != nil {
		t.Fatalf("HandleActivity: %v", err)
	}
	if out.Action != model.ActionCreateSubsite || out.Kind != OutcomeReplied {
		t.Errorf("outcome = %+v", out)
	}
	if h.dir.created != 1 {
		t.Errorf("created %d webs, want 1", h.dir.created)
	}
	if h.nlu.calls != 0 {
		t.Errorf("form submission must not be classified")
	}
	reply := h.transport.sent[0].reply
	if len(reply.SuggestedActions) != 1 || reply.SuggestedActions[0].Type != model.CardActionOpenURL ||
		reply.SuggestedActions[0].Value != "https://x/sites/a/Team1" {
		t.Errorf("reply = %+v", reply)
	}
}

func TestTurn_LowConfidenceFallsBack(t *testing.T) {
	h := newHarness(t)
	h.authenticate(t, "c1")
	h.nlu.top = nlu.TopIntent{Intent: "Subsite.Create", Score: 0.80}

	out, err := h.dialog.HandleActivity(context.Background(), textActivity("c1", "garbage input"))
	if err != nil {
		t.Fatalf("HandleActivity: %v", err)
	}
	if out.Action != model.ActionShowSuggestions {
		t.Errorf("action = %v, want suggestions", out.Action)
	}
	if h.transport.sent[0].reply.Form != nil {
		t.Error("no form may be shown below the threshold")
	}
}

func TestTurn_UnauthenticatedDivertsToSignIn(t *testing.T) {
	h := newHarness(t)
	h.nlu.top = nlu.TopIntent{Intent: "Hello", Score: 0.99}
	ctx := context.Background()

	out, err := h.dialog.HandleActivity(ctx, textActivity("c1", "Hello"))
	if err != nil {
		t.Fatalf("HandleActivity: %v", err)
	}
	if out.Kind != OutcomeAuthRequired {
		t.Fatalf("outcome = %+v", out)
	}
	if h.nlu.calls != 0 {
		t.Error("gated turn must not be classified")
	}
	prompt := h.transport.sent[0].reply
	if len(prompt.SuggestedActions) != 1 || prompt.SuggestedActions[0].Type != model.CardActionOpenURL {
		t.Fatalf("prompt = %+v", prompt)
	}
	sess, _ := h.store.Get(ctx, "c1")
	if sess.State != session.StateAwaitingAuth {
		t.Fatalf("state = %v", sess.State)
	}

	// a second message while waiting re-sends the same link
	if _, err := h.dialog.HandleActivity(ctx, textActivity("c1", "anyone?")); err != nil {
		t.Fatal(err)
	}
	if len(h.signIn.states) != 2 || h.signIn.states[0] != h.signIn.states[1] {
		t.Errorf("sign-in states = %v", h.signIn.states)
	}

	if err := h.dialog.CompleteSignIn(ctx, h.signIn.states[0], "code-1"); err != nil {
		t.Fatalf("CompleteSignIn: %v", err)
	}
	sess, _ = h.store.Get(ctx, "c1")
	if sess.State != session.StateAuthenticated || sess.AccessToken != "access-token" {
		t.Errorf("session = %+v", sess)
	}
	// completion message + prompt, and the triggering "Hello" is not replayed
	replies := h.transport.sent[2:]
	if len(replies) != 2 || replies[0].reply.Text != textSignedIn || replies[1].reply.Text != textWhatWouldYouLike {
		t.Errorf("post sign-in replies = %+v", replies)
	}
	if h.nlu.calls != 0 {
		t.Error("triggering message must not be reprocessed after sign-in")
	}

	// the next fresh message is routed normally
	out, err = h.dialog.HandleActivity(ctx, textActivity("c1", "Hello"))
	if err != nil {
		t.Fatal(err)
	}
	if out.Action != model.ActionGreet || out.Kind != OutcomeReplied {
		t.Errorf("outcome after sign-in = %+v", out)
	}
}

func TestTurn_FormWithNoTitledSites(t *testing.T) {
	h := newHarness(t)
	h.authenticate(t, "c1")
	h.dir.sites = []model.Site{{Title: "", URL: "https://x/sites/a"}}
	h.nlu.top = nlu.TopIntent{Intent: "Subsite.Create", Score: 0.97}

	out, err := h.dialog.HandleActivity(context.Background(), textActivity("c1", "create a subsite"))
	if err != nil {
		t.Fatal(err)
	}
	if out.Action != model.ActionBeginSubsiteForm || out.Kind != OutcomeReplied {
		t.Fatalf("outcome = %+v", out)
	}
	form := h.transport.sent[0].reply.Form
	if form == nil {
		t.Fatal("form not emitted")
	}
	site, ok := form.Field(model.FieldSite)
	if !ok || len(site.Options) != 0 {
		t.Errorf("site field = %+v", site)
	}
}

func TestTurn_IncompleteSubmissionIsDropped(t *testing.T) {
	h := newHarness(t)
	h.authenticate(t, "c1")

	out, err := h.dialog.HandleActivity(context.Background(),
		formActivity("c1", `{"SpSite":"https://x/sites/a","SubsiteName":"Team1"}`))
	if err != nil {
		t.Fatal(err)
	}
	if out.Kind != OutcomeDropped {
		t.Errorf("outcome = %+v", out)
	}
	if len(h.transport.sent) != 0 || h.dir.created != 0 {
		t.Errorf("dropped submission replied or created: sent=%d created=%d", len(h.transport.sent), h.dir.created)
	}
}

func TestTurn_DirectoryFailureApologises(t *testing.T) {
	h := newHarness(t)
	h.authenticate(t, "c1")
	h.dir.err = model.ErrDirectory
	h.nlu.top = nlu.TopIntent{Intent: "SiteCollections.Show", Score: 0.99}

	out, err := h.dialog.HandleActivity(context.Background(), textActivity("c1", "show sites"))
	if err != nil {
		t.Fatalf("HandleActivity: %v", err)
	}
	if out.Kind != OutcomeFailed {
		t.Errorf("outcome = %+v", out)
	}
	if h.transport.sent[0].reply.Text != textSomethingWrong {
		t.Errorf("reply = %+v", h.transport.sent[0].reply)
	}
	sess, _ := h.store.Get(context.Background(), "c1")
	if sess.State != session.StateAuthenticated {
		t.Errorf("state after failure = %v", sess.State)
	}
}

func TestTurn_IgnoredActivities(t *testing.T) {
	h := newHarness(t)
	out, err := h.dialog.HandleActivity(context.Background(), model.Activity{Type: "conversationUpdate"})
	if err != nil || out.Kind != OutcomeIgnored {
		t.Errorf("conversationUpdate: %+v, %v", out, err)
	}
	out, err = h.dialog.HandleActivity(context.Background(), textActivity("c1", ""))
	if err != nil || out.Kind != OutcomeIgnored {
		t.Errorf("empty message: %+v, %v", out, err)
	}
	if len(h.transport.sent) != 0 {
		t.Error("ignored activities must not reply")
	}
}

func TestTurn_TransportFailure(t *testing.T) {
	h := newHarness(t)
	h.authenticate(t, "c1")
	h.transport.err = errors.New("channel down")
	h.nlu.top = nlu.TopIntent{Intent: "Hello", Score: 0.99}
	if _, err := h.dialog.HandleActivity(context.Background(), textActivity("c1", "Hello")); err == nil {
		t.Error("expected delivery error")
	}
}

func TestCompleteSignIn_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.dialog.CompleteSignIn(ctx, "no-separator", "code"); !errors.Is(err, model.ErrAuthStateMismatch) {
		t.Errorf("malformed state err = %v", err)
	}
	if err := h.dialog.CompleteSignIn(ctx, "unknown|nonce", "code"); !errors.Is(err, model.ErrUnknownConversation) {
		t.Errorf("unknown conversation err = %v", err)
	}

	if _, err := h.dialog.HandleActivity(ctx, textActivity("c1", "hi")); err != nil {
		t.Fatal(err)
	}
	if err := h.dialog.CompleteSignIn(ctx, "c1|wrong-nonce", "code"); !errors.Is(err, model.ErrAuthStateMismatch) {
		t.Errorf("wrong nonce err = %v", err)
	}
	if len(h.signIn.codes) != 0 {
		t.Error("code must not be exchanged for a mismatched state")
	}

	h.signIn.err = errors.New("invalid_grant")
	if err := h.dialog.CompleteSignIn(ctx, h.signIn.states[0], "code"); err == nil {
		t.Error("expected exchange error")
	}
	sess, _ := h.store.Get(ctx, "c1")
	if sess.State != session.StateAwaitingAuth {
		t.Errorf("state after failed exchange = %v", sess.State)
	}
}

func TestParseAuthState(t *testing.T) {
	id, nonce, err := parseAuthState(formatAuthState("a:19|thread", "n-1"))
	if err != nil || id != "a:19|thread" || nonce != "n-1" {
		t.Errorf("parseAuthState = %q, %q, %v", id, nonce, err)
	}
	for _, bad := range []string{"", "|n", "c|"} {
		if _, _, err := parseAuthState(bad); err == nil {
			t.Errorf("parseAuthState(%q) expected error", bad)
		}
	}
}

func TestConversationLocks_Serialise(t *testing.T) {
	locks := newConversationLocks()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		running int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("c1")
			mu.Lock()
			running++
			if running > maxSeen {
				maxSeen = running
			}
			mu.Unlock()
			mu.Lock()
			running--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Errorf("max concurrent turns = %d, want 1", maxSeen)
	}
	if len(locks.locks) != 0 {
		t.Errorf("%d locks leaked", len(locks.locks))
	}
}

func TestTurn_ConcurrentConversations(t *testing.T) {
	h := newHarness(t)
	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c"} {
		h.authenticate(t, id)
	}
	for _, id := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := h.dialog.HandleActivity(context.Background(),
				formActivity(id, `{"SpSite":"s","SubsiteName":"n","SpWebTemplate":"t"}`)); err != nil {
				t.Errorf("conversation %s: %v", id, err)
			}
		}(id)
	}
	wg.Wait()
	if got := len(h.transport.sent); got != 3 {
		t.Errorf("sent %d replies, want 3", got)
	}
	for _, s := range h.transport.sent {
		if !strings.Contains(s.reply.Text, "created") {
			t.Errorf("reply = %q", s.reply.Text)
		}
	}
}
