package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
)

type fakeStore struct {
	events     []Event
	records    map[string][]Record
	recordsErr map[string]error
}

func (f *fakeStore) CreateEvent(_ context.Context, ev Event) error {
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeStore) ListEvents(_ context.Context, _, _, _ string, limit int) ([]Event, error) {
	if limit > 0 && len(f.events) > limit {
		return f.events[len(f.events)-limit:], nil
	}
	return f.events, nil
}

func (f *fakeStore) PutRecord(_ context.Context, rec Record) (Record, error) {
	if f.records == nil {
		f.records = map[string][]Record{}
	}
	f.records[rec.Namespace] = append(f.records[rec.Namespace], rec)
	return rec, nil
}

func (f *fakeStore) ListRecords(_ context.Context, _, namespace string) ([]Record, error) {
	if err := f.recordsErr[namespace]; err != nil {
		return nil, err
	}
	return f.records[namespace], nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func TestNewConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := NewConfig("mem-1", contractx.Identity{ActorID: "alice", SessionID: "s1"})
	if len(cfg.Retrieval) != 2 {
		t.Fatalf("expected two namespaces, got %d", len(cfg.Retrieval))
	}
	for _, ns := range []string{"/users/alice/facts", "/users/alice/preferences"} {
		rc, ok := cfg.Retrieval[ns]
		if !ok {
			t.Fatalf("missing namespace %s", ns)
		}
		if rc.TopK != 3 || rc.RelevanceScore != 0.5 {
			t.Fatalf("unexpected retrieval config for %s: %+v", ns, rc)
		}
	}
}

func TestNewSessionManagerRequiresScope(t *testing.T) {
	t.Parallel()

	_, err := NewSessionManager(NewConfig("", contractx.Identity{ActorID: "a", SessionID: "s"}), &fakeStore{})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("NewSessionManager() error = %v, want ErrValidation", err)
	}
}

func TestRetrieveFiltersAndCaps(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	facts := NamespacePath("alice", NamespaceFacts)
	prefs := NamespacePath("alice", NamespacePreferences)
	for _, text := range []string{
		"Alice loves street food in Bangkok",
		"Alice prefers street food markets",
		"street food tours are her favourite",
		"street food at night markets",
		"Alice is afraid of flying",
	} {
		_, _ = store.PutRecord(context.Background(), Record{Namespace: prefs, Text: text})
	}
	_, _ = store.PutRecord(context.Background(), Record{Namespace: facts, Text: "Vegetarian, no seafood"})

	mgr, err := NewSessionManager(NewConfig("mem-1", contractx.Identity{ActorID: "alice", SessionID: "s1"}), store)
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}

	matches := mgr.Retrieve(context.Background(), "Recommend street food please")
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d: %+v", len(matches), matches)
	}
	for _, m := range matches {
		if m.Namespace != prefs {
			t.Fatalf("unexpected namespace %s", m.Namespace)
		}
		if m.Score < 0.5 {
			t.Fatalf("match below threshold: %+v", m)
		}
		if !strings.Contains(strings.ToLower(m.Text), "street food") {
			t.Fatalf("unexpected match %q", m.Text)
		}
	}
}

func TestRetrieveSkipsFailingNamespace(t *testing.T) {
	t.Parallel()

	facts := NamespacePath("bob", NamespaceFacts)
	prefs := NamespacePath("bob", NamespacePreferences)
	store := &fakeStore{
		records: map[string][]Record{
			prefs: {{Namespace: prefs, Text: "budget hostels in Lisbon"}},
		},
		recordsErr: map[string]error{facts: errors.New("boom")},
	}

	mgr, err := NewSessionManager(NewConfig("mem-1", contractx.Identity{ActorID: "bob", SessionID: "s"}), store)
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}

	matches := mgr.Retrieve(context.Background(), "hostels Lisbon")
	if len(matches) != 1 || matches[0].Namespace != prefs {
		t.Fatalf("unexpected matches: %+v", matches)
	}
}

func TestAppendAndHistory(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	mgr, err := NewSessionManager(NewConfig("mem-1", contractx.Identity{ActorID: "alice", SessionID: "s1"}), store)
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}

	ctx := context.Background()
	if err := mgr.Append(ctx, RoleUser, "hello"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := mgr.Append(ctx, RoleAssistant, "hi there"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	history, err := mgr.History(ctx, 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 || history[1].Role != RoleAssistant {
		t.Fatalf("unexpected history: %+v", history)
	}
	if history[0].ActorID != "alice" || history[0].SessionID != "s1" || history[0].MemoryID != "mem-1" {
		t.Fatalf("event not scoped: %+v", history[0])
	}
}

func TestFormatContext(t *testing.T) {
	t.Parallel()

	if got := FormatContext(nil); got != "" {
		t.Fatalf("FormatContext(nil) = %q", got)
	}

	got := FormatContext([]Match{{Namespace: "/users/a/facts", Text: "vegan"}})
	want := "Relevant memories about this traveller:\n- [/users/a/facts] vegan"
	if got != want {
		t.Fatalf("FormatContext() = %q, want %q", got, want)
	}
}

func TestScoreUsesSmallerSide(t *testing.T) {
	t.Parallel()

	cases := []struct {
		query, record string
		want          float64
	}{
		{"Can you suggest vegetarian restaurants in Japan?", "Sarah is vegetarian and loves restaurants in Japan", 0.75},
		{"vegetarian ramen spots?", "prefers vegetarian ramen", 2.0 / 3.0},
		{"Which cities have the best museums?", "loves art museums in big cities", 2.0 / 3.0},
		{"budget hostels", "afraid of flying", 0},
	}
	for _, tc := range cases {
		if got := Score(tokenize(tc.query), tokenize(tc.record)); got != tc.want {
			t.Fatalf("Score(%q, %q) = %v, want %v", tc.query, tc.record, got, tc.want)
		}
	}
}

func TestTokenizeDropsStopwordsAndPlurals(t *testing.T) {
	t.Parallel()

	got := tokenize("What are the best cities and museums for you?")
	for _, want := range []string{"best", "city", "museum"} {
		if _, ok := got[want]; !ok {
			t.Fatalf("tokenize() missing %q: %v", want, got)
		}
	}
	if len(got) != 3 {
		t.Fatalf("unexpected tokens: %v", got)
	}
}

func TestRememberWritesRecordsOnce(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	mgr, err := NewSessionManager(NewConfig("mem-1", contractx.Identity{ActorID: "sarah", SessionID: "s1"}), store)
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}

	ctx := context.Background()
	insights := []Insight{
		{Kind: NamespacePreferences, Text: "Sarah is vegetarian and loves art museums and temples in Japan"},
		{Kind: NamespaceFacts, Text: "Travelling to Kyoto in April"},
		{Kind: "mood", Text: "happy"},
		{Kind: NamespaceFacts, Text: "  "},
	}
	n, err := mgr.Remember(ctx, insights)
	if err != nil {
		t.Fatalf("Remember() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 records written, got %d", n)
	}

	n, err = mgr.Remember(ctx, []Insight{{Kind: NamespaceFacts, Text: "travelling to kyoto in april."}})
	if err != nil {
		t.Fatalf("second Remember() error = %v", err)
	}
	if n != 0 {
		t.Fatalf("duplicate insight stored again")
	}

	prefs := store.records[NamespacePath("sarah", NamespacePreferences)]
	if len(prefs) != 1 || prefs[0].MemoryID != "mem-1" || prefs[0].CreatedAt.IsZero() {
		t.Fatalf("unexpected preference records: %+v", prefs)
	}
}

func TestRememberedPreferenceReachesLaterSession(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	first, err := NewSessionManager(NewConfig("mem-1", contractx.Identity{ActorID: "sarah", SessionID: "s1"}), store)
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}
	if _, err := first.Remember(context.Background(), []Insight{{
		Kind: NamespacePreferences,
		Text: "Sarah is vegetarian and loves art museums and temples in Japan",
	}}); err != nil {
		t.Fatalf("Remember() error = %v", err)
	}

	second, err := NewSessionManager(NewConfig("mem-1", contractx.Identity{ActorID: "sarah", SessionID: "s2"}), store)
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}

	for _, query := range []string{
		"What do you remember about my travel plans and preferences? Can you suggest some restaurants in Japan for me?",
		"Any vegetarian spots near art museums or temples in Japan?",
	} {
		matches := second.Retrieve(context.Background(), query)
		if len(matches) != 1 || !strings.Contains(matches[0].Text, "vegetarian") {
			t.Fatalf("Retrieve(%q) = %+v", query, matches)
		}
	}

	if got := second.Retrieve(context.Background(), "How cold is Helsinki in January?"); len(got) != 0 {
		t.Fatalf("unrelated query matched: %+v", got)
	}
}
