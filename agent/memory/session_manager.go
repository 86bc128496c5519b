package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"
)

// Match is a record that passed a namespace's retrieval bounds.
type Match struct {
	Namespace string
	Text      string
	Score     float64
}

// SessionManager binds one agent to a memory scope: it appends the turns of
// the conversation and retrieves relevant long-term records for a query.
type SessionManager struct {
	cfg   Config
	store Store
	now   func() time.Time
}

func NewSessionManager(cfg Config, store Store) (*SessionManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("memory store is nil")
	}
	return &SessionManager{
		cfg:   cfg,
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

func (m *SessionManager) Config() Config { return m.cfg }

// Append stores one turn of the conversation.
func (m *SessionManager) Append(ctx context.Context, role, text string) error {
	return m.store.CreateEvent(ctx, Event{
		MemoryID:  m.cfg.MemoryID,
		ActorID:   m.cfg.ActorID,
		SessionID: m.cfg.SessionID,
		Role:      role,
		Text:      text,
		CreatedAt: m.now(),
	})
}

// History returns up to limit of the latest turns, oldest first.
func (m *SessionManager) History(ctx context.Context, limit int) ([]Event, error) {
	return m.store.ListEvents(ctx, m.cfg.MemoryID, m.cfg.ActorID, m.cfg.SessionID, limit)
}

// Retrieve scores every record of each configured namespace against query and
// keeps at most TopK per namespace with a score of at least RelevanceScore.
// A query that asks what the agent remembers lifts every record to the
// namespace threshold. A namespace that fails to load is logged and skipped.
func (m *SessionManager) Retrieve(ctx context.Context, query string) []Match {
	namespaces := make([]string, 0, len(m.cfg.Retrieval))
	for ns := range m.cfg.Retrieval {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	queryTokens := tokenize(query)
	recall := asksRecall(queryTokens)

	var out []Match
	for _, ns := range namespaces {
		rc := m.cfg.Retrieval[ns]

		records, err := m.store.ListRecords(ctx, m.cfg.MemoryID, ns)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("namespace", ns).Msg("memory retrieval failed")
			continue
		}

		type scored struct {
			Match
			createdAt time.Time
		}
		matches := make([]scored, 0, len(records))
		for _, rec := range records {
			score := Score(queryTokens, tokenize(rec.Text))
			if recall && score < rc.RelevanceScore {
				score = rc.RelevanceScore
			}
			if score <= 0 || score < rc.RelevanceScore {
				continue
			}
			matches = append(matches, scored{
				Match:     Match{Namespace: ns, Text: rec.Text, Score: score},
				createdAt: rec.CreatedAt,
			})
		}

		sort.SliceStable(matches, func(i, j int) bool {
			if matches[i].Score != matches[j].Score {
				return matches[i].Score > matches[j].Score
			}
			return matches[i].createdAt.After(matches[j].createdAt)
		})
		if rc.TopK > 0 && len(matches) > rc.TopK {
			matches = matches[:rc.TopK]
		}
		for _, sm := range matches {
			out = append(out, sm.Match)
		}
	}
	return out
}

// FormatContext renders matches as a block for the system prompt.
func FormatContext(matches []Match) string {
	if len(matches) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Relevant memories about this traveller:\n")
	for _, m := range matches {
		fmt.Fprintf(&sb, "- [%s] %s\n", m.Namespace, m.Text)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Score is the share of shared tokens over the smaller of the two token sets,
// so a short record is not penalised by a long question and a long record is
// not penalised by a short one.
func Score(query, record map[string]struct{}) float64 {
	if len(query) == 0 || len(record) == 0 {
		return 0
	}
	hits := 0
	for tok := range query {
		if _, ok := record[tok]; ok {
			hits++
		}
	}
	return float64(hits) / float64(min(len(query), len(record)))
}

var stopwords = map[string]struct{}{
	"about": {}, "and": {}, "are": {}, "but": {}, "can": {}, "could": {},
	"does": {}, "for": {}, "from": {}, "has": {}, "have": {}, "her": {},
	"him": {}, "his": {}, "how": {}, "into": {}, "its": {}, "not": {},
	"our": {}, "please": {}, "she": {}, "should": {}, "some": {}, "than": {},
	"that": {}, "the": {}, "their": {}, "them": {}, "then": {}, "there": {},
	"these": {}, "they": {}, "this": {}, "was": {}, "were": {}, "what": {},
	"when": {}, "where": {}, "which": {}, "who": {}, "will": {}, "with": {},
	"would": {}, "you": {}, "your": {},
}

var recallCues = []string{"remember", "remembered", "recall", "remind", "memory", "preference"}

func asksRecall(query map[string]struct{}) bool {
	for _, cue := range recallCues {
		if _, ok := query[cue]; ok {
			return true
		}
	}
	return false
}

func tokenize(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 3 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		out[stem(f)] = struct{}{}
	}
	return out
}

// stem folds plain English plurals: cities -> city, museums -> museum.
func stem(word string) string {
	n := len([]rune(word))
	switch {
	case n > 4 && strings.HasSuffix(word, "ies"):
		return strings.TrimSuffix(word, "ies") + "y"
	case n > 3 && strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss"):
		return strings.TrimSuffix(word, "s")
	}
	return word
}
