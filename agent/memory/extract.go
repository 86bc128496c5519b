package memory

import (
	"context"
	"fmt"
	"strings"
)

// Insight is one long-term fact or preference drawn from a conversation turn.
// Kind is NamespaceFacts or NamespacePreferences.
type Insight struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// Extractor distils long-term insights from one finished turn.
type Extractor interface {
	Extract(ctx context.Context, userText, reply string) ([]Insight, error)
}

// Remember stores insights as records under the actor's namespaces. Insights
// of an unknown kind, empty insights and text already stored in the namespace
// are skipped. It returns how many records were written.
func (m *SessionManager) Remember(ctx context.Context, insights []Insight) (int, error) {
	seen := map[string]map[string]struct{}{}
	written := 0

	for _, in := range insights {
		kind := strings.ToLower(strings.TrimSpace(in.Kind))
		if kind != NamespaceFacts && kind != NamespacePreferences {
			continue
		}
		text := strings.TrimSpace(in.Text)
		if text == "" {
			continue
		}

		ns := NamespacePath(m.cfg.ActorID, kind)
		known, ok := seen[ns]
		if !ok {
			records, err := m.store.ListRecords(ctx, m.cfg.MemoryID, ns)
			if err != nil {
				return written, fmt.Errorf("list records namespace=%s: %w", ns, err)
			}
			known = make(map[string]struct{}, len(records))
			for _, rec := range records {
				known[normalizeText(rec.Text)] = struct{}{}
			}
			seen[ns] = known
		}

		key := normalizeText(text)
		if _, dup := known[key]; dup {
			continue
		}
		if _, err := m.store.PutRecord(ctx, Record{
			MemoryID:  m.cfg.MemoryID,
			Namespace: ns,
			Text:      text,
			CreatedAt: m.now(),
		}); err != nil {
			return written, fmt.Errorf("put record namespace=%s: %w", ns, err)
		}
		known[key] = struct{}{}
		written++
	}
	return written, nil
}

func normalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimRight(strings.TrimSpace(text), "."))), " ")
}
