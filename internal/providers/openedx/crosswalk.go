package openedx

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// TopicMap translates source catalog subjects into canonical topic names.
// One subject may fan out into several topics.
type TopicMap struct {
	entries map[string][]string
}

// LoadTopicMap reads a two-column CSV (source subject, canonical topic) with a
// header row. Repeated source subjects accumulate.
func LoadTopicMap(r io.Reader) (*TopicMap, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading topic crosswalk: %w", err)
	}
	tm := &TopicMap{entries: map[string][]string{}}
	for i, record := range records {
		if i == 0 {
			continue
		}
		source := normalizeSubject(record[0])
		target := strings.TrimSpace(record[1])
		if source == "" || target == "" {
			continue
		}
		tm.entries[source] = append(tm.entries[source], target)
	}
	return tm, nil
}

// Lookup returns the canonical topics for a subject. Unknown subjects map to
// nothing rather than passing through, so the crosswalk stays authoritative.
func (tm *TopicMap) Lookup(subject string) []string {
	if tm == nil {
		return nil
	}
	return tm.entries[normalizeSubject(subject)]
}

func normalizeSubject(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
