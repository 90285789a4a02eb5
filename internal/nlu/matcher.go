package nlu

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"voxrouter/internal/intent"
)

// PatternConfidence is the fixed score a structural match produces.
const PatternConfidence = 0.8

// Entities holds extracted values keyed group_N (capture index) or by
// capture name when the pattern names its groups.
type Entities map[string]any

// String returns the entity as text, formatting numbers the way they were spoken.
func (e Entities) String(key string) (string, bool) {
	v, ok := e[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, t != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	default:
		return fmt.Sprint(t), true
	}
}

// Number returns the entity as a float when it is numeric or a numeric string.
func (e Entities) Number(key string) (float64, bool) {
	switch t := e[key].(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}

type pattern struct {
	source string
	re     *regexp.Regexp
}

type intentPatterns struct {
	intent   intent.Intent
	patterns []pattern
}

// Matcher is the deterministic first classification stage. Intents are kept
// in an ordered slice, so on equal confidence the first intent and pattern
// registered wins.
type Matcher struct {
	mu    sync.RWMutex
	table []intentPatterns
}

func NewMatcher() *Matcher {
	m := &Matcher{}
	for _, i := range intent.All {
		m.table = append(m.table, intentPatterns{intent: i})
	}
	return m
}

// NewDefaultMatcher returns a matcher preloaded with the built-in table.
func NewDefaultMatcher() *Matcher {
	m := NewMatcher()
	for _, group := range defaultPatterns {
		for _, p := range group.patterns {
			if err := m.Add(group.intent, p); err != nil {
				panic(fmt.Sprintf("builtin pattern %q: %v", p, err))
			}
		}
	}
	return m
}

// compile makes a pattern case-insensitive. Patterns are searched for, not
// anchored, so a keyword anywhere in the utterance is enough.
func compile(p string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?i)` + p)
}

// Add appends a pattern to the end of the intent's list.
func (m *Matcher) Add(i intent.Intent, p string) error {
	if !i.IsValid() {
		return fmt.Errorf("unknown intent %q", i)
	}

	re, err := compile(p)
	if err != nil {
		return fmt.Errorf("compile pattern: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for idx := range m.table {
		if m.table[idx].intent == i {
			m.table[idx].patterns = append(m.table[idx].patterns, pattern{source: p, re: re})
			return nil
		}
	}
	m.table = append(m.table, intentPatterns{intent: i, patterns: []pattern{{source: p, re: re}}})
	return nil
}

// Patterns returns the pattern sources registered for an intent.
func (m *Matcher) Patterns(i intent.Intent) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, group := range m.table {
		if group.intent == i {
			out := make([]string, 0, len(group.patterns))
			for _, p := range group.patterns {
				out = append(out, p.source)
			}
			return out
		}
	}
	return nil
}

// Match classifies already normalised text. No match yields (Unknown, {}, 0).
func (m *Matcher) Match(text string) (intent.Intent, Entities, float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	best := intent.Unknown
	bestEntities := Entities{}
	bestConfidence := 0.0

	for _, group := range m.table {
		for _, p := range group.patterns {
			groups := p.re.FindStringSubmatch(text)
			if groups == nil {
				continue
			}

			confidence := PatternConfidence
			if confidence <= bestConfidence {
				continue
			}

			best = group.intent
			bestConfidence = confidence
			bestEntities = extract(p.re, groups)
		}
	}

	return best, bestEntities, bestConfidence
}

func extract(re *regexp.Regexp, groups []string) Entities {
	names := re.SubexpNames()
	out := Entities{}
	for idx, g := range groups[1:] {
		if g == "" {
			continue
		}
		out[fmt.Sprintf("group_%d", idx)] = g
		if name := names[idx+1]; name != "" {
			out[name] = g
		}
	}
	return out
}
