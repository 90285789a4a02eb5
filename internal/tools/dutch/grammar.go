package dutch

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"voxrouter/internal/tools"
)

type grammarTopic struct {
	Explanation string
	Examples    []string
	Rules       []string
}

var grammar = map[string]grammarTopic{
	"word order": {
		Explanation: "Main clauses put the verb second; subordinate clauses push it to the end.",
		Examples: []string{
			"Ik eet een appel (I eat an apple)",
			"Morgen eet ik een appel (Tomorrow I eat an apple)",
			"omdat ik een appel eet (because I eat an apple)",
		},
		Rules: []string{
			"Main clause: the conjugated verb is the second element",
			"After 'omdat', 'dat', 'als': the verb goes to the end",
			"Yes/no questions start with the verb",
		},
	},
	"articles": {
		Explanation: "Dutch has two definite articles: 'de' for common gender and 'het' for neuter.",
		Examples: []string{
			"de man (the man)",
			"het huis (the house)",
			"de huizen (the houses)",
		},
		Rules: []string{
			"About two thirds of nouns take 'de'",
			"Plurals always take 'de'",
			"Diminutives always take 'het'",
		},
	},
	"verb conjugation": {
		Explanation: "Present tense verbs take their ending from the person.",
		Examples: []string{
			"ik loop (I walk)",
			"jij loopt (you walk)",
			"wij lopen (we walk)",
		},
		Rules: []string{
			"Drop -en from the infinitive to get the stem",
			"ik: stem only",
			"jij, hij, zij: stem plus -t; plural: the infinitive",
		},
	},
	"diminutives": {
		Explanation: "Adding -je (or -tje, -pje, -etje) makes a noun small or familiar.",
		Examples: []string{
			"het huisje (the little house)",
			"het biertje (the beer)",
		},
		Rules: []string{
			"Diminutives are always 'het' words",
			"Most nouns take -je; nouns ending in a vowel usually take -tje",
		},
	},
}

func grammarTopics() []string {
	out := make([]string, 0, len(grammar))
	for k := range grammar {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (t *Tutor) explainGrammar(ctx context.Context, params map[string]any) (tools.Result, error) {
	topic := strings.ToLower(strings.TrimSpace(tools.ParamString(params, "topic")))

	g, ok := grammar[topic]
	if !ok {
		return tools.Result{
			"success": false,
			"topic":   topic,
			"topics":  grammarTopics(),
			"error":   fmt.Sprintf("No explanation for '%s' yet", topic),
		}, nil
	}

	return tools.Result{
		"success":     true,
		"topic":       topic,
		"explanation": g.Explanation,
		"examples":    g.Examples,
		"rules":       g.Rules,
		"message":     g.Explanation,
	}, nil
}
