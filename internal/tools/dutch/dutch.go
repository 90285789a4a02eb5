// Package dutch provides the vocabulary tools of the Dutch tutor.
package dutch

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"math"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"voxrouter/internal/store"
	"voxrouter/internal/tools"
)

var Levels = []string{"A1", "A2", "B1", "B2", "C1", "C2"}

const fuzzyLimit = 3

type Store interface {
	SearchWords(ctx context.Context, query string, limit int) ([]store.Word, error)
	Words(ctx context.Context) ([]store.Word, error)
	AddWord(ctx context.Context, w store.Word) (int64, error)
	ReviewWords(ctx context.Context, count int) ([]store.Word, error)
	RecordReview(ctx context.Context, id int64, score float64, at time.Time) error
	PracticeDays(ctx context.Context, since time.Time) ([]string, error)
}

// streakWindow bounds how far back a streak is counted.
const streakWindow = 366

var streakMilestones = []int{7, 30, 100, 365}

type Tutor struct {
	store Store
	now   func() time.Time
}

func New(st Store) *Tutor {
	return &Tutor{store: st, now: time.Now}
}

func (t *Tutor) Tools() []tools.Tool {
	return []tools.Tool{
		tools.New("dutch_vocabulary_search", "Search Dutch vocabulary with translations and examples",
			tools.Object(map[string]tools.Property{
				"query":    {Type: "string"},
				"category": {Type: "string"},
				"level":    {Type: "string", Enum: Levels},
			}, "query"),
			t.search),
		tools.New("dutch_vocabulary_add", "Add a new word to personal vocabulary list",
			tools.Object(map[string]tools.Property{
				"dutch_word":          {Type: "string"},
				"english_translation": {Type: "string"},
				"article":             {Type: "string", Enum: []string{"de", "het"}},
				"category":            {Type: "string"},
				"level":               {Type: "string", Enum: Levels},
				"example_sentence":    {Type: "string"},
				"pronunciation":       {Type: "string"},
			}, "dutch_word", "english_translation"),
			t.add),
		tools.New("dutch_vocabulary_review", "Get vocabulary words for review (spaced repetition)",
			tools.Object(map[string]tools.Property{
				"count": {Type: "integer", Default: 10, Minimum: tools.Bound(1)},
			}),
			t.review),
		tools.New("dutch_vocabulary_score", "Record how well a word was recalled during practice",
			tools.Object(map[string]tools.Property{
				"word_id": {Type: "integer"},
				"score":   {Type: "number", Minimum: tools.Bound(0), Maximum: tools.Bound(1)},
			}, "word_id", "score"),
			t.score),
		tools.New("dutch_progress_stats", "Summarise vocabulary size and mastery",
			tools.Object(nil),
			t.progress),
		tools.New("dutch_streak_info", "Get current learning streak information",
			tools.Object(nil),
			t.streak),
		tools.New("dutch_grammar_explain", "Explain Dutch grammar rules",
			tools.Object(map[string]tools.Property{
				"topic": {Type: "string"},
				"level": {Type: "string", Enum: Levels},
			}, "topic"),
			t.explainGrammar),
	}
}

func wordResult(w store.Word) tools.Result {
	return tools.Result{
		"id":            w.ID,
		"dutch":         w.Dutch,
		"english":       w.English,
		"article":       w.Article,
		"category":      w.Category,
		"level":         w.Level,
		"pronunciation": w.Pronunciation,
		"example":       w.Example,
		"mastery":       w.Mastery,
	}
}

// cleanQuery drops the filler a spoken request leaves around the word.
func cleanQuery(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	q = strings.Trim(q, ".?!\"'")
	for _, prefix := range []string{"the word ", "the phrase ", "the ", "a ", "an "} {
		q = strings.TrimPrefix(q, prefix)
	}
	return strings.TrimSpace(q)
}

type wordSource []store.Word

func (s wordSource) String(i int) string {
	return strings.ToLower(s[i].English + " " + s[i].Dutch)
}

func (s wordSource) Len() int {
	return len(s)
}

func (t *Tutor) search(ctx context.Context, params map[string]any) (tools.Result, error) {
	query := cleanQuery(tools.ParamString(params, "query"))
	if query == "" {
		return tools.Result{"success": false, "results": []tools.Result{}, "error": "query is required"}, nil
	}

	words, err := t.store.SearchWords(ctx, query, 20)
	if err != nil {
		return nil, err
	}

	approximate := false
	if len(words) == 0 {
		all, err := t.store.Words(ctx)
		if err != nil {
			return nil, err
		}
		for i, m := range fuzzy.FindFrom(query, wordSource(all)) {
			if i == fuzzyLimit {
				break
			}
			words = append(words, all[m.Index])
		}
		approximate = len(words) > 0
	}

	category := tools.ParamString(params, "category")
	level := tools.ParamString(params, "level")

	results := []tools.Result{}
	for _, w := range words {
		if (category != "" && w.Category != category) || (level != "" && w.Level != level) {
			continue
		}
		results = append(results, wordResult(w))
	}

	log.Debug("Vocabulary search", "query", query, "results", len(results), "approximate", approximate)
	return tools.Result{"success": true, "query": query, "results": results, "approximate": approximate}, nil
}

func (t *Tutor) add(ctx context.Context, params map[string]any) (tools.Result, error) {
	w := store.Word{
		Dutch:         strings.ToLower(tools.ParamString(params, "dutch_word")),
		English:       strings.ToLower(tools.ParamString(params, "english_translation")),
		Article:       tools.ParamString(params, "article"),
		Category:      tools.ParamString(params, "category"),
		Level:         tools.ParamString(params, "level"),
		Pronunciation: tools.ParamString(params, "pronunciation"),
		Example:       tools.ParamString(params, "example_sentence"),
	}
	if w.Dutch == "" || w.English == "" {
		return tools.Result{"success": false, "error": "dutch_word and english_translation are required"}, nil
	}

	existing, err := t.store.SearchWords(ctx, w.Dutch, 20)
	if err != nil {
		return nil, err
	}
	for _, e := range existing {
		if e.Dutch == w.Dutch && e.English == w.English {
			return tools.Result{
				"success": false,
				"word_id": e.ID,
				"message": fmt.Sprintf("'%s' is already in your vocabulary", w.Dutch),
			}, nil
		}
	}

	id, err := t.store.AddWord(ctx, w)
	if err != nil {
		return nil, err
	}
	return tools.Result{
		"success": true,
		"word_id": id,
		"message": fmt.Sprintf("Added '%s' to vocabulary", w.Dutch),
	}, nil
}

func (t *Tutor) review(ctx context.Context, params map[string]any) (tools.Result, error) {
	words, err := t.store.ReviewWords(ctx, tools.ParamInt(params, "count", 10))
	if err != nil {
		return nil, err
	}

	out := make([]tools.Result, 0, len(words))
	for _, w := range words {
		r := wordResult(w)
		r["current_mastery"] = w.Mastery
		out = append(out, r)
	}
	return tools.Result{"success": true, "words": out, "total_due": len(out)}, nil
}

func (t *Tutor) score(ctx context.Context, params map[string]any) (tools.Result, error) {
	id, ok := tools.ParamNumber(params, "word_id")
	if !ok {
		return tools.Result{"success": false, "error": "word_id is required"}, nil
	}
	score, ok := tools.ParamNumber(params, "score")
	if !ok || score < 0 || score > 1 {
		return tools.Result{"success": false, "error": "score must be between 0 and 1"}, nil
	}

	err := t.store.RecordReview(ctx, int64(id), score, t.now())
	if errors.Is(err, store.ErrNotFound) {
		return tools.Result{"success": false, "error": fmt.Sprintf("No word with id %d", int64(id))}, nil
	}
	if err != nil {
		return nil, err
	}
	return tools.Result{"success": true, "word_id": int64(id), "message": "Practice recorded."}, nil
}

func (t *Tutor) progress(ctx context.Context, params map[string]any) (tools.Result, error) {
	words, err := t.store.Words(ctx)
	if err != nil {
		return nil, err
	}

	var sum float64
	mastered, reviewed := 0, 0
	for _, w := range words {
		sum += w.Mastery
		if w.Mastery >= store.MasteredScore {
			mastered++
		}
		if w.ReviewCount > 0 {
			reviewed++
		}
	}
	avg := 0.0
	if len(words) > 0 {
		avg = math.Round(sum/float64(len(words))*1000) / 10
	}

	return tools.Result{
		"success": true,
		"stats": tools.Result{
			"total_vocabulary": len(words),
			"words_reviewed":   reviewed,
			"words_mastered":   mastered,
			"average_mastery":  avg,
		},
		"message": fmt.Sprintf("You know %d words and have mastered %d of them.", len(words), mastered),
	}, nil
}

// streak counts consecutive practised days ending today. A streak that
// ended yesterday is still current until today is over.
func (t *Tutor) streak(ctx context.Context, params map[string]any) (tools.Result, error) {
	now := t.now()
	days, err := t.store.PracticeDays(ctx, now.AddDate(0, 0, -streakWindow))
	if err != nil {
		return nil, err
	}

	practised := make(map[string]bool, len(days))
	for _, d := range days {
		practised[d] = true
	}

	today := practised[now.Format(store.DayLayout)]
	day := now
	if !today {
		day = now.AddDate(0, 0, -1)
	}
	current := 0
	for practised[day.Format(store.DayLayout)] {
		current++
		day = day.AddDate(0, 0, -1)
	}

	next := streakMilestones[len(streakMilestones)-1]
	for _, m := range streakMilestones {
		if current < m {
			next = m
			break
		}
	}

	msg := "Start your streak today!"
	if current > 0 {
		msg = fmt.Sprintf("You've been learning for %d days in a row!", current)
	}
	if current == 1 {
		msg = "You've started a streak. Come back tomorrow!"
	}

	return tools.Result{
		"success":         true,
		"current_streak":  current,
		"practiced_today": today,
		"next_milestone":  next,
		"message":         msg,
	}, nil
}
