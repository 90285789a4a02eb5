package dutch

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxrouter/internal/store"
	"voxrouter/internal/tools"
)

func newRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "dutch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	reg := tools.NewRegistry()
	require.NoError(t, reg.RegisterAll(New(db).Tools()...))
	return reg
}

func TestCleanQuery(t *testing.T) {
	assert.Equal(t, "bicycle", cleanQuery(" The Bicycle? "))
	assert.Equal(t, "good morning", cleanQuery("the word good morning"))
	assert.Equal(t, "", cleanQuery("  "))
}

func TestSearch(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()

	res, err := reg.Dispatch(ctx, "dutch_vocabulary_search", map[string]any{"query": "hello"})
	require.NoError(t, err)
	results := res.List("results")
	require.NotEmpty(t, results)
	assert.Equal(t, "hallo", results[0].String("dutch"))
	assert.False(t, res.Bool("approximate"))

	res, err = reg.Dispatch(ctx, "dutch_vocabulary_search", map[string]any{"query": "the bicycle"})
	require.NoError(t, err)
	results = res.List("results")
	require.NotEmpty(t, results)
	assert.Equal(t, "fiets", results[0].String("dutch"))
	assert.Equal(t, "de", results[0].String("article"))

	res, err = reg.Dispatch(ctx, "dutch_vocabulary_search", map[string]any{"query": "helo"})
	require.NoError(t, err)
	results = res.List("results")
	require.NotEmpty(t, results)
	assert.Equal(t, "hallo", results[0].String("dutch"))
	assert.True(t, res.Bool("approximate"))

	res, err = reg.Dispatch(ctx, "dutch_vocabulary_search", map[string]any{"query": "hello", "level": "C2"})
	require.NoError(t, err)
	assert.Empty(t, res.List("results"))

	res, err = reg.Dispatch(ctx, "dutch_vocabulary_search", map[string]any{})
	require.NoError(t, err)
	assert.False(t, res.Bool("success"))
}

func TestAdd(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()

	res, err := reg.Dispatch(ctx, "dutch_vocabulary_add", map[string]any{
		"dutch_word":          "Gezellig",
		"english_translation": "cozy",
		"category":            "feelings",
	})
	require.NoError(t, err)
	assert.True(t, res.Bool("success"))
	assert.Equal(t, "Added 'gezellig' to vocabulary", res.String("message"))

	res, err = reg.Dispatch(ctx, "dutch_vocabulary_add", map[string]any{"dutch_word": "gezellig", "english_translation": "cozy"})
	require.NoError(t, err)
	assert.False(t, res.Bool("success"))

	res, err = reg.Dispatch(ctx, "dutch_vocabulary_add", map[string]any{"dutch_word": "gezellig"})
	require.NoError(t, err)
	assert.False(t, res.Bool("success"))
	assert.NotEmpty(t, res.String("error"))

	res, err = reg.Dispatch(ctx, "dutch_vocabulary_search", map[string]any{"query": "cozy"})
	require.NoError(t, err)
	require.Len(t, res.List("results"), 1)
	assert.Equal(t, "feelings", res.List("results")[0].String("category"))
}

func TestReview(t *testing.T) {
	reg := newRegistry(t)

	res, err := reg.Dispatch(context.Background(), "dutch_vocabulary_review", map[string]any{"count": 5})
	require.NoError(t, err)
	assert.True(t, res.Bool("success"))
	words := res.List("words")
	assert.Len(t, words, 5)
	for _, w := range words {
		assert.NotEmpty(t, w.String("dutch"))
		assert.NotEmpty(t, w.String("english"))
	}

	res, err = reg.Dispatch(context.Background(), "dutch_vocabulary_review", nil)
	require.NoError(t, err)
	assert.Len(t, res.List("words"), 10)
}

func TestScoreAndProgress(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()

	res, err := reg.Dispatch(ctx, "dutch_progress_stats", nil)
	require.NoError(t, err)
	stats := res.Object("stats")
	total := stats.Number("total_vocabulary")
	assert.Positive(t, total)
	assert.Zero(t, stats.Number("words_reviewed"))

	res, err = reg.Dispatch(ctx, "dutch_vocabulary_search", map[string]any{"query": "bicycle"})
	require.NoError(t, err)
	id := res.List("results")[0].Number("id")

	for range 6 {
		res, err = reg.Dispatch(ctx, "dutch_vocabulary_score", map[string]any{"word_id": id, "score": 1.0})
		require.NoError(t, err)
		require.True(t, res.Bool("success"))
	}

	res, err = reg.Dispatch(ctx, "dutch_progress_stats", nil)
	require.NoError(t, err)
	stats = res.Object("stats")
	assert.Equal(t, total, stats.Number("total_vocabulary"))
	assert.Equal(t, 1.0, stats.Number("words_reviewed"))
	assert.Equal(t, 1.0, stats.Number("words_mastered"))
	assert.Positive(t, stats.Number("average_mastery"))
}

func TestScore_BadInput(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()

	res, err := reg.Dispatch(ctx, "dutch_vocabulary_score", map[string]any{"word_id": 99999, "score": 0.5})
	require.NoError(t, err)
	assert.False(t, res.Bool("success"))
	assert.Equal(t, "No word with id 99999", res.String("error"))

	res, err = reg.Dispatch(ctx, "dutch_vocabulary_score", map[string]any{"word_id": 1, "score": 3})
	require.NoError(t, err)
	assert.False(t, res.Bool("success"))
}

func TestStreak(t *testing.T) {
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "dutch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()

	now := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	tutor := New(db)
	tutor.now = func() time.Time { return now }
	reg := tools.NewRegistry()
	require.NoError(t, reg.RegisterAll(tutor.Tools()...))

	res, err := reg.Dispatch(ctx, "dutch_streak_info", nil)
	require.NoError(t, err)
	assert.Zero(t, res.Number("current_streak"))
	assert.Equal(t, "Start your streak today!", res.String("message"))
	assert.Equal(t, 7.0, res.Number("next_milestone"))

	id, err := db.AddWord(ctx, store.Word{Dutch: "zon", English: "sun"})
	require.NoError(t, err)
	for _, d := range []int{5, 7, 8, 9} {
		require.NoError(t, db.RecordReview(ctx, id, 1, time.Date(2026, 3, d, 9, 0, 0, 0, time.UTC)))
	}

	res, err = reg.Dispatch(ctx, "dutch_streak_info", nil)
	require.NoError(t, err)
	assert.Equal(t, 3.0, res.Number("current_streak"))
	assert.False(t, res.Bool("practiced_today"))

	res, err = reg.Dispatch(ctx, "dutch_vocabulary_score", map[string]any{"word_id": id, "score": 0.5})
	require.NoError(t, err)
	require.True(t, res.Bool("success"))

	res, err = reg.Dispatch(ctx, "dutch_streak_info", nil)
	require.NoError(t, err)
	assert.Equal(t, 4.0, res.Number("current_streak"))
	assert.True(t, res.Bool("practiced_today"))
	assert.Equal(t, "You've been learning for 4 days in a row!", res.String("message"))

	now = now.AddDate(0, 0, 2)
	res, err = reg.Dispatch(ctx, "dutch_streak_info", nil)
	require.NoError(t, err)
	assert.Zero(t, res.Number("current_streak"))
}

func TestExplainGrammar(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()

	res, err := reg.Dispatch(ctx, "dutch_grammar_explain", map[string]any{"topic": "Articles"})
	require.NoError(t, err)
	assert.True(t, res.Bool("success"))
	assert.Equal(t, "articles", res.String("topic"))
	assert.Contains(t, res.String("explanation"), "'het'")
	assert.NotEmpty(t, res["rules"])

	res, err = reg.Dispatch(ctx, "dutch_grammar_explain", map[string]any{"topic": "subjunctive"})
	require.NoError(t, err)
	assert.False(t, res.Bool("success"))
	assert.Equal(t, []string{"articles", "diminutives", "verb conjugation", "word order"}, res["topics"])

	res, err = reg.Dispatch(ctx, "dutch_grammar_explain", map[string]any{})
	require.NoError(t, err)
	assert.False(t, res.Bool("success"))
}
