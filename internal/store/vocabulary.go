package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// MasteredScore is the mastery at which a word leaves the review queue.
const MasteredScore = 0.8

type Word struct {
	ID            int64      `json:"id" yaml:"-"`
	Dutch         string     `json:"dutch" yaml:"dutch"`
	English       string     `json:"english" yaml:"english"`
	Article       string     `json:"article,omitempty" yaml:"article"`
	Category      string     `json:"category" yaml:"category"`
	Level         string     `json:"level" yaml:"level"`
	Pronunciation string     `json:"pronunciation" yaml:"pronunciation"`
	Example       string     `json:"example" yaml:"example"`
	Mastery       float64    `json:"mastery" yaml:"-"`
	ReviewCount   int        `json:"review_count" yaml:"-"`
	LastReviewed  *time.Time `json:"last_reviewed,omitempty" yaml:"-"`
}

//go:embed seed_vocabulary.yaml
var seedVocabulary []byte

const wordColumns = `id, dutch_word, english_translation, article, category, level,
	pronunciation, example_sentence, mastery_score, review_count, last_reviewed`

func scanWord(row interface{ Scan(...any) error }) (Word, error) {
	var (
		w        Word
		reviewed sql.NullInt64
	)
	err := row.Scan(&w.ID, &w.Dutch, &w.English, &w.Article, &w.Category, &w.Level,
		&w.Pronunciation, &w.Example, &w.Mastery, &w.ReviewCount, &reviewed)
	if err != nil {
		return Word{}, err
	}
	if reviewed.Valid {
		t := time.Unix(reviewed.Int64, 0).UTC()
		w.LastReviewed = &t
	}
	return w, nil
}

func (s *DB) queryWords(ctx context.Context, query string, args ...any) ([]Word, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var words []Word
	for rows.Next() {
		w, err := scanWord(rows)
		if err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

// SearchWords matches query as a substring of either side of the pair.
func (s *DB) SearchWords(ctx context.Context, query string, limit int) ([]Word, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	words, err := s.queryWords(ctx,
		`SELECT `+wordColumns+` FROM vocabulary
		WHERE dutch_word LIKE ? OR english_translation LIKE ?
		ORDER BY LENGTH(english_translation), id
		LIMIT ?`, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("search vocabulary: %w", err)
	}
	return words, nil
}

func (s *DB) Words(ctx context.Context) ([]Word, error) {
	words, err := s.queryWords(ctx, `SELECT `+wordColumns+` FROM vocabulary ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list vocabulary: %w", err)
	}
	return words, nil
}

func (s *DB) AddWord(ctx context.Context, w Word) (int64, error) {
	if w.Category == "" {
		w.Category = "general"
	}
	if w.Level == "" {
		w.Level = "A1"
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO vocabulary
		(dutch_word, english_translation, article, category, level, pronunciation, example_sentence, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		w.Dutch, w.English, w.Article, w.Category, w.Level, w.Pronunciation, w.Example, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("add word %q: %w", w.Dutch, err)
	}
	return res.LastInsertId()
}

// ReviewWords returns unmastered words, never-reviewed first, then the
// longest unreviewed, then the weakest.
func (s *DB) ReviewWords(ctx context.Context, count int) ([]Word, error) {
	if count <= 0 {
		count = 10
	}
	words, err := s.queryWords(ctx,
		`SELECT `+wordColumns+` FROM vocabulary
		WHERE mastery_score < ?
		ORDER BY
			CASE WHEN last_reviewed IS NULL THEN 0 ELSE 1 END,
			last_reviewed ASC,
			mastery_score ASC
		LIMIT ?`, MasteredScore, count)
	if err != nil {
		return nil, fmt.Errorf("review vocabulary: %w", err)
	}
	return words, nil
}

// DayLayout is the calendar-day key of practice_days, in the caller's zone.
const DayLayout = "2006-01-02"

// RecordReview stores a practice score in [0,1], moves mastery toward it and
// marks the day of at as practised.
func (s *DB) RecordReview(ctx context.Context, id int64, score float64, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE vocabulary SET
			mastery_score = mastery_score * 0.7 + ? * 0.3,
			review_count = review_count + 1,
			last_reviewed = ?
		WHERE id = ?`, score, at.Unix(), id)
	if err != nil {
		return fmt.Errorf("record review: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("word %d: %w", id, ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO practice_days (day) VALUES (?)`, at.Format(DayLayout)); err != nil {
		return fmt.Errorf("record practice day: %w", err)
	}
	return tx.Commit()
}

// PracticeDays returns the practised days on or after since, newest first.
func (s *DB) PracticeDays(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT day FROM practice_days WHERE day >= ? ORDER BY day DESC`, since.Format(DayLayout))
	if err != nil {
		return nil, fmt.Errorf("practice days: %w", err)
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

func (s *DB) seedVocabulary(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vocabulary`).Scan(&count); err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	var seed struct {
		Vocabulary []Word `yaml:"vocabulary"`
	}
	if err := yaml.Unmarshal(seedVocabulary, &seed); err != nil {
		return 0, fmt.Errorf("decode seed: %w", err)
	}

	for _, w := range seed.Vocabulary {
		if _, err := s.AddWord(ctx, w); err != nil {
			return 0, err
		}
	}
	return len(seed.Vocabulary), nil
}
