package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/conorfennell/studylog/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB represents a wrapper around the SQL database connection. Plans
// are stored relationally but always written and read as a whole
// aggregate: SavePlan is an idempotent upsert keyed by plan id.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// GetPlans loads every stored plan with all of its children. Plans
// are normalized on the way out so records written before newer
// fields existed come back with empty collections instead of nils.
func (db *DB) GetPlans(ctx context.Context) ([]domain.Plan, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, created_at FROM plans ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	var plans []domain.Plan
	for rows.Next() {
		var p domain.Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan plan row: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plans: %w", err)
	}

	for i := range plans {
		if err := db.loadPlanChildren(ctx, &plans[i]); err != nil {
			return nil, err
		}
		plans[i].Normalize(plans[i].CreatedAt)
	}
	return plans, nil
}

func (db *DB) loadPlanChildren(ctx context.Context, plan *domain.Plan) error {
	subjRows, err := db.conn.QueryContext(ctx, `
		SELECT id, name FROM subjects WHERE plan_id = ? ORDER BY rowid
	`, plan.ID)
	if err != nil {
		return fmt.Errorf("failed to query subjects for plan %s: %w", plan.ID, err)
	}
	defer subjRows.Close()

	for subjRows.Next() {
		var s domain.Subject
		if err := subjRows.Scan(&s.ID, &s.Name); err != nil {
			return fmt.Errorf("failed to scan subject row: %w", err)
		}
		plan.Subjects = append(plan.Subjects, s)
	}
	if err := subjRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate subjects: %w", err)
	}

	for i := range plan.Subjects {
		if err := db.loadTopics(ctx, &plan.Subjects[i]); err != nil {
			return err
		}
	}

	sessRows, err := db.conn.QueryContext(ctx, `
		SELECT date, questions_total, questions_correct
		FROM study_sessions WHERE plan_id = ? ORDER BY rowid
	`, plan.ID)
	if err != nil {
		return fmt.Errorf("failed to query sessions for plan %s: %w", plan.ID, err)
	}
	defer sessRows.Close()

	for sessRows.Next() {
		var s domain.StudySession
		if err := sessRows.Scan(&s.Date, &s.QuestionsTotal, &s.QuestionsCorrect); err != nil {
			return fmt.Errorf("failed to scan session row: %w", err)
		}
		plan.StudySessions = append(plan.StudySessions, s)
	}
	if err := sessRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate sessions: %w", err)
	}

	examRows, err := db.conn.QueryContext(ctx, `
		SELECT id, institution, year, questions_total, questions_correct, duration, date
		FROM mock_exams WHERE plan_id = ? ORDER BY rowid
	`, plan.ID)
	if err != nil {
		return fmt.Errorf("failed to query mock exams for plan %s: %w", plan.ID, err)
	}
	defer examRows.Close()

	for examRows.Next() {
		var m domain.MockExam
		if err := examRows.Scan(&m.ID, &m.Institution, &m.Year, &m.QuestionsTotal, &m.QuestionsCorrect, &m.Duration, &m.Date); err != nil {
			return fmt.Errorf("failed to scan mock exam row: %w", err)
		}
		plan.MockExams = append(plan.MockExams, m)
	}
	if err := examRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate mock exams: %w", err)
	}

	return db.loadDecks(ctx, plan)
}

func (db *DB) loadTopics(ctx context.Context, subject *domain.Subject) error {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, questions_total, questions_correct, theory_completed, last_revision
		FROM topics WHERE subject_id = ? ORDER BY rowid
	`, subject.ID)
	if err != nil {
		return fmt.Errorf("failed to query topics for subject %s: %w", subject.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var t domain.Topic
		var lastRevision sql.NullTime
		if err := rows.Scan(&t.ID, &t.Name, &t.QuestionsTotal, &t.QuestionsCorrect, &t.IsTheoryCompleted, &lastRevision); err != nil {
			return fmt.Errorf("failed to scan topic row: %w", err)
		}
		if lastRevision.Valid {
			t.LastRevision = &lastRevision.Time
		}
		subject.Topics = append(subject.Topics, t)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate topics: %w", err)
	}

	for i := range subject.Topics {
		if err := db.loadRevisions(ctx, &subject.Topics[i]); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) loadRevisions(ctx context.Context, topic *domain.Topic) error {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, label, scheduled_date, is_completed, completed_date, questions_total, questions_correct
		FROM revisions WHERE topic_id = ? ORDER BY rowid
	`, topic.ID)
	if err != nil {
		return fmt.Errorf("failed to query revisions for topic %s: %w", topic.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var r domain.Revision
		var completed sql.NullTime
		if err := rows.Scan(&r.ID, &r.Label, &r.ScheduledDate, &r.IsCompleted, &completed, &r.QuestionsTotal, &r.QuestionsCorrect); err != nil {
			return fmt.Errorf("failed to scan revision row: %w", err)
		}
		if completed.Valid {
			r.CompletedDate = &completed.Time
		}
		topic.Revisions = append(topic.Revisions, r)
	}
	return rows.Err()
}

func (db *DB) loadDecks(ctx context.Context, plan *domain.Plan) error {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name FROM decks WHERE plan_id = ? ORDER BY rowid
	`, plan.ID)
	if err != nil {
		return fmt.Errorf("failed to query decks for plan %s: %w", plan.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var d domain.FlashcardDeck
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return fmt.Errorf("failed to scan deck row: %w", err)
		}
		plan.Decks = append(plan.Decks, d)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate decks: %w", err)
	}

	for i := range plan.Decks {
		deck := &plan.Decks[i]
		subRows, err := db.conn.QueryContext(ctx, `
			SELECT id, name FROM subdecks WHERE deck_id = ? ORDER BY rowid
		`, deck.ID)
		if err != nil {
			return fmt.Errorf("failed to query sub-decks for deck %s: %w", deck.ID, err)
		}
		for subRows.Next() {
			var sd domain.FlashcardSubDeck
			if err := subRows.Scan(&sd.ID, &sd.Name); err != nil {
				subRows.Close()
				return fmt.Errorf("failed to scan sub-deck row: %w", err)
			}
			deck.SubDecks = append(deck.SubDecks, sd)
		}
		if err := subRows.Err(); err != nil {
			subRows.Close()
			return fmt.Errorf("failed to iterate sub-decks: %w", err)
		}
		subRows.Close()

		for j := range deck.SubDecks {
			if err := db.loadCards(ctx, &deck.SubDecks[j]); err != nil {
				return err
			}
		}

		if err := db.loadSources(ctx, deck); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) loadSources(ctx context.Context, deck *domain.FlashcardDeck) error {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, location, last_synced FROM deck_sources WHERE deck_id = ? ORDER BY rowid
	`, deck.ID)
	if err != nil {
		return fmt.Errorf("failed to query sources for deck %s: %w", deck.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var src domain.CardSource
		var lastSynced sql.NullTime
		if err := rows.Scan(&src.ID, &src.Location, &lastSynced); err != nil {
			return fmt.Errorf("failed to scan source row: %w", err)
		}
		if lastSynced.Valid {
			ls := lastSynced.Time
			src.LastSynced = &ls
		}
		deck.Sources = append(deck.Sources, src)
	}
	return rows.Err()
}

func (db *DB) loadCards(ctx context.Context, sd *domain.FlashcardSubDeck) error {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, question, answer, media_ref, media_side, state, interval, ease_factor, repetitions, due_date, is_error
		FROM cards WHERE subdeck_id = ? ORDER BY rowid
	`, sd.ID)
	if err != nil {
		return fmt.Errorf("failed to query cards for sub-deck %s: %w", sd.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.Flashcard
		var state, side string
		if err := rows.Scan(&c.ID, &c.Question, &c.Answer, &c.MediaRef, &side, &state, &c.Interval, &c.EaseFactor, &c.Reps, &c.DueDate, &c.IsError); err != nil {
			return fmt.Errorf("failed to scan card row: %w", err)
		}
		c.State = domain.CardState(state)
		c.MediaOn = domain.MediaSide(side)
		sd.Cards = append(sd.Cards, c)
	}
	return rows.Err()
}

// SavePlan upserts a whole plan. Children are replaced wholesale in
// one transaction; the plan value in memory is the source of truth
// and the database only mirrors it.
func (db *DB) SavePlan(ctx context.Context, plan domain.Plan) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin save for plan %s: %w", plan.ID, err)
	}
	defer tx.Rollback()

	if err := deletePlanChildren(ctx, tx, plan.ID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO plans (id, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, created_at = excluded.created_at
	`, plan.ID, plan.Name, plan.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert plan %s: %w", plan.ID, err)
	}

	for _, subject := range plan.Subjects {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO subjects (id, plan_id, name) VALUES (?, ?, ?)
		`, subject.ID, plan.ID, subject.Name); err != nil {
			return fmt.Errorf("failed to insert subject %s: %w", subject.ID, err)
		}
		for _, topic := range subject.Topics {
			var lastRevision sql.NullTime
			if topic.LastRevision != nil {
				lastRevision = sql.NullTime{Time: *topic.LastRevision, Valid: true}
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO topics (id, subject_id, name, questions_total, questions_correct, theory_completed, last_revision)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, topic.ID, subject.ID, topic.Name, topic.QuestionsTotal, topic.QuestionsCorrect, topic.IsTheoryCompleted, lastRevision); err != nil {
				return fmt.Errorf("failed to insert topic %s: %w", topic.ID, err)
			}
			for _, rev := range topic.Revisions {
				var completed sql.NullTime
				if rev.CompletedDate != nil {
					completed = sql.NullTime{Time: *rev.CompletedDate, Valid: true}
				}
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO revisions (id, topic_id, label, scheduled_date, is_completed, completed_date, questions_total, questions_correct)
					VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				`, rev.ID, topic.ID, rev.Label, rev.ScheduledDate, rev.IsCompleted, completed, rev.QuestionsTotal, rev.QuestionsCorrect); err != nil {
					return fmt.Errorf("failed to insert revision %s: %w", rev.ID, err)
				}
			}
		}
	}

	for _, session := range plan.StudySessions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO study_sessions (plan_id, date, questions_total, questions_correct)
			VALUES (?, ?, ?, ?)
		`, plan.ID, session.Date, session.QuestionsTotal, session.QuestionsCorrect); err != nil {
			return fmt.Errorf("failed to insert study session: %w", err)
		}
	}

	for _, exam := range plan.MockExams {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO mock_exams (id, plan_id, institution, year, questions_total, questions_correct, duration, date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, exam.ID, plan.ID, exam.Institution, exam.Year, exam.QuestionsTotal, exam.QuestionsCorrect, exam.Duration, exam.Date); err != nil {
			return fmt.Errorf("failed to insert mock exam %s: %w", exam.ID, err)
		}
	}

	for _, deck := range plan.Decks {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO decks (id, plan_id, name) VALUES (?, ?, ?)
		`, deck.ID, plan.ID, deck.Name); err != nil {
			return fmt.Errorf("failed to insert deck %s: %w", deck.ID, err)
		}
		for _, src := range deck.Sources {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO deck_sources (id, deck_id, location, last_synced) VALUES (?, ?, ?, ?)
			`, src.ID, deck.ID, src.Location, src.LastSynced); err != nil {
				return fmt.Errorf("failed to insert source %s: %w", src.ID, err)
			}
		}
		for _, sd := range deck.SubDecks {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO subdecks (id, deck_id, name) VALUES (?, ?, ?)
			`, sd.ID, deck.ID, sd.Name); err != nil {
				return fmt.Errorf("failed to insert sub-deck %s: %w", sd.ID, err)
			}
			for _, c := range sd.Cards {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO cards (id, subdeck_id, question, answer, media_ref, media_side, state, interval, ease_factor, repetitions, due_date, is_error)
					VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				`, c.ID, sd.ID, c.Question, c.Answer, c.MediaRef, string(c.MediaOn), string(c.State), c.Interval, c.EaseFactor, c.Reps, c.DueDate, c.IsError); err != nil {
					return fmt.Errorf("failed to insert card %s: %w", c.ID, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit save for plan %s: %w", plan.ID, err)
	}
	return nil
}

// DeletePlan removes a plan and everything it owns.
func (db *DB) DeletePlan(ctx context.Context, planID string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete for plan %s: %w", planID, err)
	}
	defer tx.Rollback()

	if err := deletePlanChildren(ctx, tx, planID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, planID); err != nil {
		return fmt.Errorf("failed to delete plan %s: %w", planID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete for plan %s: %w", planID, err)
	}
	return nil
}

func deletePlanChildren(ctx context.Context, tx *sql.Tx, planID string) error {
	steps := []struct {
		name  string
		query string
	}{
		{"cards", `DELETE FROM cards WHERE subdeck_id IN (
			SELECT sd.id FROM subdecks sd JOIN decks d ON sd.deck_id = d.id WHERE d.plan_id = ?)`},
		{"subdecks", `DELETE FROM subdecks WHERE deck_id IN (SELECT id FROM decks WHERE plan_id = ?)`},
		{"deck_sources", `DELETE FROM deck_sources WHERE deck_id IN (SELECT id FROM decks WHERE plan_id = ?)`},
		{"decks", `DELETE FROM decks WHERE plan_id = ?`},
		{"revisions", `DELETE FROM revisions WHERE topic_id IN (
			SELECT t.id FROM topics t JOIN subjects s ON t.subject_id = s.id WHERE s.plan_id = ?)`},
		{"topics", `DELETE FROM topics WHERE subject_id IN (SELECT id FROM subjects WHERE plan_id = ?)`},
		{"subjects", `DELETE FROM subjects WHERE plan_id = ?`},
		{"study_sessions", `DELETE FROM study_sessions WHERE plan_id = ?`},
		{"mock_exams", `DELETE FROM mock_exams WHERE plan_id = ?`},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.query, planID); err != nil {
			return fmt.Errorf("failed to clear %s for plan %s: %w", step.name, planID, err)
		}
	}
	return nil
}
