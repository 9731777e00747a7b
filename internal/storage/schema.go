package storage

const schema = `
-- One row per study plan; children hang off it by foreign key.
CREATE TABLE IF NOT EXISTS plans (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS subjects (
    id TEXT PRIMARY KEY,
    plan_id TEXT NOT NULL,
    name TEXT NOT NULL,

    FOREIGN KEY(plan_id) REFERENCES plans(id)
);

CREATE TABLE IF NOT EXISTS topics (
    id TEXT PRIMARY KEY,
    subject_id TEXT NOT NULL,
    name TEXT NOT NULL,
    questions_total INTEGER NOT NULL DEFAULT 0,
    questions_correct INTEGER NOT NULL DEFAULT 0,
    theory_completed INTEGER NOT NULL DEFAULT 0,
    last_revision DATETIME,

    FOREIGN KEY(subject_id) REFERENCES subjects(id)
);

CREATE TABLE IF NOT EXISTS revisions (
    id TEXT PRIMARY KEY,
    topic_id TEXT NOT NULL,
    label TEXT NOT NULL,
    scheduled_date DATETIME NOT NULL,
    is_completed INTEGER NOT NULL DEFAULT 0,
    completed_date DATETIME,
    questions_total INTEGER NOT NULL DEFAULT 0,
    questions_correct INTEGER NOT NULL DEFAULT 0,

    FOREIGN KEY(topic_id) REFERENCES topics(id)
);

-- Append-only session history for the accuracy timeline.
CREATE TABLE IF NOT EXISTS study_sessions (
    plan_id TEXT NOT NULL,
    date DATETIME NOT NULL,
    questions_total INTEGER NOT NULL,
    questions_correct INTEGER NOT NULL,

    FOREIGN KEY(plan_id) REFERENCES plans(id)
);

CREATE TABLE IF NOT EXISTS mock_exams (
    id TEXT PRIMARY KEY,
    plan_id TEXT NOT NULL,
    institution TEXT NOT NULL,
    year INTEGER NOT NULL,
    questions_total INTEGER NOT NULL,
    questions_correct INTEGER NOT NULL,
    duration TEXT NOT NULL DEFAULT '',
    date DATETIME NOT NULL,

    FOREIGN KEY(plan_id) REFERENCES plans(id)
);

CREATE TABLE IF NOT EXISTS decks (
    id TEXT PRIMARY KEY,
    plan_id TEXT NOT NULL,
    name TEXT NOT NULL,

    FOREIGN KEY(plan_id) REFERENCES plans(id)
);

CREATE TABLE IF NOT EXISTS deck_sources (
    id TEXT PRIMARY KEY,
    deck_id TEXT NOT NULL,
    location TEXT NOT NULL,
    last_synced TIMESTAMP,

    FOREIGN KEY(deck_id) REFERENCES decks(id)
);

CREATE TABLE IF NOT EXISTS subdecks (
    id TEXT PRIMARY KEY,
    deck_id TEXT NOT NULL,
    name TEXT NOT NULL,

    FOREIGN KEY(deck_id) REFERENCES decks(id)
);

CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    subdeck_id TEXT NOT NULL,
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    media_ref TEXT NOT NULL DEFAULT '',
    media_side TEXT NOT NULL DEFAULT '',
    state TEXT NOT NULL DEFAULT 'new',
    interval INTEGER NOT NULL DEFAULT 0,
    ease_factor REAL NOT NULL DEFAULT 2.5,
    repetitions INTEGER NOT NULL DEFAULT 0,
    due_date DATETIME NOT NULL,
    is_error INTEGER NOT NULL DEFAULT 0,

    FOREIGN KEY(subdeck_id) REFERENCES subdecks(id)
);
`
