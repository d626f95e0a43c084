package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		hashed_password TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS user_stats (
		user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		total_practice_sessions INTEGER NOT NULL DEFAULT 0,
		completed_practice_sessions INTEGER NOT NULL DEFAULT 0,
		average_practice_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		total_battles INTEGER NOT NULL DEFAULT 0,
		battles_won INTEGER NOT NULL DEFAULT 0,
		battles_lost INTEGER NOT NULL DEFAULT 0,
		current_win_streak INTEGER NOT NULL DEFAULT 0,
		best_win_streak INTEGER NOT NULL DEFAULT 0,
		avg_structure_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		avg_logic_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		avg_delivery_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		avg_time_use_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		total_debate_time DOUBLE PRECISION NOT NULL DEFAULT 0,
		pro_debates INTEGER NOT NULL DEFAULT 0,
		con_debates INTEGER NOT NULL DEFAULT 0,
		last_activity TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS topics (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		difficulty TEXT NOT NULL DEFAULT 'medium',
		category TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_topics_created_at ON topics (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		topic_id BIGINT NOT NULL REFERENCES topics(id),
		user_id TEXT REFERENCES users(id) ON DELETE SET NULL,
		stance TEXT NOT NULL CHECK (stance IN ('pro', 'con')),
		status TEXT NOT NULL DEFAULT 'in_progress' CHECK (status IN ('in_progress', 'completed')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS segments (
		id BIGSERIAL PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		kind TEXT NOT NULL CHECK (kind IN ('opening', 'rebuttal', 'closing')),
		audio_url TEXT,
		transcript TEXT NOT NULL DEFAULT '',
		duration DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_segments_session ON segments (session_id, id)`,
	`CREATE TABLE IF NOT EXISTS scorecards (
		session_id TEXT PRIMARY KEY REFERENCES sessions(id) ON DELETE CASCADE,
		result JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS battles (
		id TEXT PRIMARY KEY,
		topic_id BIGINT NOT NULL REFERENCES topics(id),
		player1_id TEXT NOT NULL REFERENCES users(id),
		player1_stance TEXT NOT NULL CHECK (player1_stance IN ('pro', 'con')),
		player2_id TEXT REFERENCES users(id),
		player2_stance TEXT CHECK (player2_stance IN ('pro', 'con')),
		status TEXT NOT NULL DEFAULT 'waiting' CHECK (status IN ('waiting', 'in_progress', 'completed')),
		current_turn TEXT,
		current_segment TEXT NOT NULL DEFAULT 'opening',
		winner_id TEXT REFERENCES users(id),
		judgment JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_battles_waiting ON battles (created_at) WHERE status = 'waiting'`,
	`CREATE TABLE IF NOT EXISTS battle_segments (
		id BIGSERIAL PRIMARY KEY,
		battle_id TEXT NOT NULL REFERENCES battles(id) ON DELETE CASCADE,
		player_id TEXT NOT NULL REFERENCES users(id),
		kind TEXT NOT NULL CHECK (kind IN ('opening', 'rebuttal', 'closing')),
		transcript TEXT NOT NULL,
		duration DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (battle_id, player_id, kind)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_battle_segments_battle ON battle_segments (battle_id, id)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
