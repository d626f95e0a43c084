package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/foxseedlab/debaide/internal/debate"
	"github.com/foxseedlab/debaide/internal/repository"
	"github.com/foxseedlab/debaide/pkg/debatedto"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Users

const userColumns = `id, username, email, hashed_password, created_at`

func scanUser(row pgx.Row) (*repository.User, error) {
	var u repository.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *PostgresRepository) CreateUser(ctx context.Context, input repository.CreateUserInput) (*repository.User, error) {
	var created *repository.User
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		u, err := scanUser(tx.QueryRow(ctx,
			`INSERT INTO users (id, username, email, hashed_password)
			 VALUES ($1, $2, $3, $4)
			 RETURNING `+userColumns,
			input.ID, input.Username, input.Email, input.HashedPassword))
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO user_stats (user_id) VALUES ($1) ON CONFLICT DO NOTHING`, u.ID); err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, err
	}
	return created, nil
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*repository.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *PostgresRepository) GetUserByUsername(ctx context.Context, username string) (*repository.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*repository.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// Stats

const statsColumns = `user_id, total_practice_sessions, completed_practice_sessions, average_practice_score,
	total_battles, battles_won, battles_lost, current_win_streak, best_win_streak,
	avg_structure_score, avg_logic_score, avg_delivery_score, avg_time_use_score,
	total_debate_time, pro_debates, con_debates, last_activity, updated_at`

func scanStats(row pgx.Row) (*repository.UserStats, error) {
	var s repository.UserStats
	err := row.Scan(&s.UserID, &s.TotalPracticeSessions, &s.CompletedPracticeSessions, &s.AveragePracticeScore,
		&s.TotalBattles, &s.BattlesWon, &s.BattlesLost, &s.CurrentWinStreak, &s.BestWinStreak,
		&s.AvgStructureScore, &s.AvgLogicScore, &s.AvgDeliveryScore, &s.AvgTimeUseScore,
		&s.TotalDebateTime, &s.ProDebates, &s.ConDebates, &s.LastActivity, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresRepository) GetStats(ctx context.Context, userID string) (*repository.UserStats, error) {
	if _, err := r.pool.Exec(ctx, `INSERT INTO user_stats (user_id) VALUES ($1) ON CONFLICT DO NOTHING`, userID); err != nil {
		return nil, err
	}
	return scanStats(r.pool.QueryRow(ctx, `SELECT `+statsColumns+` FROM user_stats WHERE user_id = $1`, userID))
}

func (r *PostgresRepository) UpdateStats(ctx context.Context, userID string, fn func(*repository.UserStats)) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO user_stats (user_id) VALUES ($1) ON CONFLICT DO NOTHING`, userID); err != nil {
			return err
		}
		s, err := scanStats(tx.QueryRow(ctx, `SELECT `+statsColumns+` FROM user_stats WHERE user_id = $1 FOR UPDATE`, userID))
		if err != nil {
			return err
		}
		fn(s)
		_, err = tx.Exec(ctx,
			`UPDATE user_stats SET
				total_practice_sessions = $2, completed_practice_sessions = $3, average_practice_score = $4,
				total_battles = $5, battles_won = $6, battles_lost = $7, current_win_streak = $8, best_win_streak = $9,
				avg_structure_score = $10, avg_logic_score = $11, avg_delivery_score = $12, avg_time_use_score = $13,
				total_debate_time = $14, pro_debates = $15, con_debates = $16, last_activity = $17, updated_at = NOW()
			 WHERE user_id = $1`,
			userID, s.TotalPracticeSessions, s.CompletedPracticeSessions, s.AveragePracticeScore,
			s.TotalBattles, s.BattlesWon, s.BattlesLost, s.CurrentWinStreak, s.BestWinStreak,
			s.AvgStructureScore, s.AvgLogicScore, s.AvgDeliveryScore, s.AvgTimeUseScore,
			s.TotalDebateTime, s.ProDebates, s.ConDebates, s.LastActivity)
		return err
	})
}

// Topics

const topicColumns = `id, title, description, difficulty, category, created_at`

func scanTopic(row pgx.Row) (*repository.Topic, error) {
	var t repository.Topic
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Difficulty, &t.Category, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *PostgresRepository) ListTopics(ctx context.Context) ([]repository.Topic, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+topicColumns+` FROM topics ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Topic
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *t)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) GetTopic(ctx context.Context, id int64) (*repository.Topic, error) {
	return scanTopic(r.pool.QueryRow(ctx, `SELECT `+topicColumns+` FROM topics WHERE id = $1`, id))
}

func (r *PostgresRepository) LatestTopicSince(ctx context.Context, since time.Time) (*repository.Topic, error) {
	return scanTopic(r.pool.QueryRow(ctx,
		`SELECT `+topicColumns+` FROM topics WHERE created_at >= $1 ORDER BY created_at DESC LIMIT 1`, since))
}

func (r *PostgresRepository) CreateTopic(ctx context.Context, input repository.CreateTopicInput) (*repository.Topic, error) {
	return scanTopic(r.pool.QueryRow(ctx,
		`INSERT INTO topics (title, description, difficulty, category)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+topicColumns,
		input.Title, input.Description, input.Difficulty, input.Category))
}

func (r *PostgresRepository) CountTopics(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM topics`).Scan(&n)
	return n, err
}

// Practice sessions

const sessionColumns = `id, topic_id, user_id, stance, status, created_at, completed_at`

func scanSession(row pgx.Row) (*repository.Session, error) {
	var s repository.Session
	var userID *string
	var stance, status string
	if err := row.Scan(&s.ID, &s.TopicID, &userID, &stance, &status, &s.CreatedAt, &s.CompletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.UserID = derefString(userID)
	s.Stance = debate.Stance(stance)
	s.Status = debate.SessionStatus(status)
	return &s, nil
}

func (r *PostgresRepository) CreateSession(ctx context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`INSERT INTO sessions (id, topic_id, user_id, stance, status)
		 VALUES ($1, $2, $3, $4, 'in_progress')
		 RETURNING `+sessionColumns,
		input.ID, input.TopicID, nullableString(input.UserID), string(input.Stance)))
}

func (r *PostgresRepository) GetSession(ctx context.Context, id string) (*repository.Session, error) {
	return scanSession(r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
}

const segmentColumns = `id, session_id, kind, audio_url, transcript, duration, created_at`

func scanSegment(row pgx.Row) (*repository.Segment, error) {
	var s repository.Segment
	var kind string
	var audioURL *string
	if err := row.Scan(&s.ID, &s.SessionID, &kind, &audioURL, &s.Transcript, &s.Duration, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Kind = debate.SegmentKind(kind)
	s.AudioURL = derefString(audioURL)
	return &s, nil
}

func (r *PostgresRepository) InsertSegment(ctx context.Context, input repository.InsertSegmentInput) (*repository.Segment, error) {
	return scanSegment(r.pool.QueryRow(ctx,
		`INSERT INTO segments (session_id, kind, audio_url, transcript, duration)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+segmentColumns,
		input.SessionID, string(input.Kind), nullableString(input.AudioURL), input.Transcript, input.Duration))
}

func (r *PostgresRepository) ListSegmentsBySessionID(ctx context.Context, sessionID string) ([]repository.Segment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+segmentColumns+` FROM segments WHERE session_id = $1 ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Segment
	for rows.Next() {
		seg, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *seg)
	}
	return list, rows.Err()
}

func scanScorecard(row pgx.Row) (*repository.Scorecard, error) {
	var c repository.Scorecard
	var raw []byte
	if err := row.Scan(&c.SessionID, &raw, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &c.Result); err != nil {
		return nil, fmt.Errorf("decode scorecard %s: %w", c.SessionID, err)
	}
	return &c, nil
}

func (r *PostgresRepository) GetScorecard(ctx context.Context, sessionID string) (*repository.Scorecard, error) {
	return scanScorecard(r.pool.QueryRow(ctx,
		`SELECT session_id, result, created_at FROM scorecards WHERE session_id = $1`, sessionID))
}

func (r *PostgresRepository) SaveScorecard(ctx context.Context, input repository.SaveScorecardInput) (*repository.Scorecard, bool, error) {
	raw, err := json.Marshal(input.Result)
	if err != nil {
		return nil, false, err
	}
	var card *repository.Scorecard
	created := false
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`INSERT INTO scorecards (session_id, result) VALUES ($1, $2) ON CONFLICT (session_id) DO NOTHING`,
			input.SessionID, raw)
		if err != nil {
			return err
		}
		created = tag.RowsAffected() == 1
		if created {
			if _, err := tx.Exec(ctx,
				`UPDATE sessions SET status = 'completed', completed_at = $2 WHERE id = $1`,
				input.SessionID, input.CompletedAt); err != nil {
				return err
			}
		}
		card, err = scanScorecard(tx.QueryRow(ctx,
			`SELECT session_id, result, created_at FROM scorecards WHERE session_id = $1`, input.SessionID))
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return card, created, nil
}

// Battles

const battleColumns = `id, topic_id, player1_id, player1_stance, player2_id, player2_stance, status,
	current_turn, current_segment, winner_id, judgment, created_at, completed_at`

func scanBattle(row pgx.Row) (*repository.Battle, error) {
	var b repository.Battle
	var p1Stance, status, segment string
	var p2ID, p2Stance, turn, winner *string
	var judgment []byte
	err := row.Scan(&b.ID, &b.TopicID, &b.Player1ID, &p1Stance, &p2ID, &p2Stance, &status,
		&turn, &segment, &winner, &judgment, &b.CreatedAt, &b.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	b.Player1Stance = debate.Stance(p1Stance)
	b.Player2ID = derefString(p2ID)
	b.Player2Stance = debate.Stance(derefString(p2Stance))
	b.Status = debate.BattleStatus(status)
	b.CurrentTurn = derefString(turn)
	b.CurrentSegment = debate.SegmentKind(segment)
	b.WinnerID = derefString(winner)
	if len(judgment) > 0 {
		var j debatedto.Judgment
		if err := json.Unmarshal(judgment, &j); err != nil {
			return nil, fmt.Errorf("decode judgment for battle %s: %w", b.ID, err)
		}
		b.Judgment = &j
	}
	return &b, nil
}

func (r *PostgresRepository) CreateBattle(ctx context.Context, input repository.CreateBattleInput) (*repository.Battle, error) {
	var created *repository.Battle
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM battles WHERE player1_id = $1 AND status = 'waiting'`, input.Player1ID); err != nil {
			return err
		}
		b, err := scanBattle(tx.QueryRow(ctx,
			`INSERT INTO battles (id, topic_id, player1_id, player1_stance, status, current_turn, current_segment)
			 VALUES ($1, $2, $3, $4, 'waiting', $3, 'opening')
			 RETURNING `+battleColumns,
			input.ID, input.TopicID, input.Player1ID, string(input.Player1Stance)))
		if err != nil {
			return err
		}
		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *PostgresRepository) GetBattle(ctx context.Context, id string) (*repository.Battle, error) {
	return scanBattle(r.pool.QueryRow(ctx, `SELECT `+battleColumns+` FROM battles WHERE id = $1`, id))
}

func (r *PostgresRepository) JoinBattle(ctx context.Context, input repository.JoinBattleInput) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE battles SET player2_id = $2, player2_stance = $3, status = 'in_progress'
		 WHERE id = $1 AND status = 'waiting' AND player2_id IS NULL AND player1_id <> $2`,
		input.BattleID, input.Player2ID, string(input.Player2Stance))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresRepository) ListWaitingBattles(ctx context.Context, excludeUserID string) ([]repository.Battle, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+battleColumns+` FROM battles
		 WHERE status = 'waiting' AND player1_id <> $1
		 ORDER BY created_at ASC`, excludeUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Battle
	for rows.Next() {
		b, err := scanBattle(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *b)
	}
	return list, rows.Err()
}

const battleSegmentColumns = `id, battle_id, player_id, kind, transcript, duration, created_at`

func scanBattleSegment(row pgx.Row) (*repository.BattleSegment, error) {
	var s repository.BattleSegment
	var kind string
	if err := row.Scan(&s.ID, &s.BattleID, &s.PlayerID, &kind, &s.Transcript, &s.Duration, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Kind = debate.SegmentKind(kind)
	return &s, nil
}

func (r *PostgresRepository) RecordBattleSegment(ctx context.Context, input repository.RecordBattleSegmentInput) (*repository.BattleSegment, error) {
	var seg *repository.BattleSegment
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE battles SET current_turn = $4, current_segment = $5
			 WHERE id = $1 AND status = 'in_progress' AND current_turn = $2 AND current_segment = $3`,
			input.BattleID, input.ExpectedTurn, string(input.ExpectedSegment),
			nullableString(input.NextTurn), string(input.NextSegment))
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return repository.ErrConflict
		}
		seg, err = scanBattleSegment(tx.QueryRow(ctx,
			`INSERT INTO battle_segments (battle_id, player_id, kind, transcript, duration)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING `+battleSegmentColumns,
			input.BattleID, input.PlayerID, string(input.Kind), input.Transcript, input.Duration))
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, err
	}
	return seg, nil
}

func (r *PostgresRepository) ListBattleSegments(ctx context.Context, battleID string) ([]repository.BattleSegment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+battleSegmentColumns+` FROM battle_segments WHERE battle_id = $1 ORDER BY created_at ASC, id ASC`, battleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.BattleSegment
	for rows.Next() {
		seg, err := scanBattleSegment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *seg)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) CompleteBattle(ctx context.Context, input repository.CompleteBattleInput) (bool, error) {
	raw, err := json.Marshal(input.Judgment)
	if err != nil {
		return false, err
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE battles SET status = 'completed', winner_id = $2, judgment = $3, completed_at = $4,
			current_turn = NULL
		 WHERE id = $1 AND status = 'in_progress' AND judgment IS NULL`,
		input.BattleID, input.WinnerID, raw, input.CompletedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Shutdown closes the pool when the injector shuts down.
func (r *PostgresRepository) Shutdown() error {
	r.pool.Close()
	return nil
}
