package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal"
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/plan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// execer is satisfied by both *pgxpool.Pool and pgx.Tx, so the same update
// logic serves standalone calls and the atomic mutation transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(dsn string, logger internal.Logger) (*PostgresStorage, error) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	return &PostgresStorage{pool: pool, logger: logger}, nil
}

// --- PlanRepository ---

func (p *PostgresStorage) GetPlan(ctx context.Context, planID string) (*internal.ReadingPlan, error) {
	row := p.pool.QueryRow(ctx, `SELECT id, name, description, duration_days, daily_structure, is_active, created_at FROM reading_plans WHERE id = $1`, planID)
	rp, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, plan.ErrPlanNotFound
		}
		p.logger.Errorf("failed to fetch plan %s: %v", planID, err)
		return nil, err
	}
	return rp, nil
}

func (p *PostgresStorage) ListPlans(ctx context.Context) ([]internal.ReadingPlan, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, name, description, duration_days, daily_structure, is_active, created_at FROM reading_plans ORDER BY name`)
	if err != nil {
		p.logger.Errorf("failed to query plans: %v", err)
		return nil, err
	}
	defer rows.Close()

	var plans []internal.ReadingPlan
	for rows.Next() {
		rp, err := scanPlan(rows)
		if err != nil {
			p.logger.Errorf("failed to scan plan: %v", err)
			return nil, err
		}
		plans = append(plans, *rp)
	}
	return plans, rows.Err()
}

func (p *PostgresStorage) SavePlan(ctx context.Context, rp *internal.ReadingPlan) error {
	structure, err := json.Marshal(rp.DailyStructure)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `INSERT INTO reading_plans (id, name, description, duration_days, daily_structure, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		rp.ID, rp.Name, rp.Description, rp.DurationDays, structure, rp.IsActive, rp.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert plan: %v", err)
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*internal.ReadingPlan, error) {
	var rp internal.ReadingPlan
	var structure []byte
	if err := row.Scan(&rp.ID, &rp.Name, &rp.Description, &rp.DurationDays, &structure, &rp.IsActive, &rp.CreatedAt); err != nil {
		return nil, err
	}
	s, err := plan.UnmarshalStructure(structure)
	if err != nil {
		return nil, err
	}
	rp.DailyStructure = s
	return &rp, nil
}

// --- UserPlanRepository ---

func (p *PostgresStorage) CreateUserPlan(ctx context.Context, up *internal.UserPlan) error {
	positions, err := json.Marshal(up.ListPositions)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `INSERT INTO user_plans (id, user_id, plan_id, start_date, current_day, list_positions, is_completed, completed_at, is_archived, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		up.ID, up.UserID, up.PlanID, up.StartDate, up.CurrentDay, positions, up.IsCompleted, up.CompletedAt, up.IsArchived, up.Version, up.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert user plan: %v", err)
	}
	return err
}

func (p *PostgresStorage) GetUserPlan(ctx context.Context, userPlanID string) (*internal.UserPlan, error) {
	row := p.pool.QueryRow(ctx, `SELECT id, user_id, plan_id, start_date, current_day, list_positions, is_completed, completed_at, is_archived, version, created_at FROM user_plans WHERE id = $1`, userPlanID)
	up, err := scanUserPlan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, plan.ErrUserPlanNotFound
		}
		p.logger.Errorf("failed to fetch user plan %s: %v", userPlanID, err)
		return nil, err
	}
	return up, nil
}

func (p *PostgresStorage) ListUserPlans(ctx context.Context, userID string) ([]internal.UserPlan, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, user_id, plan_id, start_date, current_day, list_positions, is_completed, completed_at, is_archived, version, created_at FROM user_plans WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		p.logger.Errorf("failed to query user plans: %v", err)
		return nil, err
	}
	defer rows.Close()

	var ups []internal.UserPlan
	for rows.Next() {
		up, err := scanUserPlan(rows)
		if err != nil {
			p.logger.Errorf("failed to scan user plan: %v", err)
			return nil, err
		}
		ups = append(ups, *up)
	}
	return ups, rows.Err()
}

func scanUserPlan(row rowScanner) (*internal.UserPlan, error) {
	var up internal.UserPlan
	var positions []byte
	if err := row.Scan(&up.ID, &up.UserID, &up.PlanID, &up.StartDate, &up.CurrentDay, &positions, &up.IsCompleted, &up.CompletedAt, &up.IsArchived, &up.Version, &up.CreatedAt); err != nil {
		return nil, err
	}
	if len(positions) > 0 {
		if err := json.Unmarshal(positions, &up.ListPositions); err != nil {
			return nil, err
		}
	}
	return &up, nil
}

func (p *PostgresStorage) UpdateUserPlan(ctx context.Context, up *internal.UserPlan, expectedVersion int64) error {
	return p.updateUserPlanTx(ctx, p.pool, up, expectedVersion)
}

func (p *PostgresStorage) updateUserPlanTx(ctx context.Context, db execer, up *internal.UserPlan, expectedVersion int64) error {
	positions, err := json.Marshal(up.ListPositions)
	if err != nil {
		return err
	}
	tag, err := db.Exec(ctx, `UPDATE user_plans
		SET current_day = $1, list_positions = $2, is_completed = $3, completed_at = $4, is_archived = $5, version = version + 1
		WHERE id = $6 AND version = $7`,
		up.CurrentDay, positions, up.IsCompleted, up.CompletedAt, up.IsArchived, up.ID, expectedVersion)
	if err != nil {
		p.logger.Errorf("failed to update user plan %s: %v", up.ID, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM user_plans WHERE id = $1)`, up.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return plan.ErrUserPlanNotFound
		}
		return plan.ErrStaleState
	}
	up.Version = expectedVersion + 1
	return nil
}

// --- ProgressRepository ---

func (p *PostgresStorage) GetProgress(ctx context.Context, userPlanID, date string) (*internal.DailyProgress, error) {
	row := p.pool.QueryRow(ctx, `SELECT id, user_id, user_plan_id, date, completed_sections, is_complete, notes, created_at, updated_at FROM daily_progress WHERE user_plan_id = $1 AND date = $2`, userPlanID, date)
	rec, err := scanProgress(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		p.logger.Errorf("failed to fetch progress %s/%s: %v", userPlanID, date, err)
		return nil, err
	}
	return rec, nil
}

func (p *PostgresStorage) ListProgressByUser(ctx context.Context, userID string) ([]internal.DailyProgress, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, user_id, user_plan_id, date, completed_sections, is_complete, notes, created_at, updated_at FROM daily_progress WHERE user_id = $1 ORDER BY date`, userID)
	if err != nil {
		p.logger.Errorf("failed to query progress history: %v", err)
		return nil, err
	}
	defer rows.Close()

	var records []internal.DailyProgress
	for rows.Next() {
		rec, err := scanProgress(rows)
		if err != nil {
			p.logger.Errorf("failed to scan progress record: %v", err)
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func scanProgress(row rowScanner) (*internal.DailyProgress, error) {
	var rec internal.DailyProgress
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.UserPlanID, &rec.Date, &rec.CompletedSections, &rec.IsComplete, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (p *PostgresStorage) UpsertProgress(ctx context.Context, rec *internal.DailyProgress) error {
	return p.upsertProgressTx(ctx, p.pool, rec)
}

func (p *PostgresStorage) upsertProgressTx(ctx context.Context, db execer, rec *internal.DailyProgress) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now()
	_, err := db.Exec(ctx, `INSERT INTO daily_progress (id, user_id, user_plan_id, date, completed_sections, is_complete, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (user_plan_id, date) DO UPDATE
		SET completed_sections = EXCLUDED.completed_sections, is_complete = EXCLUDED.is_complete, notes = EXCLUDED.notes, updated_at = EXCLUDED.updated_at`,
		rec.ID, rec.UserID, rec.UserPlanID, rec.Date, rec.CompletedSections, rec.IsComplete, rec.Notes, now)
	if err != nil {
		p.logger.Errorf("failed to upsert progress %s/%s: %v", rec.UserPlanID, rec.Date, err)
	}
	return err
}

// --- ProfileRepository ---

func (p *PostgresStorage) GetProfile(ctx context.Context, userID string) (*internal.Profile, error) {
	row := p.pool.QueryRow(ctx, `SELECT user_id, display_name, streak_minimum, created_at, updated_at FROM profiles WHERE user_id = $1`, userID)
	var pr internal.Profile
	if err := row.Scan(&pr.UserID, &pr.DisplayName, &pr.StreakMinimum, &pr.CreatedAt, &pr.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		p.logger.Errorf("failed to fetch profile %s: %v", userID, err)
		return nil, err
	}
	return &pr, nil
}

func (p *PostgresStorage) UpsertProfile(ctx context.Context, pr *internal.Profile) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO profiles (user_id, display_name, streak_minimum, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET display_name = EXCLUDED.display_name, streak_minimum = EXCLUDED.streak_minimum, updated_at = EXCLUDED.updated_at`,
		pr.UserID, pr.DisplayName, pr.StreakMinimum, pr.CreatedAt, pr.UpdatedAt)
	if err != nil {
		p.logger.Errorf("failed to upsert profile: %v", err)
	}
	return err
}

// --- MutationStore ---

// ApplyMutation runs the version-checked position update and the day's
// progress upsert in one transaction.
func (p *PostgresStorage) ApplyMutation(ctx context.Context, up *internal.UserPlan, expectedVersion int64, rec *internal.DailyProgress) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := p.updateUserPlanTx(ctx, tx, up, expectedVersion); err != nil {
		return err
	}
	if rec != nil {
		if err := p.upsertProgressTx(ctx, tx, rec); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// --- Compile-time assertions ---
var _ PlanRepository = (*PostgresStorage)(nil)
var _ UserPlanRepository = (*PostgresStorage)(nil)
var _ ProgressRepository = (*PostgresStorage)(nil)
var _ ProfileRepository = (*PostgresStorage)(nil)
var _ MutationStore = (*PostgresStorage)(nil)
