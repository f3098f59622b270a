package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kecarajocomer/internal/database"

	"github.com/google/uuid"
)

// PlanRepository is a database-backed repository for meal plans.
type PlanRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{db: d, now: time.Now}
}

// Save stores the plan for its user and week, replacing any plan already
// stored for that week. ID and CreatedAt are set on plan.
func (r *PlanRepository) Save(ctx context.Context, plan *MealPlan) error {
	plan.ID = uuid.NewString()
	plan.CreatedAt = r.now().UTC()

	meals, err := json.Marshal(plan.Meals)
	if err != nil {
		return fmt.Errorf("failed to marshal meal plan: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO meal_plans (id, user_id, week_start, plan_data, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, week_start) DO UPDATE SET
			id = excluded.id,
			plan_data = excluded.plan_data,
			created_at = excluded.created_at`,
		plan.ID, plan.UserID, database.FormatDate(plan.WeekStart), string(meals), database.FormatTime(plan.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save meal plan for user %s: %w", plan.UserID, err)
	}
	return nil
}

// GetForWeek returns the user's plan for the week starting at weekStart,
// or nil if there is none.
func (r *PlanRepository) GetForWeek(ctx context.Context, userID string, weekStart time.Time) (*MealPlan, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, week_start, plan_data, created_at
		FROM meal_plans WHERE user_id = ? AND week_start = ?`,
		userID, database.FormatDate(weekStart))

	plan, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get meal plan for user %s: %w", userID, err)
	}
	return plan, nil
}

// ExistsForWeek reports whether the user has a plan for the week.
func (r *PlanRepository) ExistsForWeek(ctx context.Context, userID string, weekStart time.Time) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM meal_plans WHERE user_id = ? AND week_start = ?`,
		userID, database.FormatDate(weekStart)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check meal plan for user %s: %w", userID, err)
	}
	return count > 0, nil
}

// ListRecentByUserID retrieves the N most recent meal plans for a given user.
func (r *PlanRepository) ListRecentByUserID(ctx context.Context, userID string, limit int) ([]MealPlan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, week_start, plan_data, created_at
		FROM meal_plans WHERE user_id = ?
		ORDER BY week_start DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent meal plans for user %s: %w", userID, err)
	}
	defer rows.Close()

	var plans []MealPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal plan: %w", err)
		}
		plans = append(plans, *plan)
	}
	return plans, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(s scanner) (*MealPlan, error) {
	var (
		plan               MealPlan
		week, data, create string
	)
	if err := s.Scan(&plan.ID, &plan.UserID, &week, &data, &create); err != nil {
		return nil, err
	}

	var err error
	if plan.WeekStart, err = database.ParseDate(week); err != nil {
		return nil, err
	}
	if plan.CreatedAt, err = database.ParseTime(create); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &plan.Meals); err != nil {
		return nil, fmt.Errorf("failed to unmarshal meal plan: %w", err)
	}
	return &plan, nil
}
