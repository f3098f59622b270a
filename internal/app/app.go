package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kecarajocomer/internal/clipper"
	"kecarajocomer/internal/config"
	"kecarajocomer/internal/llm"
	"kecarajocomer/internal/metrics"
	"kecarajocomer/internal/pantry"
	"kecarajocomer/internal/planner"
	"kecarajocomer/internal/prices"
	"kecarajocomer/internal/recipe"
	"kecarajocomer/internal/shared"
	"kecarajocomer/internal/shopping"
	"kecarajocomer/internal/storage"

	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when a requested record does not exist or
	// belongs to another user.
	ErrNotFound = errors.New("not found")
	// ErrNoPlan is returned when a shopping list is requested for a week
	// without a meal plan.
	ErrNoPlan = errors.New("no meal plan for week")
)

// Deps are the external resources the App is built on.
type Deps struct {
	DB         *sql.DB
	TextGen    llm.TextGenerator
	Collectors *metrics.Collectors
	Exporter   *storage.ListStore
	Log        *zap.Logger
}

// App holds the application's dependencies.
type App struct {
	cfg *config.Config
	log *zap.Logger

	recipeRepo   *recipe.Repository
	planRepo     *planner.PlanRepository
	pantryRepo   *pantry.Repository
	listRepo     *shopping.Repository
	priceRepo    *prices.Repository
	metricsStore *metrics.Store
	collectors   *metrics.Collectors
	exporter     *storage.ListStore

	lists         *shopping.Generator
	suggester     *recipe.Generator
	recipeClipper *clipper.Clipper
}

// NewApp creates and initializes a new App instance. Generator options
// apply to shopping list generation.
func NewApp(cfg *config.Config, deps Deps, opts ...shopping.Option) *App {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	collectors := deps.Collectors
	if collectors == nil {
		collectors = metrics.NewCollectors()
	}

	recipeRepo := recipe.NewRepository(deps.DB, log.Named("recipes"))
	return &App{
		cfg:           cfg,
		log:           log,
		recipeRepo:    recipeRepo,
		planRepo:      planner.NewPlanRepository(deps.DB),
		pantryRepo:    pantry.NewRepository(deps.DB),
		listRepo:      shopping.NewRepository(deps.DB),
		priceRepo:     prices.NewRepository(deps.DB),
		metricsStore:  metrics.NewStore(deps.DB),
		collectors:    collectors,
		exporter:      deps.Exporter,
		lists:         shopping.NewGenerator(opts...),
		suggester:     recipe.NewGenerator(deps.TextGen),
		recipeClipper: clipper.NewClipper(deps.TextGen, recipeRepo),
	}
}

// Config returns the configuration the App was built with.
func (a *App) Config() *config.Config {
	return a.cfg
}

// recordAgent stores LLM usage. Failures are logged, never returned.
func (a *App) recordAgent(ctx context.Context, meta shared.AgentMeta) {
	a.collectors.ObserveAgent(meta)
	if err := a.metricsStore.RecordMeta(ctx, meta); err != nil {
		a.log.Warn("failed to record agent metrics", zap.String("agent", meta.AgentName), zap.Error(err))
	}
}

// SavePlan stores a weekly meal plan, replacing the user's plan for that
// week. Unknown recipe IDs are rejected.
func (a *App) SavePlan(ctx context.Context, plan *planner.MealPlan) error {
	plan.WeekStart = planner.WeekStartOf(plan.WeekStart)

	known, err := a.recipeRepo.GetByIDs(ctx, plan.RecipeIDs())
	if err != nil {
		return err
	}
	for i, meal := range plan.Meals {
		rec, ok := known[meal.RecipeID]
		if !ok {
			return fmt.Errorf("meal %d references recipe %q: %w", i, meal.RecipeID, ErrNotFound)
		}
		if plan.Meals[i].RecipeTitle == "" {
			plan.Meals[i].RecipeTitle = rec.Title
		}
	}
	return a.planRepo.Save(ctx, plan)
}

// HasPlan reports whether the user has a meal plan for the week of weekStart.
func (a *App) HasPlan(ctx context.Context, userID string, weekStart time.Time) (bool, error) {
	return a.planRepo.ExistsForWeek(ctx, userID, planner.WeekStartOf(weekStart))
}

// RecentPlans returns the user's latest meal plans, newest week first.
func (a *App) RecentPlans(ctx context.Context, userID string, limit int) ([]planner.MealPlan, error) {
	return a.planRepo.ListRecentByUserID(ctx, userID, limit)
}

// UsageReport returns LLM token usage for the last days.
func (a *App) UsageReport(ctx context.Context, days int) ([]metrics.DailyUsage, error) {
	return a.metricsStore.GetDailyUsage(ctx, days)
}

// CleanupMetrics deletes LLM usage records older than days.
func (a *App) CleanupMetrics(ctx context.Context, days int) (int64, error) {
	n, err := a.metricsStore.Cleanup(ctx, days)
	if err != nil {
		return 0, err
	}
	a.log.Info("cleaned up execution metrics", zap.Int64("deleted", n), zap.Int("older_than_days", days))
	return n, nil
}
