package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"kecarajocomer/internal/api"
	"kecarajocomer/internal/app"
	"kecarajocomer/internal/config"
	"kecarajocomer/internal/database"
	"kecarajocomer/internal/llm"
	"kecarajocomer/internal/logger"
	"kecarajocomer/internal/planner"
	"kecarajocomer/internal/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "kecarajocomer",
	Short:         "Weekly meal plans, pantry and shopping lists",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.NewFromEnv()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		log = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return database.RunMigrations(cfg.DatabasePath, log)
	},
}

var shoppingListCmd = &cobra.Command{
	Use:   "shopping-list",
	Short: "Generate the shopping list for a week's meal plan",
	Long: `Builds the shopping list from the user's meal plan, subtracting what is
already in the pantry, and prints it as JSON.

Example:
  kecarajocomer shopping-list --week 2024-05-13 --export`,
	RunE: runShoppingList,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest [preferences]",
	Short: "Ask the model for a recipe using what is in the pantry",
	RunE:  runSuggest,
}

var importCmd = &cobra.Command{
	Use:   "import [url]",
	Short: "Import a recipe from a web page",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var metricsCleanupCmd = &cobra.Command{
	Use:   "metrics-cleanup",
	Short: "Remove old metric records",
	RunE:  runMetricsCleanup,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API bearer token for a user",
	RunE:  runToken,
}

func init() {
	shoppingListCmd.Flags().String("user", "", "user ID (defaults to DEFAULT_USER_ID)")
	shoppingListCmd.Flags().String("week", "", "week start as YYYY-MM-DD (defaults to the current week)")
	shoppingListCmd.Flags().Bool("next", false, "use next week's plan")
	shoppingListCmd.Flags().Bool("export", false, "also write the list to the export directory")

	suggestCmd.Flags().String("user", "", "user ID (defaults to DEFAULT_USER_ID)")
	suggestCmd.Flags().Int("servings", 0, "number of servings")
	suggestCmd.Flags().Bool("save", false, "store the suggested recipe")

	metricsCleanupCmd.Flags().Int("days", 30, "keep records for the last N days")

	tokenCmd.Flags().String("user", "", "user ID (defaults to DEFAULT_USER_ID)")
	tokenCmd.Flags().Duration("ttl", 30*24*time.Hour, "token lifetime")

	rootCmd.AddCommand(migrateCmd, shoppingListCmd, suggestCmd, importCmd, metricsCleanupCmd, tokenCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newApp opens the database and the model client. The returned func
// releases both.
func newApp(ctx context.Context, withLLM bool) (*app.App, func(), error) {
	db, err := database.NewDB(cfg.DatabasePath, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	closers := []func() error{db.Close}

	exporter, err := storage.NewListStore(cfg.ExportDir)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to initialize export store: %w", err)
	}

	deps := app.Deps{DB: db.SQL, Exporter: exporter, Log: log}
	if withLLM {
		textGen, err := llm.NewTextGenerator(ctx, cfg, 0.4)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to initialize %s client: %w", cfg.LLMProvider, err)
		}
		deps.TextGen = textGen
		if c, ok := textGen.(llm.Closer); ok {
			closers = append(closers, c.Close)
		}
	}

	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn("failed to close resource", zap.Error(err))
			}
		}
	}
	return app.NewApp(cfg, deps), cleanup, nil
}

func userFlag(cmd *cobra.Command) string {
	if u, _ := cmd.Flags().GetString("user"); u != "" {
		return u
	}
	return cfg.DefaultUserID
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runShoppingList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	user := userFlag(cmd)

	week := planner.WeekStartOf(time.Now())
	if next, _ := cmd.Flags().GetBool("next"); next {
		week = planner.GetNextMonday(time.Now())
	}
	if s, _ := cmd.Flags().GetString("week"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			return fmt.Errorf("invalid --week %q: %w", s, err)
		}
		week = parsed
	}

	a, cleanup, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer cleanup()

	ok, err := a.HasPlan(ctx, user, week)
	if err != nil {
		return fmt.Errorf("failed to look up meal plan: %w", err)
	}
	if !ok {
		return fmt.Errorf("no meal plan for week %s, save one first", planner.WeekStartOf(week).Format("2006-01-02"))
	}

	stored, err := a.GenerateShoppingList(ctx, user, week)
	if err != nil {
		return fmt.Errorf("failed to generate shopping list: %w", err)
	}

	if export, _ := cmd.Flags().GetBool("export"); export {
		path, err := a.ExportShoppingList(ctx, user, week)
		if err != nil {
			return fmt.Errorf("failed to export shopping list: %w", err)
		}
		log.Info("shopping list exported", zap.String("path", path))
	}
	return printJSON(stored.List)
}

func runSuggest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	servings, _ := cmd.Flags().GetInt("servings")
	save, _ := cmd.Flags().GetBool("save")

	a, cleanup, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer cleanup()

	rec, err := a.SuggestRecipe(ctx, userFlag(cmd), strings.Join(args, " "), servings, save)
	if err != nil {
		return fmt.Errorf("suggestion failed: %w", err)
	}
	return printJSON(rec)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, cleanup, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer cleanup()

	rec, err := a.ImportRecipe(ctx, args[0])
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	return printJSON(rec)
}

func runMetricsCleanup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	days, _ := cmd.Flags().GetInt("days")

	a, cleanup, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer cleanup()

	affected, err := a.CleanupMetrics(ctx, days)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	fmt.Printf("Successfully removed %d old metric records.\n", affected)
	return nil
}

func runToken(cmd *cobra.Command, args []string) error {
	ttl, _ := cmd.Flags().GetDuration("ttl")
	token, err := api.IssueToken(cfg.JWTSecret, userFlag(cmd), ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
