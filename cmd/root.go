package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/engineermaster/internal/catalog"
	"github.com/abhisek/engineermaster/internal/config"
	"github.com/abhisek/engineermaster/internal/logger"
	"github.com/abhisek/engineermaster/internal/progression"
	"github.com/abhisek/engineermaster/internal/store"
)

var rootCmd = &cobra.Command{
	Use:           "engineermaster",
	Short:         "Skill trees and achievements for software engineers",
	Long:          "engineermaster tracks progress through engineering skill trees, awarding XP and achievements as nodes are completed.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the CLI with ctx available to every command.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Database path or DSN (overrides ENGINEERMASTER_DB env var)")
	rootCmd.PersistentFlags().String("driver", "", "Database driver: sqlite or postgres (overrides ENGINEERMASTER_DB_DRIVER)")
	rootCmd.PersistentFlags().String("catalog", "", "Catalog YAML file (overrides ENGINEERMASTER_CATALOG)")
	rootCmd.PersistentFlags().String("env-file", ".env", "Optional dotenv file with ENGINEERMASTER_* settings")
	rootCmd.PersistentFlags().String("user", "local", "Learner ID")

	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(nodeCmd)
	rootCmd.AddCommand(lessonCmd)
	rootCmd.AddCommand(achievementCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(xpCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the environment and applies flag overrides, flags
// having the highest priority.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DB = p
	}
	if d, _ := cmd.Flags().GetString("driver"); d != "" {
		cfg.DBDriver = d
	}
	if c, _ := cmd.Flags().GetString("catalog"); c != "" {
		cfg.Catalog = c
	}
	return cfg, cfg.Validate()
}

func userID(cmd *cobra.Command) (string, error) {
	u, _ := cmd.Flags().GetString("user")
	if u == "" {
		return "", errors.New("--user must not be empty")
	}
	return u, nil
}

// env is what every data command needs.
type env struct {
	cfg   config.Config
	log   *logger.Logger
	db    *store.Store
	store store.ProgressStore
	svc   *progression.Service
}

func (e *env) Close() {
	e.db.Close()
	e.log.Sync()
}

// openEnv opens the configured store behind the retry decorator and seeds
// the catalog into an empty database.
func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	dsn, err := cfg.DSN()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	db, err := store.Open(cfg.DBDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	e := &env{
		cfg:   cfg,
		log:   log,
		db:    db,
		store: store.WithRetry(db, cfg.StoreRetry()),
	}
	e.svc = progression.NewService(e.store, cfg.Progression(), progression.WithLogger(log))

	trees, err := e.store.Trees(cmd.Context())
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("list trees: %w", err)
	}
	if len(trees) == 0 {
		c, err := loadCatalog(cfg.Catalog)
		if err != nil {
			e.Close()
			return nil, err
		}
		sum, err := catalog.Seed(cmd.Context(), e.store, c)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
		log.Info("seeded empty database", "trees", sum.Trees, "nodes", sum.Nodes, "achievements", sum.Achievements)
	}
	return e, nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}
