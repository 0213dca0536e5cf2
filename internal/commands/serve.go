package commands

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"workforce/backend/foundation/web"
	"workforce/backend/internal/auth"
	"workforce/backend/internal/middleware"
	"workforce/backend/internal/router"
)

func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *RootOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	db, err := opts.openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			return errors.Wrap(err, "connecting to redis")
		}
	}

	a, err := auth.New(cfg.JWTKey)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	app := web.NewApp(opts.log, middleware.Logger(opts.log))

	opts.log.Printf("main : policy : bands %v debounce %s", cfg.Policy.Bands, cfg.Policy.DebounceWindow)

	return router.NewRouter(app, db, rdb, cfg.HTTPPort, a, cfg.Policy, cfg.CORSOrigins).Init(ctx)
}
