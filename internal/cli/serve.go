package cli

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"scriptura/internal/authclient"
	"scriptura/internal/contentclient"
	"scriptura/internal/localstore"
	"scriptura/internal/ratelimit"
	"scriptura/internal/seed"
	"scriptura/internal/server"
	"scriptura/internal/session"
	"scriptura/internal/topiccache"
	"scriptura/internal/util"
	"scriptura/pkg/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the content access HTTP server",
		Run:   runServe,
	}
	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, _ []string) {
	cfg := loadConfig()
	logger := util.InitLogger(cfg.LogLevel)

	if err := seed.EnsureDatabase(cmd.Context(), cfg.LocalDBPath, seedResolver(cfg)); err != nil {
		exitErr("seed local database", err)
	}
	local, err := localstore.Open(cfg.LocalDBPath)
	if err != nil {
		exitErr("open local store", err)
	}
	defer local.Close()

	var kv store.KV = store.NewMemoryKV()
	if cfg.RedisAddr != "" {
		kv = store.NewRedisKV(cfg.RedisAddr, cfg.RedisPassword, "scriptura")
	}

	topics := topiccache.New(contentclient.NewClient(cfg.ContentServiceURL), local, kv, cfg.Language)
	coordinator := session.New(kv, authclient.NewClient(cfg.AuthServiceURL))

	var limiter *ratelimit.FixedWindowLimiter
	if cfg.RefreshRateLimitPerMinute > 0 {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		limiter, err = ratelimit.NewFixedWindowLimiter(client, "scriptura:ratelimit", cfg.RefreshRateLimitPerMinute, time.Minute)
		if err != nil {
			exitErr("init refresh rate limiter", err)
		}
	}

	httpServer := server.New(server.Config{
		Topics:         topics,
		Session:        coordinator,
		RefreshLimiter: limiter,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("scriptura server listening", "addr", addr, "language", cfg.Language)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
