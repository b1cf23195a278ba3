package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"quorum/internal/platform/config"
	"quorum/internal/platform/logger"
	"quorum/internal/platform/store"

	"quorum/internal/core/version"
	"quorum/internal/modkit"
	"quorum/internal/services/api"
	bgmod "quorum/internal/services/buyergroups/module"
	"quorum/internal/services/runlog"
)

func main() {
	root := config.New()
	apiCfg := root.Prefix("QUORUM_API_")
	pgCfg := root.Prefix("QUORUM_PGSQL_")
	chCfg := root.Prefix("QUORUM_CLICKHOUSE_")

	l := logger.Get()

	st, err := store.Open(
		context.Background(),
		store.Config{
			AppName: "quorum-api",
			PG: store.PGConfig{
				Enabled:     true,
				URL:         pgCfg.MustString("DBURL"),
				MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
				SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
				LogSQL:      pgCfg.MayBool("LOG_SQL", false),
			},
			CH: store.CHConfig{
				Enabled:   chCfg.MayBool("ENABLED", false),
				URL:       chCfg.MayString("DBURL", ""),
				ClientTag: version.Info().Version,
			},
		},
		store.WithLogger(*l),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	deps := modkit.Deps{Cfg: root, PG: st.PG, CH: st.CH, Log: *l}
	groups := bgmod.New(deps)

	router := api.NewRouter(api.Options{
		ServiceName:    "quorum-api",
		Groups:         groups.Ports().(bgmod.Ports).Store,
		Runs:           runlog.New(st.CH),
		AllowedOrigins: apiCfg.MayCSV("CORS_ORIGINS", nil),
	})

	srv := &http.Server{
		Addr:              apiCfg.MayString("ADDR", ":8080"),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	l.Info().Str("addr", srv.Addr).Msg("api listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
