package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"netloc/internal/config"
	"netloc/internal/logger"
	"netloc/internal/metrics"
	"netloc/internal/notify"
	"netloc/internal/reconciler"
	"netloc/internal/resolver"
	"netloc/internal/server"
	"netloc/internal/server/api"
	"netloc/internal/supervisor"
	"netloc/internal/version"

	"go.uber.org/zap"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.showVersion {
		fmt.Println(version.GetInfo().String())
		return 0
	}

	cfg, err := config.Load(opts.configPath, opts.overrides)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	log, err := logger.New(&cfg.Log)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer func(log *zap.Logger) {
		_ = log.Sync()
	}(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting netloc",
		zap.String("version", version.GetInfo().Version),
		zap.String("resolver", cfg.Resolver.URL),
		zap.Duration("delay", cfg.Delay),
		zap.String("on_failure", cfg.OnFailure))

	reporters, conns, err := notify.Build(ctx, &cfg.Notify, log)
	if err != nil {
		log.Error("Failed to initialize reporters", zap.Error(err))
		return 1
	}
	defer func() {
		if err := conns.Close(); err != nil {
			log.Warn("Failed to close connections", zap.Error(err))
		}
	}()

	recorder := metrics.NewRecorder()

	if cfg.Status.Enabled {
		router := api.NewRouter(recorder, cfg.Log.Level == "debug", log, api.WithHealthCheck(conns.Ping))
		srv := server.New(cfg.Status.Addr, router.Handler(), log)
		if err := srv.Start(); err != nil {
			log.Error("Failed to start status server", zap.Error(err))
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("Status server shutdown error", zap.Error(err))
			}
		}()
	}

	family, err := resolver.ParseFamily(cfg.Resolver.AddressFamily)
	if err != nil {
		log.Error("Invalid address family", zap.Error(err))
		return 1
	}
	res := resolver.NewHTTP(cfg.Resolver.URL,
		resolver.WithHTTPClient(resolver.NewClient(family, cfg.Resolver.Timeout)),
		resolver.WithMaxBodySize(cfg.Resolver.MaxBodySize),
		resolver.WithLogger(log.Named("resolver")))

	factory := func() supervisor.Runner {
		return reconciler.New(cfg.Delay, res, reporters,
			reconciler.WithLogger(log),
			reconciler.WithObserver(recorder))
	}

	sup := supervisor.New(factory,
		supervisor.WithRestartDelay(cfg.RestartDelay),
		supervisor.WithPolicy(supervisor.Policy(cfg.OnFailure)),
		supervisor.WithObserver(recorder),
		supervisor.WithLogger(log))

	err = sup.Run(ctx)
	if ctx.Err() != nil {
		log.Info("Shutdown complete")
		return 0
	}

	log.Error("Exiting after fatal error", zap.Error(err))
	return 1
}
