package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"shortlink.local/internal/app/shortlink"
	slcache "shortlink.local/internal/app/shortlink/cache"
	"shortlink.local/internal/app/shortlink/client"
	"shortlink.local/internal/app/shortlink/cliapi"
	"shortlink.local/internal/app/shortlink/clipboard"
	"shortlink.local/internal/app/shortlink/events"
	"shortlink.local/internal/app/shortlink/slot"
	platformcache "shortlink.local/internal/platform/cache"
	"shortlink.local/internal/platform/config"
	"shortlink.local/internal/platform/db"
	"shortlink.local/internal/platform/metrics"
	"shortlink.local/internal/platform/migrate"
	"shortlink.local/internal/platform/ratelimit"
	"shortlink.local/internal/platform/trace"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	os.Exit(run())
}

// run 里用 defer 做清理，main 拿到退出码后再 os.Exit。
func run() int {
	cfg := config.Load()

	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h).With("service", cfg.ServiceName))
	slog.Debug("starting", "version", version, "commit", commit, "build_time", buildTime)

	metrics.Init()
	if cfg.PushgatewayURL != "" {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := metrics.Push(ctx, cfg.PushgatewayURL, cfg.ServiceName); err != nil {
				slog.Warn("metrics push failed", "err", err, "url", cfg.PushgatewayURL)
			}
		}()
	}

	if cfg.TracingEnabled {
		shutdown := trace.InitTrace(cfg.OtlpGrpcEndpoint, cfg.OtlpServiceName, version)
		if shutdown == nil {
			slog.Error("Trace init failed")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					slog.Error(err.Error())
				}
			}()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//Redis：redis 存储或开启限流时才连接
	var redisClient *redis.Client
	if cfg.HistoryBackend == "redis" || cfg.RateLimitEnabled {
		rc, err := platformcache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			if cfg.HistoryBackend == "redis" {
				fmt.Fprintln(os.Stderr, err)
				return cliapi.ExitError
			}
			slog.Warn("redis unavailable, rate limit disabled", "err", err)
		} else {
			redisClient = rc
			defer redisClient.Close()
		}
	}

	//历史存储
	app := &cliapi.App{Out: os.Stdout, Err: os.Stderr}
	var store slot.Slot
	switch cfg.HistoryBackend {
	case "file":
		fileSlot, err := slot.NewFileSlot(cfg.HistoryFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return cliapi.ExitError
		}
		store = fileSlot
	case "sqlite":
		sqliteSlot, err := slot.OpenSQLiteSlot(ctx, cfg.HistorySQLite, cfg.HistoryKey)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return cliapi.ExitError
		}
		defer sqliteSlot.Close()
		store = sqliteSlot
	case "redis":
		store = slot.NewRedisSlot(redisClient, cfg.HistoryKey)
	case "postgres":
		dbCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		dbPool, err := db.New(dbCtx, cfg.DBDSN)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return cliapi.ExitError
		}
		defer dbPool.Close()
		if err := dbPool.Ping(dbCtx); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return cliapi.ExitError
		}
		store = slot.NewPostgresSlot(dbPool, cfg.HistoryKey)
		app.Migrate = func(ctx context.Context) ([]string, error) {
			res, err := migrate.Up(ctx, dbPool, migrate.Options{FS: slot.Migrations, Dir: "migrations"})
			if err != nil {
				return nil, err
			}
			return res.AppliedFiles, nil
		}
	case "memory":
		store = slot.NewMemorySlot()
	default:
		fmt.Fprintf(os.Stderr, "unknown HISTORY_BACKEND %q (file, sqlite, redis, postgres, memory)\n", cfg.HistoryBackend)
		return cliapi.ExitError
	}
	history := shortlink.NewHistoryStore(store)
	if !isMigrate(os.Args) {
		history.Load(ctx)
	}

	//事件收集（根据配置选择 Channel 或 Kafka）
	var collector events.Collector
	var consumerDone chan struct{}
	if cfg.KafkaEnabled {
		slog.Debug("history events to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
		collector = events.NewKafkaCollector(cfg.KafkaBrokers, cfg.KafkaTopic)
	} else {
		channelCollector := events.NewChannelCollector(64)
		collector = channelCollector
		consumer := events.NewConsumer(channelCollector, events.LogSink)
		consumerDone = make(chan struct{})
		go func() {
			defer close(consumerDone)
			consumer.Run(context.Background())
		}()
	}
	defer func() {
		collector.Close()
		if consumerDone != nil {
			<-consumerDone
		}
	}()

	//限流
	var orchOpts []shortlink.Option
	if cfg.RateLimitEnabled && redisClient != nil {
		guard := ratelimit.NewGuard(ratelimit.NewLimiter(redisClient), cfg.HistoryKey, cfg.RateLimitLimit, cfg.RateLimitWindow)
		orchOpts = append(orchOpts, shortlink.WithThrottle(guard))
	}

	svc := client.New(cfg.ServiceURL, cfg.RequestTimeout)
	app.Session = shortlink.NewSession(shortlink.NewOrchestrator(svc, orchOpts...), history, collector)

	statsCache, err := slcache.NewStatsCache(64, 10*time.Second)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return cliapi.ExitError
	}
	defer statsCache.Close()
	app.Stats = shortlink.NewStatsLookup(svc, statsCache)
	// OSC 52 写到 stderr，stdout 被管道接走时也不混进输出
	app.Copier = clipboard.New(os.Stderr)

	return app.Run(ctx, os.Args[1:])
}

// migrate 时表可能还不存在，不去读历史。
func isMigrate(args []string) bool {
	return len(args) > 1 && args[1] == "migrate"
}
