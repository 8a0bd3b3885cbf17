package main

import (
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/codema-digital/voting-engine/cliparse"
	"github.com/codema-digital/voting-engine/db"
	"github.com/codema-digital/voting-engine/middleware"
	"github.com/codema-digital/voting-engine/notify"
	"github.com/codema-digital/voting-engine/realtime"
	"github.com/codema-digital/voting-engine/router"
	"github.com/codema-digital/voting-engine/session"
	"github.com/codema-digital/voting-engine/store"
)

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Connect to the database
	driver := "sqlite"
	if cfg.DatabaseType == "postgres" {
		driver = "postgres"
	}
	dbConn, err := sql.Open(driver, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Verify connection
	if err := dbConn.Ping(); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready")

	// Event bus: redis when configured, in-process otherwise
	var bus realtime.Bus
	if cfg.RedisAddr != "" {
		bus, err = realtime.NewRedisBus(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			slog.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Event bus ready", "backend", "redis", "addr", cfg.RedisAddr)
	} else {
		bus = realtime.NewMemoryBus()
		slog.Info("Event bus ready", "backend", "memory")
	}
	defer bus.Close()

	// Notification dispatch: kafka when configured
	var notifier notify.Notifier = notify.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kn := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kn.Close()
		notifier = kn
		slog.Info("Notification dispatch ready", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	st := store.New(dbConn)
	monitor := realtime.NewMonitor(st, bus, notifier)
	defer monitor.Stop()

	svc := session.NewService(st, bus, monitor, cfg.AuditHashSalt)

	// Create router
	mux := router.NewRouter(svc)

	// Create server
	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}
