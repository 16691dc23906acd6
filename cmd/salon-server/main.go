// Package main is the entry point for the salon tycoon game server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/BizSimLabs/SalonTycoon/server/internal/config"
	"github.com/BizSimLabs/SalonTycoon/server/internal/engine"
	"github.com/BizSimLabs/SalonTycoon/server/internal/events"
	"github.com/BizSimLabs/SalonTycoon/server/internal/game"
	"github.com/BizSimLabs/SalonTycoon/server/internal/infra/storage"
	"github.com/BizSimLabs/SalonTycoon/server/internal/network"
	"github.com/BizSimLabs/SalonTycoon/server/internal/platform/logger"
	"github.com/BizSimLabs/SalonTycoon/server/internal/platform/metrics"
	"github.com/BizSimLabs/SalonTycoon/server/internal/platform/optimization"
)

// LedgerPersisterAdapter translates domain events to ledger events.
type LedgerPersisterAdapter struct {
	repo      storage.LedgerRepository
	sessionID string
}

func (a *LedgerPersisterAdapter) Append(event events.GameEvent) error {
	payloadBytes, _ := json.Marshal(event.Payload)
	var payloadMap map[string]interface{}
	json.Unmarshal(payloadBytes, &payloadMap)

	ledgerEvent := storage.LedgerEvent{
		ID:        event.ID,
		SessionID: a.sessionID,
		Timestamp: event.Timestamp,
		EventType: string(event.Type),
		ActorID:   event.ActorID,
		TargetID:  event.TargetID,
		Payload:   payloadMap,
		Month:     event.Month,
	}

	started := time.Now()
	err := a.repo.Append(context.Background(), ledgerEvent)
	metrics.Get().RecordEventWrite(time.Since(started), err)
	return err
}

// seedConfigStore loads the balance sheet into the definition store on first
// boot so the admin tooling has documents to edit.
func seedConfigStore(ctx context.Context, repo *storage.SQLiteConfigRepository, cfg *config.GameConfig, appLogger *logger.Logger) {
	appLogger.Info("Checking DB for existing definitions...")
	existing, err := repo.List(ctx, storage.KindIndustry)
	if err != nil {
		appLogger.Error("Failed to query definition store: " + err.Error())
		return
	}
	if len(existing) > 0 {
		appLogger.Info("Definition store already seeded.")
		return
	}

	appLogger.Info("Definition store empty. Seeding from balance sheet...")
	upsert := func(kind storage.DefinitionKind, id, name string, doc interface{}) {
		raw, _ := json.Marshal(doc)
		var docMap map[string]interface{}
		json.Unmarshal(raw, &docMap)
		if err := repo.Upsert(ctx, storage.Definition{Kind: kind, ID: id, Name: name, Doc: docMap}); err != nil {
			appLogger.Error("Failed to seed definition " + id + ": " + err.Error())
		}
	}

	upsert(storage.KindIndustry, cfg.Industry.ID, cfg.Industry.Name, cfg.Industry)
	for _, role := range cfg.StaffRoles {
		upsert(storage.KindStaffRole, role.ID, role.Name, role)
	}
	for _, up := range cfg.Upgrades {
		upsert(storage.KindUpgrade, up.ID, up.Name, up)
	}
	for _, camp := range cfg.Campaigns {
		upsert(storage.KindCampaign, camp.ID, camp.Name, camp)
	}
}

func main() {
	configPath := flag.String("config", "", "Path to a YAML balance sheet (defaults to the built-in hair salon)")
	dbPath := flag.String("db", "salon.db", "Path to the SQLite database")
	pgDSN := flag.String("pg-dsn", "", "Postgres DSN for the outcome ledger (SQLite when empty)")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	lowResource := flag.Bool("low-resource", false, "Tune buffers for constrained hosts")
	flag.Parse()

	log.Println("[SALON-SERVER] Initializing authoritative simulation server...")

	appLogger := logger.NewLogger()

	var cfg *config.GameConfig
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			appLogger.Error("Failed to load config: " + err.Error())
			os.Exit(1)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		appLogger.Error("Invalid config: " + err.Error())
		os.Exit(1)
	}

	opt := optimization.DefaultConfig()
	if *lowResource {
		opt = optimization.LowResourceConfig()
	}

	appLogger.Info("Initializing SQLite database '" + *dbPath + "'...")
	db, err := storage.InitSQLite(*dbPath)
	if err != nil {
		appLogger.Error("Failed to initialize SQLite: " + err.Error())
		os.Exit(1)
	}
	db.SetMaxOpenConns(opt.DBMaxOpenConns)
	db.SetMaxIdleConns(opt.DBMaxIdleConns)

	sessionID := uuid.NewString()
	appLogger.Info("Starting session " + sessionID)

	var ledgerRepo storage.LedgerRepository = storage.NewSQLiteLedgerRepository(db)
	if *pgDSN != "" {
		appLogger.Info("Connecting outcome ledger to Postgres...")
		pgDB, err := storage.InitPostgres(*pgDSN)
		if err != nil {
			appLogger.Error("Failed to initialize Postgres ledger: " + err.Error())
			os.Exit(1)
		}
		defer pgDB.Close()
		pgDB.SetMaxOpenConns(opt.DBMaxOpenConns)
		pgDB.SetMaxIdleConns(opt.DBMaxIdleConns)
		ledgerRepo = storage.NewPostgresLedgerRepository(pgDB)
	}
	persister := &LedgerPersisterAdapter{repo: ledgerRepo, sessionID: sessionID}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	configRepo := storage.NewSQLiteConfigRepository(db)
	seedConfigStore(ctx, configRepo, cfg, appLogger)

	appLogger.Info("Bootstrapping session for industry '" + cfg.Industry.Name + "'...")
	session := game.NewSession(cfg, appLogger, persister)

	ticker := engine.NewTicker(session, cfg.Stats.TicksPerSecond, appLogger)
	go ticker.Start(ctx)

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(session, opt, appLogger)
	go hub.Run(ctx)
	hub.StartEventPoller(ctx, session.EventLog())
	hub.StartFramePusher(ctx)

	reporter := storage.NewReporter(ledgerRepo)
	spectator := network.NewSpectatorBridge(session, sessionID, reporter, hub, appLogger)
	replay := network.NewReplayHandler(session.EventLog(), appLogger)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, w, r, appLogger)
	})
	spectator.RegisterRoutes(mux)
	replay.RegisterRoutes(mux)
	mux.HandleFunc("/metrics", metrics.Handler())
	mux.HandleFunc("/metrics/prometheus", metrics.PrometheusHandler())

	server := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		log.Println("[SALON-SERVER] HTTP API & WS Server listening on " + *addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Println("[SALON-SERVER] Server running. Press Ctrl+C to exit.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[SALON-SERVER] Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown error: " + err.Error())
	}
	if err := db.Close(); err != nil {
		appLogger.Error("DB close error: " + err.Error())
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow cross-origin requests for the web client dev server
	},
}

// serveWs handles websocket requests from the peer.
func serveWs(hub *network.Hub, w http.ResponseWriter, r *http.Request, log *logger.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade websocket connection")
		return
	}

	client := network.NewClient(hub, conn)
	client.Register()

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.WritePump()
	go client.ReadPump()
}
