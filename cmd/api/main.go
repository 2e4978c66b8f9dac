package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/pretorsport/api/internal/auth"
	"github.com/pretorsport/api/internal/catalog"
	"github.com/pretorsport/api/internal/config"
	"github.com/pretorsport/api/internal/httpapi"
	"github.com/pretorsport/api/internal/obs"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	// Persistence. Without a DSN everything runs in memory, which keeps
	// local development and demos free of a database.
	var (
		db           *sql.DB
		accountStore auth.AccountStore = auth.NewMemoryStore()
		catalogStore catalog.Service   = catalog.NewInMemory()
		ready        httpapi.ReadyProbe
	)
	if cfg.PGDSN != "" {
		db, err = sql.Open("pgx", cfg.PGDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		accountStore = auth.NewPGStore(db)
		catalogStore = catalog.NewPGStore(db)
		ready = func(ctx context.Context) error { return db.PingContext(ctx) }
	}

	codec, err := auth.NewCodec(cfg.JWTSecret)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}
	svc, err := auth.NewService(accountStore, codec,
		auth.WithAccessTTL(cfg.AccessTTL),
		auth.WithRefreshTTL(cfg.RefreshTTL),
		auth.WithHasher(auth.NewHasher(cfg.BcryptCost)),
	)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	policy := httpapi.DefaultPolicy()
	authn := httpapi.NewAuthenticator(svc, policy, cfg.AuthCacheTTL)

	opts := []httpapi.Option{
		httpapi.WithBuildInfo(version, commit),
		httpapi.WithCatalog(catalogStore),
	}
	if ready != nil {
		opts = append(opts, httpapi.WithReadyProbe(ready))
	}
	api := httpapi.New(svc, authn, policy, opts...)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting pretorsport-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
