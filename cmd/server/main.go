package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/titanaprilian/authguard/internal/config"
	"github.com/titanaprilian/authguard/internal/events"
	"github.com/titanaprilian/authguard/internal/httpserver"
	"github.com/titanaprilian/authguard/internal/middleware"
	"github.com/titanaprilian/authguard/internal/repo"
	"github.com/titanaprilian/authguard/internal/search"
	"github.com/titanaprilian/authguard/internal/service"
	"github.com/titanaprilian/authguard/pkg/logging"
	"github.com/titanaprilian/authguard/pkg/tokens"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.New(cfg.LOG_LEVEL)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	var producer *events.Producer
	if cfg.KAFKA_ADDRESS != "" {
		producer = events.NewProducer(strings.Split(cfg.KAFKA_ADDRESS, ","), cfg.KAFKA_TOPIC)
		defer producer.Close()
	}

	var indexer *search.AuditIndexer
	if cfg.ES_URL != "" {
		es, err := search.NewClient(cfg.ES_URL, cfg.ES_USER, cfg.ES_PASSWORD)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		indexer = &search.AuditIndexer{ES: es, Index: cfg.ES_INDEX}
	}

	gormRepo := &repo.GormRepo{DB: db}
	codec := &tokens.Codec{
		AccessSecret:  []byte(cfg.JWT_SECRET),
		RefreshSecret: []byte(cfg.REFRESH_SECRET),
		AccessTTL:     cfg.ACCESS_TTL,
		RefreshTTL:    cfg.REFRESH_TTL,
	}

	authSvc := &service.AuthService{
		Repo:        gormRepo,
		Codec:       codec,
		Producer:    producer,
		Audit:       indexer,
		DefaultRole: cfg.DEFAULT_ROLE,
	}
	rbacSvc := &service.RBACService{
		Repo:     gormRepo,
		Producer: producer,
		Audit:    indexer,
	}
	userSvc := &service.UserService{Repo: gormRepo}

	e := echo.New()
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(middleware.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		Auth:  &httpserver.AuthHTTP{Svc: authSvc},
		Users: &httpserver.UserHTTP{Svc: userSvc},
		RBAC:  &httpserver.RBACHTTP{Svc: rbacSvc},
		Audit: &httpserver.AuditHTTP{Indexer: indexer},
		Gate: &middleware.Gate{
			Codec: codec,
			Auth:  authSvc,
			RBAC:  rbacSvc,
		},
	})

	go func() {
		if err := e.Start(cfg.SERVER_ADDRESS); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
}
