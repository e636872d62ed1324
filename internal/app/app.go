package app

import (
	"fmt"
	"net/http"

	"mess-manager-go/internal/auth"
	"mess-manager-go/internal/config"
	"mess-manager-go/internal/db"
	messdomain "mess-manager-go/internal/domain/mess"
	userdomain "mess-manager-go/internal/domain/user"
	"mess-manager-go/internal/repository/inmemory"
	messrepo "mess-manager-go/internal/repository/postgres/mess"
	userrepo "mess-manager-go/internal/repository/postgres/user"
	"mess-manager-go/internal/transport/httpserver"
	"mess-manager-go/internal/transport/httpserver/handler"
	"mess-manager-go/pkg/logger"

	"gorm.io/gorm"
)

type App struct {
	cfg        config.Config
	httpServer *http.Server
	db         *gorm.DB
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg := config.Load(log)

	var (
		messes messdomain.Repository
		users  userdomain.Repository
		dbConn *gorm.DB
	)

	switch cfg.Backend {
	case config.BackendMemory:
		log.Info("app: using in-memory backend")
		messes = inmemory.NewMessRepository()
		users = inmemory.NewUserRepository()
	case config.BackendPostgres:
		log.Info("app: initializing database")
		conn, err := db.NewPostgres(cfg.DB, log)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := db.Migrate(conn); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		dbConn = conn
		messes = messrepo.NewPostgres(conn)
		users = userrepo.NewPostgres(conn)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	tokens := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TokenTTL)

	log.Info("app: initializing router")
	handlers := handler.New(messdomain.NewService(messes), userdomain.NewService(users), tokens, log)
	router := httpserver.NewRouter(cfg, handlers, tokens)

	log.Info("app: initializing http server")
	srv := httpserver.New(cfg, router)

	return &App{
		cfg:        cfg,
		httpServer: srv,
		db:         dbConn,
	}, nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
