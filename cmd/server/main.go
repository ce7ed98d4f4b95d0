package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lhwang/riverchat/internal/cache"
	"github.com/lhwang/riverchat/internal/config"
	"github.com/lhwang/riverchat/internal/domain"
	"github.com/lhwang/riverchat/internal/handler"
	"github.com/lhwang/riverchat/internal/hub"
	"github.com/lhwang/riverchat/internal/middleware"
	"github.com/lhwang/riverchat/internal/repository"
	"github.com/lhwang/riverchat/internal/service"
	"github.com/lhwang/riverchat/pkg/database"
	"github.com/lhwang/riverchat/pkg/log"
	"github.com/lhwang/riverchat/pkg/token"
)

const serviceName = "riverchat"

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := log.L()
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Init(log.Config{
		Level:       cfg.Log.Level,
		ServiceName: serviceName,
	})
	l := log.L()

	l.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("starting riverchat")

	// Database
	db, err := database.New(&database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		l.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.AutoMigrate(db,
		&domain.UserModel{},
		&domain.ChannelModel{},
		&domain.ChatMessageModel{},
	); err != nil {
		l.Fatal().Err(err).Msg("failed to migrate database")
	}
	l.Info().Str("driver", cfg.Database.Driver).Msg("database ready")

	// Redis channel cache
	channelCache, err := cache.NewRedisChannelCache(cfg.Redis, cfg.Cache.Prefix)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer channelCache.Close()
	l.Info().Str("address", cfg.Redis.Address).Msg("redis ready")

	// Token manager
	tokens, err := token.NewManager(cfg.Auth.Secret, cfg.Auth.AccessDuration, cfg.Auth.RefreshDuration, cfg.Auth.Issuer)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to create token manager")
	}

	// Repositories
	userRepo := repository.NewGormUserRepository(db)
	channelRepo := repository.NewGormChannelRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)

	// Services
	userSvc := service.NewUserService(userRepo, tokens)
	channelSvc := service.NewChannelService(channelRepo, messageRepo, userRepo, channelCache, cfg.Cache.TTL)

	// Hub
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wsHub := hub.NewHub()
	go wsHub.Run(ctx)

	chatSvc := service.NewChatService(wsHub, messageRepo, channelSvc)

	// HTTP + WebSocket handlers
	authMiddleware := middleware.NewAuthMiddleware(tokens)
	httpHandler := handler.NewHandler(userSvc, channelSvc, authMiddleware)
	wsHandler := handler.NewWSHandler(wsHub, chatSvc, tokens, cfg.WebSocket)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(log.GinMiddleware(l))

	httpHandler.RegisterRoutes(r)
	wsHandler.RegisterRoutes(r)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		l.Info().Str("addr", server.Addr).Msg("riverchat listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("server error")
		}
	}()

	// Periodically drop stale token revocations.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tokens.CleanupExpiredRevocations()
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("forced shutdown")
	}

	l.Info().Msg("riverchat stopped")
}
