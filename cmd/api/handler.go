package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	accountUsecase "unibox-backend/internal/account/usecase"
	authUsecase "unibox-backend/internal/auth/usecase"
	recordUsecase "unibox-backend/internal/record/usecase"
	"unibox-backend/pkg/config"
	"unibox-backend/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

type Handler struct {
	authUsecase    authUsecase.AuthUsecase
	accountUsecase accountUsecase.AccountUsecase
	eventUsecase   recordUsecase.RecordUsecase
	emailUsecase   recordUsecase.RecordUsecase
	limiter        *ratelimit.Store
	config         *config.Config
	log            *zap.Logger
}

func NewHandler(
	authUc authUsecase.AuthUsecase,
	accountUc accountUsecase.AccountUsecase,
	eventUc recordUsecase.RecordUsecase,
	emailUc recordUsecase.RecordUsecase,
	cfg *config.Config,
	log *zap.Logger,
) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		authUsecase:    authUc,
		accountUsecase: accountUc,
		eventUsecase:   eventUc,
		emailUsecase:   emailUc,
		limiter:        ratelimit.NewStore(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute),
		config:         cfg,
		log:            log.Named("http"),
	}
}

// Engine builds the gin engine with middleware and every route.
func (h *Handler) Engine() *gin.Engine {
	if h.config.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger(), cors())

	SetupRoutes(r, h)
	return r
}

// Serve runs the HTTP server until ctx is done, then shuts it down
// gracefully. A listen failure is returned instead of exiting so the caller
// still runs its cleanup.
func (h *Handler) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		h.log.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
		h.log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if userID := c.GetString("userID"); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			h.log.Error("request", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			h.log.Warn("request", fields...)
		default:
			h.log.Debug("request", fields...)
		}
	}
}
