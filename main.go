package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"geochat-service/internal/cache"
	"geochat-service/internal/config"
	"geochat-service/internal/db"
	"geochat-service/internal/handlers"
	"geochat-service/internal/location"
	"geochat-service/internal/middleware"
	"geochat-service/internal/observability"
	"geochat-service/internal/poll"
	"geochat-service/internal/rabbitmq"
	"geochat-service/internal/repositories"
	"geochat-service/internal/telemetry"
)

const (
	serviceName = "geochat-service"

	sweepInterval      = time.Minute
	presenceStaleAfter = 5 * time.Minute
	shareStaleAfter    = 2 * time.Minute

	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.OTLPEndpoint, serviceName, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	presence := cache.NewPresence(cfg.RedisAddr)
	defer presence.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	emitter := telemetry.NewEmitter(publisher, serviceName, cfg.Environment)

	userRepo := repositories.NewUserRepo(database)
	chatRequestRepo := repositories.NewChatRequestRepo(database)
	conversationRepo := repositories.NewConversationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	liveLocationRepo := repositories.NewLiveLocationRepo(database)

	tracker := location.NewTracker(userRepo, liveLocationRepo, location.RemoteSource{})
	defer tracker.StopAll()

	userHandler := handlers.NewUserHandler(userRepo, presence)
	chatRequestHandler := handlers.NewChatRequestHandler(chatRequestRepo, emitter)
	conversationHandler := handlers.NewConversationHandler(conversationRepo, messageRepo, emitter)
	liveLocationHandler := handlers.NewLiveLocationHandler(tracker, liveLocationRepo, emitter)
	sharingHandler := handlers.NewSharingHandler(userRepo, tracker, emitter)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(middleware.NewRateLimiter(cfg.RateLimitRPM, cfg.RateLimitBurst).Middleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/users", userHandler.Create)
	router.GET("/users", userHandler.List)
	router.GET("/users/:id", userHandler.Get)
	router.PUT("/users/:id", userHandler.Update)
	router.GET("/users/search", userHandler.SearchByPIN)

	router.GET("/chat-requests", chatRequestHandler.List)
	router.POST("/chat-requests", chatRequestHandler.Create)
	router.PUT("/chat-requests/:id", chatRequestHandler.Decide)

	router.GET("/conversations", conversationHandler.List)
	router.GET("/conversations/:id", conversationHandler.Get)
	router.PUT("/conversations/:id/read", conversationHandler.MarkRead)
	router.GET("/conversations/:id/messages", conversationHandler.ListMessages)
	router.POST("/conversations/:id/messages", conversationHandler.SendMessage)
	router.PUT("/conversations/:id/messages/read", conversationHandler.MarkMessagesRead)

	router.GET("/live-locations", liveLocationHandler.List)
	router.POST("/live-locations", liveLocationHandler.Start)
	router.PUT("/live-locations", liveLocationHandler.Update)
	router.DELETE("/live-locations", liveLocationHandler.Stop)

	router.POST("/location-sharing/request", sharingHandler.Request)
	router.POST("/location-sharing/accept", sharingHandler.Accept)
	router.POST("/location-sharing/reject", sharingHandler.Reject)
	router.GET("/location-sharing/state", sharingHandler.State)

	presenceSweep := poll.Every(ctx, sweepInterval, func(ctx context.Context) {
		if count, err := userRepo.MarkStaleOffline(ctx, presenceStaleAfter); err != nil {
			log.Printf("presence sweep failed: %v", err)
		} else if count > 0 {
			log.Printf("marked %d stale users offline", count)
		}
	})
	defer presenceSweep.Stop()

	shareSweep := poll.Every(ctx, sweepInterval, func(ctx context.Context) {
		if count, err := liveLocationRepo.DeactivateStale(ctx, shareStaleAfter); err != nil {
			log.Printf("live location sweep failed: %v", err)
		} else if count > 0 {
			log.Printf("deactivated %d stale live locations", count)
		}
	})
	defer shareSweep.Stop()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Printf("tracer shutdown: %v", err)
	}
}
