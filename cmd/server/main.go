package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akshayrajput12/thaughtScape-sub000/internal/auth"
	"github.com/akshayrajput12/thaughtScape-sub000/internal/call"
	"github.com/akshayrajput12/thaughtScape-sub000/internal/chat"
	"github.com/akshayrajput12/thaughtScape-sub000/internal/config"
	"github.com/akshayrajput12/thaughtScape-sub000/internal/middleware"
	"github.com/akshayrajput12/thaughtScape-sub000/internal/presence"
	"github.com/akshayrajput12/thaughtScape-sub000/internal/store"
	"github.com/akshayrajput12/thaughtScape-sub000/internal/user"
	"github.com/akshayrajput12/thaughtScape-sub000/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	config.LoadConfig(".env")
	if config.Cfg == nil {
		log.Fatal("Error: Configuration not loaded.")
	}

	log.Println("CampusCash Messaging Backend Starting...")

	dbCtx := context.Background()
	dbpool, err := pgxpool.New(dbCtx, config.Cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to create connection pool: %v\n", err)
	}
	defer dbpool.Close()

	if err = dbpool.Ping(dbCtx); err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	log.Println("Successfully connected to the database!")

	redisClient := redis.NewClient(&redis.Options{Addr: config.Cfg.RedisAddr})
	if err := redisClient.Ping(dbCtx).Err(); err != nil {
		log.Fatalf("Unable to connect to Redis at %s: %v\n", config.Cfg.RedisAddr, err)
	}
	defer redisClient.Close()
	log.Println("Successfully connected to Redis!")

	profileStore := store.NewPostgresProfileStore(dbpool)
	messageStore := store.NewPostgresMessageStore(dbpool)
	followStore := store.NewPostgresFollowStore(dbpool)
	callStore := store.NewPostgresCallStore(dbpool)

	presenceStore := presence.NewStore(redisClient, "campuscash", 5*time.Minute)

	wsHub := websocket.NewHub(messageStore, presenceStore)
	callRegistry := call.NewRegistry(wsHub, callStore, followStore, profileStore, config.Cfg.CallRingTimeout)
	wsHub.SetCallRegistry(callRegistry)
	go wsHub.Run()
	log.Println("WebSocket Hub initialized and running.")

	gate := chat.NewGate(config.Cfg.MessageRequestLimit)

	authHandler := auth.NewAuthHandler(profileStore)
	userHandler := user.NewUserHandler(profileStore)
	chatRestHandler := chat.NewRestHandler(messageStore, followStore, profileStore, callStore, presenceStore, gate, wsHub)
	wsHandler := websocket.NewWSHandler(wsHub)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.RedirectTrailingSlash = false
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "Upgrade", "Connection"}
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})

	r.GET("/ws", wsHandler.HandleWebSocketConnection)

	apiV1 := r.Group("/api/v1")
	{
		publicAuthRoutes := apiV1.Group("/auth")
		{
			publicAuthRoutes.POST("/register", authHandler.Register)
			publicAuthRoutes.POST("/login", authHandler.Login)
		}

		protected := apiV1.Group("/")
		protected.Use(middleware.RequireAuth())
		{
			protected.GET("/auth/me", authHandler.GetMe)

			protected.GET("/users/:id", userHandler.GetUserByID)
			protected.GET("/users", userHandler.SearchUsers)
			protected.GET("/users/:id/presence", chatRestHandler.GetPresence)
			protected.GET("/users/:id/composer", chatRestHandler.GetComposerState)
			protected.POST("/users/:id/follow", chatRestHandler.FollowUser)
			protected.POST("/users/:id/unfollow", chatRestHandler.UnfollowUser)
			protected.POST("/users/:id/block", chatRestHandler.BlockUser)
			protected.POST("/users/:id/unblock", chatRestHandler.UnblockUser)

			protected.GET("/messages", chatRestHandler.GetTranscript)
			protected.POST("/messages", chatRestHandler.SendMessage)
			protected.GET("/conversations", chatRestHandler.GetConversations)
			protected.POST("/requests/:senderId", chatRestHandler.DecideRequest)

			protected.GET("/calls", chatRestHandler.GetRecentCalls)
		}
	}

	srv := &http.Server{
		Addr:    ":" + config.Cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Printf("Listening and serving HTTP on :%s\n", config.Cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
