package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/FabricioLanche/campus-room/internal/api/handlers"
	"github.com/FabricioLanche/campus-room/internal/api/middleware"
	"github.com/FabricioLanche/campus-room/internal/captcha"
	"github.com/FabricioLanche/campus-room/internal/config"
	"github.com/FabricioLanche/campus-room/internal/services"
	"github.com/FabricioLanche/campus-room/internal/storage"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, taskClient handlers.IAsynqClient) *gin.Engine {
	userService := services.NewUserService(db, cfg)
	listingService := services.NewListingService(db, cfg)
	dealService := services.NewDealService(db, cfg)
	chatService := services.NewChatService(db, cfg, dealService)

	s3StorageService, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatalf("CRITICAL: Failed to initialize S3 storage for API: %v", err)
	}

	captchaVerifier := captcha.NewTurnstileVerifier(cfg)

	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.CaptchaMiddleware(cfg, captchaVerifier))
	r.Use(rateLimiter.Limit())

	restAuthHandler := handlers.NewRestAuthHandler(cfg, userService)
	restLocationHandler := handlers.NewRestLocationHandler()
	restListingHandler := handlers.NewRestListingHandler(cfg, listingService, dealService, userService, s3StorageService, taskClient)
	restChatHandler := handlers.NewRestChatHandler(cfg, chatService, listingService, userService, taskClient)
	restDealHandler := handlers.NewRestDealHandler(dealService, userService, taskClient)

	v1 := r.Group("/v1")
	{
		handlers.RegisterRestAuthRoutes(v1, restAuthHandler)
		handlers.RegisterRestLocationRoutes(v1, restLocationHandler)
		handlers.RegisterRestListingRoutes(v1, restListingHandler)

		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			handlers.RegisterRestAuthProtectedRoutes(authRequired, restAuthHandler)
			handlers.RegisterRestChatRoutes(authRequired, restChatHandler)
			handlers.RegisterRestDealRoutes(authRequired, restDealHandler)
		}

		landlordRequired := v1.Group("/")
		landlordRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret), middleware.LandlordMiddleware())
		{
			handlers.RegisterRestListingAuthRoutes(landlordRequired, restListingHandler)
		}

		adminRequired := v1.Group("/admin")
		adminRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret), middleware.AdminMiddleware())
		{
			adminRequired.POST("/reset", restListingHandler.ResetData)
		}
	}

	return r
}

// SetupServiceRouter configures and returns the service Gin engine,
// bound to a second port. It exposes process control and the mock
// email poller used by end-to-end tests.
func SetupServiceRouter(cfg *config.Config, rdb *redis.Client, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			fmt.Println("Received shutdown command via Service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
				fmt.Println("Shutdown signal sent successfully.")
			default:
				fmt.Println("Shutdown channel already signaled or blocked.")
			}
		case "getTestEmail":
			var args []string // ["kind", "email"]
			if err := json.Unmarshal(req.Arguments, &args); err != nil || len(args) != 2 {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [kind, email]"})
				return
			}
			kind := args[0]
			emailAddr := args[1]
			redisKey := fmt.Sprintf("mockemail:%s:%s", emailAddr, kind)

			// Delivery runs through the task queue, so poll briefly.
			var emailJsonData string
			var getErr error
			found := false
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()
			for i := 0; i < 10; i++ {
				emailJsonData, getErr = rdb.Get(ctx, redisKey).Result()
				if getErr == nil {
					found = true
					rdb.Del(ctx, redisKey)
					break
				}
				if getErr != redis.Nil {
					log.Printf("Service API: Error getting key %s from Redis: %v", redisKey, getErr)
					c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Redis error"})
					return
				}
				time.Sleep(200 * time.Millisecond)
			}

			if !found {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Test email not found in Redis for key %s", redisKey)})
				return
			}

			var emailData map[string]interface{}
			if err := json.Unmarshal([]byte(emailJsonData), &emailData); err != nil {
				log.Printf("Service API: Error unmarshalling email data from key %s: %v", redisKey, err)
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to parse stored email data"})
				return
			}

			c.JSON(http.StatusOK, gin.H{"success": true, "data": emailData})

		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}
