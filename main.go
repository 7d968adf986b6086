package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"amorbot/config"
	"amorbot/database"
	"amorbot/internal/fleet"
	"amorbot/internal/handler"
	"amorbot/internal/helper"
	customMiddleware "amorbot/internal/middleware"
	"amorbot/internal/model"
	"amorbot/internal/service"
	"amorbot/internal/service/ai"
	"amorbot/internal/worker"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"amorbot/internal/ws"
)

func main() {

	// Load .env (abaikan error kalau file tidak ada, misal di production)
	_ = godotenv.Load()

	// database custom
	appDbURL := os.Getenv("APP_DATABASE_URL")
	if appDbURL == "" {
		log.Fatal("APP_DATABASE_URL is not set")
	}
	database.InitAppDB(appDbURL)

	// Initialize separate archive DB if set
	archiveDbURL := os.Getenv("ARCHIVE_DATABASE_URL")
	database.InitArchiveDB(archiveDbURL)

	// feature flags
	config.EnableWebsocketFeed = helper.GetEnvAsBool("AMORBOT_ENABLE_WEBSOCKET_FEED", true)
	config.FleetWorkerEnabled = helper.GetEnvAsBool("FLEET_WORKER_ENABLED", false)

	// AI Configuration
	config.AIEnabled = os.Getenv("AI_ENABLED") == "true"
	config.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	config.GeminiDefaultModel = os.Getenv("GEMINI_DEFAULT_MODEL")
	if config.GeminiDefaultModel == "" {
		config.GeminiDefaultModel = "gemini-1.5-flash"
	}
	config.AIDefaultMaxTokens = helper.GetEnvAsInt("AI_DEFAULT_MAX_TOKENS", 150)
	config.AISingleTemperature = helper.GetEnvAsFloat("AI_SINGLE_TEMPERATURE", 0.7)
	config.AIBulkTemperature = helper.GetEnvAsFloat("AI_BULK_TEMPERATURE", 0.9)
	config.AICustomTemplate = os.Getenv("AI_CUSTOM_TEMPLATE")

	// Remote control authority
	config.ControlBaseURL = os.Getenv("CONTROL_BASE_URL")
	if config.ControlBaseURL == "" {
		log.Println("CONTROL_BASE_URL is not set, control gate keeps defaults until configured")
	}
	config.ControlToken = os.Getenv("CONTROL_TOKEN")
	config.ControlRefreshSeconds = helper.GetEnvAsInt("CONTROL_REFRESH_SECONDS", 60)
	config.StatusCycleSeconds = helper.GetEnvAsInt("STATUS_CYCLE_SECONDS", 300)

	log.Printf("feature flags -> websocket_feed: %v, fleet_worker: %v, ai_enabled: %v",
		config.EnableWebsocketFeed, config.FleetWorkerEnabled, config.AIEnabled)

	// jwt secret for operator auth
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Println("JWT_SECRET is not set")
	}
	service.InitAuthConfig(jwtSecret)

	// **************************
	// main proses.
	//***************************

	runCreateSchema := false
	if len(os.Args) > 1 && os.Args[1] == "--createschema" {
		runCreateSchema = true
	}
	if runCreateSchema { // buat/ensure schema dulu
		helper.InitCustomSchema()
	}

	// Egress proxy pool (fixed order; sessions band onto slots by position)
	proxyPool, err := fleet.ParseProxyPool(os.Getenv("PROXY_POOL"))
	if err != nil {
		log.Fatalf("Invalid PROXY_POOL: %v", err)
	}
	log.Printf("Proxy pool loaded: %d slots (%d sessions per slot)", len(proxyPool), fleet.SessionsPerProxy)

	// Disabled audience segments
	disabled := map[string]bool{}
	for _, seg := range helper.GetEnvAsList("DISABLED_SEGMENTS") {
		disabled[seg] = true
	}

	segmentOrder := helper.GetEnvAsList("SEGMENT_ORDER")
	if segmentOrder == nil {
		segmentOrder = fleet.DefaultSegmentOrder
	}

	// WebSocket hub for the dashboard feed
	hub := ws.NewHub()
	go hub.Run()

	// Control gate + remote authority client
	controlClient := service.NewControlClient(config.ControlBaseURL, config.ControlToken)
	gate := fleet.NewControlGate(controlClient)

	// Session registry with save-on-change persistence
	sessionStore := model.NewSessionStore()
	registry := fleet.NewRegistry(proxyPool, segmentOrder, disabled, sessionStore)

	log.Println("Loading existing sessions...")
	saved, err := sessionStore.LoadAllSessions()
	if err != nil {
		log.Printf("Warning: Failed to load sessions: %v", err)
	}
	for _, s := range saved {
		registry.Restore(s)
	}
	log.Printf("Found %d saved sessions in database", registry.Len())

	// Event log + archive
	eventLog := fleet.NewEventLog(hub)
	eventLog.SetArchiver(model.NewEventArchiver())

	// Blacklist restore
	blacklist := fleet.NewBlacklist()
	if entries, err := model.LoadBlacklist(); err != nil {
		log.Printf("Warning: Failed to load blacklist: %v", err)
	} else {
		blacklist.Load(entries)
		log.Printf("Blacklist restored: %d entries", blacklist.Len())
	}

	// AI generator
	generator := fleet.NewGenerator(registry, gate, ai.NewProvider(), controlClient, hub, fleet.GeneratorConfig{
		Credential:        config.GeminiAPIKey,
		CustomTemplate:    config.AICustomTemplate,
		SingleTemperature: config.AISingleTemperature,
		BulkTemperature:   config.AIBulkTemperature,
	})

	// Setup Echo
	e := echo.New()
	e.Use(middleware.Recover())

	// env allow ip
	originsEnv := os.Getenv("CORS_ALLOW_ORIGINS")
	if originsEnv == "" {
		log.Println("CORS_ALLOW_ORIGINS is not set")
	}
	allowOrigins := strings.Split(originsEnv, ",")
	for i, o := range allowOrigins {
		allowOrigins[i] = strings.TrimSpace(o)
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{
			echo.GET,
			echo.POST,
			echo.PUT,
			echo.PATCH,
			echo.DELETE,
			echo.OPTIONS,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderXRequestedWith,
			echo.HeaderAuthorization,
		},
		AllowCredentials: true,
	}))
	e.OPTIONS("/*", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// Rate limiter configuration from env
	rateLimit := helper.GetEnvAsInt("RATE_LIMIT_PER_SECOND", 10)
	rateBurst := helper.GetEnvAsInt("RATE_LIMIT_BURST", 10)
	rateWindow := helper.GetEnvAsInt("RATE_LIMIT_WINDOW_MINUTES", 3)

	e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(rateLimit),
				Burst:     rateBurst,
				ExpiresIn: time.Duration(rateWindow) * time.Minute,
			},
		),
	}))

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		message := "Internal Server Error"

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			message = fmt.Sprintf("%v", he.Message)
		}
		response := map[string]interface{}{
			"success": false,
			"error":   message,
		}
		switch code {
		case http.StatusUnauthorized:
			response["message"] = "Authentication required. Please login first."
		case http.StatusMethodNotAllowed:
			response["message"] = "Method not allowed for this endpoint"
		case http.StatusNotFound:
			response["message"] = "Endpoint not found"
		}

		c.JSON(code, response)
	}

	// =====================================================
	// PUBLIC ROUTES (No authentication required)
	// =====================================================
	e.POST("/register", handler.Register)
	e.POST("/login", handler.LoginOperator)
	e.POST("/refresh", handler.RefreshToken)

	// Static file serving for uploaded photos
	e.Static("/uploads", "./uploads")

	// WebSocket and health check
	if config.EnableWebsocketFeed {
		e.GET("/ws", handler.WebSocketHandler(hub))
	}
	e.GET("/", func(c echo.Context) error { // Health check
		return c.JSON(200, map[string]interface{}{
			"success": true,
			"message": "Fleet orchestrator is running",
			"version": "1.0.0",
		})
	})

	// Daftar group route yang butuh JWT
	api := e.Group("/api", customMiddleware.JWTAuthMiddleware())

	// =====================================================
	// OPERATOR ROUTES (JWT required)
	// =====================================================
	api.GET("/me", handler.GetCurrentOperator)
	api.POST("/logout", handler.LogoutOperator)

	// =====================================================
	// SESSION ROUTES
	// =====================================================
	api.GET("/sessions", handler.ListSessions(registry))
	api.POST("/sessions", handler.CreateSession(registry))
	api.GET("/sessions/:id", handler.GetSession(registry))
	api.PATCH("/sessions/:id", handler.UpdateSession(registry, hub))
	api.DELETE("/sessions/:id", handler.DeleteSession(registry, sessionStore), customMiddleware.RequireAdmin)
	api.POST("/sessions/:id/photo", handler.UploadSessionPhoto(registry))
	api.POST("/sessions/:id/sent", handler.SessionSent(registry, eventLog, blacklist))

	// AI generation
	api.POST("/sessions/:id/generate", handler.GenerateForSession(generator))
	api.POST("/generate-all", handler.GenerateForAll(generator))

	// Control gate
	api.GET("/control", handler.GetControlStatus(gate))
	api.POST("/control/refresh", handler.RefreshControlStatus(gate, hub))

	// Event log
	api.GET("/events", handler.ListEvents(eventLog))
	api.POST("/events", handler.AddEvent(registry, eventLog))
	api.GET("/events/export", handler.ExportEvents(eventLog))

	// Blacklist
	api.GET("/blacklist", handler.ListBlacklist(blacklist))
	api.POST("/blacklist", handler.AddBlacklistEntry(blacklist))
	api.GET("/blacklist/export", handler.ExportBlacklist(blacklist))

	port := config.GetEnv("PORT", "2121")

	// Start fleet worker if enabled
	if config.FleetWorkerEnabled {
		log.Println("🚀 Starting Fleet Worker...")
		fleetWorker := worker.NewFleetWorker(
			registry,
			gate,
			hub,
			time.Duration(config.ControlRefreshSeconds)*time.Second,
			time.Duration(config.StatusCycleSeconds)*time.Second,
		)
		fleetWorker.Start()
	} else {
		log.Println("⏸️  Fleet Worker disabled (set FLEET_WORKER_ENABLED=true to enable)")
	}

	// log info untuk cek config
	log.Printf("Server starting on port %s", port)

	// bind ke semua interface, bukan hanya 127.0.0.1
	log.Fatal(e.Start(":" + port))

}
