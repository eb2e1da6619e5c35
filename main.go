package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gridiron-match-engine/handlers"
	"gridiron-match-engine/middleware"
	"gridiron-match-engine/models"
	"gridiron-match-engine/services"
	"gridiron-match-engine/utils"
	"gridiron-match-engine/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New()

	// Health endpoint stays in front of gateway auth so the orchestration
	// layer can probe without a token.
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID, X-Service-Token",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Team{},
		&models.Player{},
		&models.PlayerAbility{},
		&models.PlayerEquipment{},
		&models.TeamStaff{},
		&models.PlayerConsumable{},
		&models.Match{},
		&models.PlayerMatchStats{},
		&models.TeamMatchStats{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	cfg := services.LoadSimConfig()

	var describer services.Describer = services.PlainDescriber{}
	if commentaryURL := os.Getenv("COMMENTARY_SERVICE_URL"); commentaryURL != "" {
		describer = services.NewRemoteDescriber(commentaryURL, os.Getenv("MATCH_ENGINE_TOKEN"))
		log.Printf("✅ Commentary service wired: %s", commentaryURL)
	}

	engine := services.NewEventEngine(describer)
	store := services.NewGormMatchStore(db)
	effects := services.NewGormEffects(db).Providers()
	matchService := services.NewMatchService(store, cfg, engine, effects)

	// Recovery runs before routes are registered so interrupted matches are
	// claimed before any client can race a Start against them.
	recovered := matchService.RecoverAll()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workers.StartSweepWorker(matchService, 10*time.Minute)
	workers.StartStaminaWorker(db)
	workers.StartReplayWorker(db)

	handlers.SetupMatchRoutes(app, matchService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Match engine running on http://localhost:5300")
	log.Printf("✅ %d interrupted match(es) resumed", recovered)
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
