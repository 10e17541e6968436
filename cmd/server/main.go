package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/finnholt/beamcast/configs"
	"github.com/finnholt/beamcast/internal/api/handlers"
	"github.com/finnholt/beamcast/internal/api/middleware"
	"github.com/finnholt/beamcast/internal/dispatch"
	job "github.com/finnholt/beamcast/internal/jobs"
	"github.com/finnholt/beamcast/internal/queue"
	"github.com/finnholt/beamcast/internal/repository"
	"github.com/finnholt/beamcast/internal/service"
	"github.com/finnholt/beamcast/internal/vault"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	credentialVault, err := vault.New(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("Invalid encryption key: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		BodyLimit:    50 * 1024 * 1024, // 50 MB, media uploads
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	connectionRepo := repository.NewConnectionRepository(db)
	creditRepo := repository.NewCreditRepository(db)
	brandRepo := repository.NewBrandRepository(db)
	ruleRepo := repository.NewPlatformRuleRepository(db)

	registry := dispatch.DefaultRegistry(dispatch.NewHTTPClient())

	authService := service.NewAuthService(*cfg, userRepo)
	userService := service.NewUserService(userRepo)
	creditService := service.NewCreditService(creditRepo)
	postService := service.NewPostService(db, postRepo, userRepo, brandRepo, ruleRepo)
	connectionService := service.NewConnectionService(connectionRepo, userRepo, credentialVault, registry)
	brandService := service.NewBrandService(brandRepo)
	publishService := service.NewPublishService(postRepo, userRepo, connectionRepo, ruleRepo, creditService, credentialVault, registry)
	mediaService := service.NewMediaService(*cfg)
	billingService := service.NewBillingService(*cfg, userRepo, connectionRepo, creditService)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Post("/register", auth.Register)
	app.Post("/login", auth.Login)
	app.Post("/logout", auth.Logout)

	billing := handlers.NewBillingHandler(billingService)
	app.Post("/webhooks/stripe", billing.Webhook)

	sweeperJob := job.NewScheduledPostsJob(postRepo, publishService)
	cronTrigger := handlers.NewCronHandler(*cfg, sweeperJob)
	app.Post("/internal/cron/publish-due", cronTrigger.PublishDue)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.Info)

	connection := handlers.NewConnectionHandler(connectionService)
	api.Post("/connections", connection.Connect)
	api.Get("/connections", connection.ListConnections)
	api.Post("/connections/:id/pause", connection.Pause)
	api.Post("/connections/:id/resume", connection.Resume)
	api.Delete("/connections/:id", connection.Disconnect)

	post := handlers.NewPostHandler(postService, publishService, client)
	api.Post("/posts", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/:id/publish", post.PublishNow)
	api.Delete("/posts/:id", post.RemovePost)

	brand := handlers.NewBrandHandler(brandService)
	api.Post("/brands", brand.CreateBrand)
	api.Get("/brands", brand.ListBrands)
	api.Put("/brands/:id", brand.UpdateBrand)
	api.Delete("/brands/:id", brand.RemoveBrand)

	credit := handlers.NewCreditHandler(creditService)
	api.Get("/credits", credit.Balance)
	api.Get("/credits/history", credit.History)

	media := handlers.NewMediaHandler(mediaService)
	api.Post("/media", media.Upload)

	// cron jobs
	refreshTokenJob := job.NewTokenRefreshJob(*cfg, connectionRepo, credentialVault)
	maintenanceJob := job.NewMaintenanceJob(userRepo, connectionRepo, postRepo)

	// queue
	queueW := queue.NewQueue(publishService)

	c := cron.New()
	c.AddFunc("@every 00h01m00s", sweeperJob.PublishDuePosts)
	c.AddFunc("@every 00h10m00s", refreshTokenJob.RefreshTokens)
	c.AddFunc("@every 00h15m00s", maintenanceJob.RequeueStuckPosts)
	c.AddFunc("@midnight", maintenanceJob.ResetDailyCounters)
	c.AddFunc("@daily", maintenanceJob.ArchiveCanceledUsers)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
