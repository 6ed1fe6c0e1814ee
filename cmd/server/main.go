package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/joho/godotenv"

	"teamline/internal/config"
	"teamline/internal/database"
	"teamline/internal/handlers"
	"teamline/internal/middleware"
	"teamline/internal/storage"
	"teamline/internal/types"

	_ "teamline/docs/api" // Swagger docs
)

// @title Teamline API
// @version 1.0.0
// @description Team timeline service: posts, comments, tags, folders, sharing, file drive and notifications
// @termsOfService http://swagger.io/terms/

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name session_id

func main() {
	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Schema capabilities are probed once; the feed degrades its projection
	// instead of falling back per request.
	caps := database.DetectCapabilities(db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := storage.NewFromConfig(ctx, cfg)
	if err != nil {
		cancel()
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	if err := store.Validate(ctx); err != nil {
		cancel()
		log.Fatalf("Storage backend unavailable: %v", err)
	}
	cancel()

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("teamline")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	authHandler := &handlers.AuthHandler{DB: db, Cfg: cfg}
	postHandler := &handlers.PostHandler{DB: db, Caps: caps}
	mediaHandler := &handlers.MediaHandler{DB: db, Store: store}
	folderHandler := &handlers.FolderHandler{DB: db}
	commentHandler := &handlers.CommentHandler{DB: db}
	notificationHandler := &handlers.NotificationHandler{DB: db}
	publicHandler := &handlers.PublicHandler{DB: db, Caps: caps}
	healthHandler := &handlers.HealthHandler{DB: db, Cfg: cfg, Store: store}

	api := app.Group("/api")
	requireUser := middleware.RequireUser(db)
	requireAdmin := middleware.RequireAdmin(db)

	// Unauthenticated
	api.Post("/register", authHandler.Register)
	api.Post("/login", authHandler.Login)
	api.Post("/logout", authHandler.Logout)
	api.Post("/forgot-password", authHandler.ForgotPassword)
	api.Post("/reset-password", authHandler.ResetPassword)
	api.Get("/public/:slug", publicHandler.GetTimeline)
	api.Get("/health", healthHandler.Health)
	api.Get("/ping", healthHandler.Ping)

	// Profile
	api.Get("/me", requireUser, authHandler.Me)
	api.Put("/me", requireUser, authHandler.UpdateProfile)

	// Invitations (admin)
	api.Get("/invitations", requireAdmin, authHandler.ListInvitations)
	api.Post("/invitations", requireAdmin, authHandler.CreateInvitation)

	// Posts
	api.Get("/posts", requireUser, postHandler.ListPosts)
	api.Post("/posts", requireUser, postHandler.CreatePost)
	api.Get("/posts/:id/get", requireUser, postHandler.GetPost)
	api.Put("/posts/:id", requireUser, postHandler.UpdatePost)
	api.Delete("/posts/:id", requireUser, postHandler.DeletePost)
	api.Get("/posts/:id/history", requireUser, postHandler.ListHistory)
	api.Post("/posts/:id/restore", requireUser, postHandler.RestorePost)
	api.Get("/posts/:id/share", requireUser, postHandler.ListPostShares)
	api.Post("/posts/:id/share", requireUser, postHandler.SharePost)
	api.Delete("/posts/:id/share", requireUser, postHandler.DeletePostShare)

	// Comments
	api.Get("/comments", requireUser, commentHandler.ListComments)
	api.Post("/comments", requireUser, commentHandler.CreateComment)
	api.Delete("/comments/:id", requireUser, commentHandler.DeleteComment)

	// Folders
	api.Get("/folders", requireUser, folderHandler.ListFolders)
	api.Post("/folders", requireUser, folderHandler.CreateFolder)
	api.Put("/folders/:id", requireUser, folderHandler.UpdateFolder)
	api.Delete("/folders/:id", requireUser, folderHandler.DeleteFolder)

	// File drive and calendar-date threads
	api.Get("/media", requireUser, mediaHandler.ListFiles)
	api.Post("/media/upload", requireUser, mediaHandler.UploadFile)
	api.Delete("/media/:id", requireUser, mediaHandler.DeleteFile)
	api.Get("/media/:id/download", requireUser, mediaHandler.DownloadFile)
	api.Get("/media/:id/share", requireUser, mediaHandler.ListFileShares)
	api.Post("/media/:id/share", requireUser, mediaHandler.ShareFile)
	api.Delete("/media/:id/share", requireUser, mediaHandler.DeleteFileShare)
	api.Get("/files/thread", requireUser, mediaHandler.GetThread)
	api.Post("/files/thread", requireUser, mediaHandler.AttachToDate)
	api.Post("/files/comments", requireUser, mediaHandler.CreateFileComment)
	api.Put("/files/comments/:id", requireUser, mediaHandler.UpdateFileComment)
	api.Delete("/files/comments/:id", requireUser, mediaHandler.DeleteFileComment)

	// Notifications
	api.Get("/notifications", requireUser, notificationHandler.ListNotifications)
	api.Patch("/notifications", requireUser, notificationHandler.MarkRead)
	api.Post("/notifications/read-all", requireUser, notificationHandler.MarkAllRead)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Resource not found",
		})
	})

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	log.Printf("Starting server on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}

// customErrorHandler converts errors escaping the handler chain into the
// uniform `{error: string}` body.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var reqErr *types.RequestError
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &reqErr):
		code = reqErr.Code
		message = reqErr.Message
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
		message = fiberErr.Message
	default:
		log.Printf("unhandled error on %s: %v", c.OriginalURL(), err)
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}
