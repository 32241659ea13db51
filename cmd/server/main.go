package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nishantc/manim-video-api/internal/animation"
	"github.com/nishantc/manim-video-api/internal/cleanup"
	"github.com/nishantc/manim-video-api/internal/compose"
	"github.com/nishantc/manim-video-api/internal/gemini"
	"github.com/nishantc/manim-video-api/internal/handlers"
	"github.com/nishantc/manim-video-api/internal/jobs"
	"github.com/nishantc/manim-video-api/internal/pipeline"
	"github.com/nishantc/manim-video-api/internal/render"
	"github.com/nishantc/manim-video-api/internal/script"
	"github.com/nishantc/manim-video-api/internal/speech"
	"github.com/nishantc/manim-video-api/internal/storage"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	Gemini struct {
		Model string `yaml:"model"`
	} `yaml:"gemini"`

	Render struct {
		ManimBin  string `yaml:"manim_bin"`
		FFmpegBin string `yaml:"ffmpeg_bin"`
	} `yaml:"render"`

	Storage struct {
		JobsDir  string `yaml:"jobs_dir"`
		Database string `yaml:"database"`
	} `yaml:"storage"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`
}

func main() {
	// Credentials live in the environment; a missing .env is fine
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment as-is")
	}

	config := loadConfig("config/config.yaml")

	if err := storage.EnsureDir(config.Storage.JobsDir); err != nil {
		log.Fatalf("Failed to create jobs directory: %v", err)
	}

	log.Println("Initializing components...")

	// Job history database
	historyDB, err := storage.NewHistoryDB(config.Storage.Database)
	if err != nil {
		log.Fatalf("Failed to initialize history database: %v", err)
	}
	defer historyDB.Close()

	// Generative text client; no credential selects the mock path
	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		log.Println("GEMINI_API_KEY not set - script and code generation will use mock output")
	}
	geminiClient := gemini.New(geminiKey, config.Gemini.Model)

	// Speech synthesis; no credential selects placeholder audio
	elevenKey := os.Getenv("ELEVENLABS_API_KEY")
	if elevenKey == "" {
		log.Println("ELEVENLABS_API_KEY not set - narration will use placeholder audio")
	}

	// Job registry and pipeline
	store := jobs.NewMemoryStore()
	registry := jobs.NewRegistry(store, config.Storage.JobsDir, historyDB)
	pipe := pipeline.New(
		registry,
		script.NewGenerator(geminiClient),
		animation.NewGenerator(geminiClient),
		speech.NewSynthesizer(elevenKey),
		render.NewRenderer(config.Render.ManimBin, config.Render.FFmpegBin),
		compose.NewComposer(config.Render.FFmpegBin),
	)
	registry.SetRunner(pipe)

	// Workspace retention sweeper
	sweeper := cleanup.NewScheduler(config.Storage.JobsDir, registry,
		config.Cleanup.IntervalMinutes, config.Cleanup.MaxAgeHours)
	sweeper.Start()
	defer sweeper.Stop()

	// Create Fiber app
	app := fiber.New()

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// Generated videos are served statically under /jobs
	app.Static("/jobs", config.Storage.JobsDir)

	// Initialize handlers
	generateHandler := handlers.NewGenerateHandler(registry)
	jobHandler := handlers.NewJobHandler(registry)
	progressHandler := handlers.NewProgressHandler(registry)

	// Routes
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to Manim Video Generation API",
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	app.Post("/generate-video", generateHandler.Handle)
	app.Get("/job/:id", jobHandler.Status)
	app.Delete("/job/:id", jobHandler.Delete)

	// WebSocket progress feed
	app.Get("/ws/job/:id", websocket.New(progressHandler.Handle))

	// Finished job history
	app.Get("/history", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 50)
		history, err := historyDB.ListJobs(limit)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(history)
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	log.Printf("Server starting on %s", addr)
	log.Println("Endpoints:")
	log.Println("   POST   /generate-video - Start a video generation job")
	log.Println("   GET    /job/:id        - Get job status")
	log.Println("   DELETE /job/:id        - Delete a job")
	log.Println("   GET    /ws/job/:id     - WebSocket progress feed")
	log.Println("   GET    /history        - List finished jobs")
	log.Println("   GET    /health         - Health check")

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down gracefully...")
		app.Shutdown()
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadConfig loads configuration from a YAML file, falling back to defaults
// when the file is absent. HOST and PORT environment variables win over the
// file.
func loadConfig(path string) *Config {
	config := defaultConfig()

	if file, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(file, config); err != nil {
			log.Fatalf("Failed to parse config: %v", err)
		}
	} else {
		log.Printf("Config file %s not found, using defaults", path)
	}

	if host := os.Getenv("HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			log.Fatalf("Invalid PORT value %q: %v", port, err)
		}
		config.Server.Port = p
	}

	return config
}

func defaultConfig() *Config {
	config := &Config{}
	config.Server.Host = "0.0.0.0"
	config.Server.Port = 8000
	config.Gemini.Model = "gemini-pro"
	config.Storage.JobsDir = "jobs"
	config.Storage.Database = "jobs/history.db"
	config.Cleanup.IntervalMinutes = 60
	config.Cleanup.MaxAgeHours = 0
	return config
}
