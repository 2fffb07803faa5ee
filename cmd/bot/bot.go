package main

import (
	"log"
	"os"

	"github.com/whlops/port-weather-bot/internal/api"
	"github.com/whlops/port-weather-bot/internal/config"
	"github.com/whlops/port-weather-bot/internal/integration/openai"
	"github.com/whlops/port-weather-bot/internal/registry"
	"github.com/whlops/port-weather-bot/internal/repository"
	"github.com/whlops/port-weather-bot/internal/risk"
	"github.com/whlops/port-weather-bot/internal/usecases"
)

func main() {
	// Configure logging
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Starting Port Weather Bot...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize OpenAI Service
	openAIService, err := openai.NewOpenAIService()
	if err != nil {
		log.Fatalf("Failed to initialize OpenAI service: %v", err)
	}

	// Initialize repository
	repo, err := repository.NewSQLiteWeatherRepository(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize repository: %v", err)
	}
	defer repo.Close()

	// Load the monitored port registry
	reg, err := registry.Load(cfg.RegistryPath)
	if err != nil {
		log.Fatalf("Failed to load port registry: %v", err)
	}

	classifier := risk.NewClassifier(cfg.Thresholds)

	// Initialize use case with OpenAI service
	useCase := usecases.NewPortUseCase(repo, reg, classifier, openAIService)

	if cfg.TelegramToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	// Initialize Telegram bot
	telegramBot, err := api.NewTelegramBot(cfg.TelegramToken, useCase)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram bot: %v", err)
	}

	// Start the bot
	telegramBot.Start()
}
