package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/whlops/port-weather-bot/internal/alert"
	"github.com/whlops/port-weather-bot/internal/auth"
	"github.com/whlops/port-weather-bot/internal/config"
	"github.com/whlops/port-weather-bot/internal/integration"
	"github.com/whlops/port-weather-bot/internal/integration/aedyn"
	"github.com/whlops/port-weather-bot/internal/observability"
	"github.com/whlops/port-weather-bot/internal/registry"
	"github.com/whlops/port-weather-bot/internal/repository"
	"github.com/whlops/port-weather-bot/internal/risk"
	"github.com/whlops/port-weather-bot/internal/usecases"
)

func main() {
	// Configure logging
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Starting Port Weather Monitor...")

	once := flag.Bool("once", false, "run a single monitoring pass and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateForMonitoring(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Load the monitored port registry
	reg, err := registry.Load(cfg.RegistryPath)
	if err != nil {
		log.Fatalf("Failed to load port registry: %v", err)
	}

	// Initialize repository
	repo, err := repository.NewSQLiteWeatherRepository(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize repository: %v", err)
	}
	defer repo.Close()

	// Wire the credential session and forecast client
	store := auth.NewCredentialStore(cfg.CookiePath)
	login := aedyn.NewLoginService(cfg.Username, cfg.Password, cfg.LoginURL, cfg.BaseURL, cfg.HTTPTimeout, nil)
	session := auth.NewSessionManager(store, login, cfg.BaseURL+"/api/account/user", cfg.ProbeTimeout, cfg.CookieExpiry, nil)
	client := integration.NewClient(cfg.BaseURL, cfg.HTTPTimeout, session, nil)

	classifier := risk.NewClassifier(cfg.Thresholds)
	compositor := alert.NewCompositor(nil)

	var notifier usecases.AlertSender
	if cfg.WebhookURL != "" {
		notifier = alert.NewNotifier(cfg.WebhookURL, cfg.HTTPTimeout)
	} else {
		log.Println("TEAMS_WEBHOOK_URL not set, alerts will not be dispatched")
	}

	metrics := observability.NewMetrics()
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		log.Printf("Serving metrics on %s", cfg.MetricsAddr)
		if err := http.ListenAndServe(cfg.MetricsAddr, nil); err != nil {
			log.Printf("Metrics server stopped: %v", err)
		}
	}()

	useCase := usecases.NewMonitorUseCase(
		session, client, repo, reg, classifier, compositor, notifier, metrics, cfg.ReportsDir, nil)

	runOnce := func() {
		report, err := useCase.RunDailyMonitoring(context.Background())
		if err != nil {
			log.Printf("Monitoring run failed: %v", err)
			return
		}
		log.Printf("Monitoring run complete: %d ports at risk, notification sent: %v",
			report.RiskAnalysis.TotalRiskPorts, report.Notification.Sent)
	}

	if *once {
		runOnce()
		return
	}

	// Run immediately on startup, then on the configured schedule
	runOnce()

	c := cron.New()
	_, err = c.AddFunc(cfg.CronSpec, runOnce)
	if err != nil {
		log.Fatalf("Failed to set up cron job: %v", err)
	}

	log.Printf("Monitor scheduled with cron spec %q", cfg.CronSpec)
	c.Start()

	// Keep the program running
	select {}
}
