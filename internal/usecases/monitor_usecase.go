// Package usecases contains the business logic orchestration
package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/whlops/port-weather-bot/internal/auth"
	"github.com/whlops/port-weather-bot/internal/entities"
	"github.com/whlops/port-weather-bot/internal/observability"
	"github.com/whlops/port-weather-bot/internal/parser"
	"github.com/whlops/port-weather-bot/internal/registry"
	"github.com/whlops/port-weather-bot/internal/repository"
	"github.com/whlops/port-weather-bot/internal/risk"
)

// topRiskPortsCap bounds the ranked port list persisted in the run report.
const topRiskPortsCap = 20

// ForecastFetcher downloads the raw forecast text for one port.
type ForecastFetcher interface {
	FetchPortData(ctx context.Context, port entities.Port) (content string, issuedTime string, err error)
}

// SessionEnsurer guarantees a usable credential session before fetching.
type SessionEnsurer interface {
	EnsureSession(ctx context.Context, force bool) error
}

// AlertSender delivers a composed notification payload.
type AlertSender interface {
	Send(ctx context.Context, payload map[string]any) error
	Recipient() string
}

// AlertComposer builds the notification payload from the run's assessments.
type AlertComposer interface {
	Compose(assessments []entities.RiskAssessment) map[string]any
}

// MonitorUseCase runs the full daily pipeline: ensure session, fetch all
// forecasts, classify, notify once, and persist a run report.
type MonitorUseCase struct {
	session    SessionEnsurer
	fetcher    ForecastFetcher
	repo       repository.WeatherRepository
	registry   *registry.Registry
	classifier *risk.Classifier
	composer   AlertComposer
	notifier   AlertSender
	metrics    *observability.Metrics
	reportsDir string
	clock      clockwork.Clock
}

// NewMonitorUseCase wires the monitoring pipeline. A nil clock selects real
// time; a nil metrics set disables instrumentation updates.
func NewMonitorUseCase(
	session SessionEnsurer,
	fetcher ForecastFetcher,
	repo repository.WeatherRepository,
	reg *registry.Registry,
	classifier *risk.Classifier,
	composer AlertComposer,
	notifier AlertSender,
	metrics *observability.Metrics,
	reportsDir string,
	clock clockwork.Clock,
) *MonitorUseCase {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if reportsDir == "" {
		reportsDir = "reports"
	}
	return &MonitorUseCase{
		session:    session,
		fetcher:    fetcher,
		repo:       repo,
		registry:   reg,
		classifier: classifier,
		composer:   composer,
		notifier:   notifier,
		metrics:    metrics,
		reportsDir: reportsDir,
		clock:      clock,
	}
}

// RunDailyMonitoring executes one complete monitoring run. Only an
// authentication failure aborts the run; per-port fetch, parse, and analysis
// errors degrade that port and the run continues. The report is returned even
// when notification delivery failed.
func (u *MonitorUseCase) RunDailyMonitoring(ctx context.Context) (*entities.RunReport, error) {
	started := u.clock.Now()
	log.Println("Starting daily port weather monitoring run")

	if err := u.session.EnsureSession(ctx, false); err != nil {
		var authErr *auth.AuthError
		if errors.As(err, &authErr) {
			return nil, fmt.Errorf("cannot start run without a session: %v", err)
		}
		return nil, fmt.Errorf("session check failed: %v", err)
	}

	stats := u.fetchAllPorts(ctx)
	log.Printf("Download pass complete: %d success, %d skip, %d fail",
		stats.Success, stats.Skip, stats.Fail)

	assessments := u.analyzeAllPorts()
	log.Printf("Risk analysis complete: %d ports at risk", len(assessments))

	notification := u.notify(ctx, assessments)

	report := u.buildReport(started, stats, assessments, notification)
	u.persistReport(report, started)
	u.updateMetrics(started, stats, assessments)

	return report, nil
}

// fetchAllPorts downloads every registered port's forecast in registry order.
// A port whose freshly fetched issue-time token matches the stored one counts
// as a skip and is not re-saved.
func (u *MonitorUseCase) fetchAllPorts(ctx context.Context) entities.DownloadStats {
	var stats entities.DownloadStats

	for _, code := range u.registry.Codes() {
		port, _ := u.registry.Get(code)

		content, issuedTime, err := u.fetcher.FetchPortData(ctx, port)
		if err != nil {
			log.Printf("Fetch failed for %s: %v", code, err)
			stats.Fail++
			continue
		}

		stored, err := u.repo.LatestIssuedTime(code)
		if err != nil {
			log.Printf("Issue-time lookup failed for %s: %v", code, err)
		}
		if stored != "" && stored == issuedTime {
			log.Printf("Forecast for %s unchanged (issued %s), skipping", code, issuedTime)
			stats.Skip++
			continue
		}

		if err := u.repo.SaveForecast(port, issuedTime, content); err != nil {
			log.Printf("Save failed for %s: %v", code, err)
			stats.Fail++
			continue
		}
		stats.Success++
	}

	return stats
}

// analyzeAllPorts classifies the latest stored forecast of every registered
// port, in registry order. Ports with no stored forecast, unparseable text, or
// an all-safe outlook contribute nothing.
func (u *MonitorUseCase) analyzeAllPorts() []entities.RiskAssessment {
	var assessments []entities.RiskAssessment

	for _, code := range u.registry.Codes() {
		port, _ := u.registry.Get(code)

		stored, err := u.repo.LatestForecast(code)
		if err != nil {
			log.Printf("Forecast lookup failed for %s: %v", code, err)
			continue
		}
		if stored == nil {
			continue
		}

		_, records, warnings, err := parser.Parse(stored.Content)
		for _, w := range warnings {
			log.Printf("Parse warning for %s: %s", code, w)
		}
		if err != nil {
			log.Printf("Parse failed for %s: %v", code, err)
			continue
		}

		if a := u.classifier.AnalyzePort(port, records, stored.IssuedTime); a != nil {
			assessments = append(assessments, *a)
		}
	}

	return assessments
}

// notify composes and sends exactly one alert per run. A missing notifier or
// a delivery failure is recorded in the result, never escalated.
func (u *MonitorUseCase) notify(ctx context.Context, assessments []entities.RiskAssessment) entities.NotificationResult {
	result := entities.NotificationResult{Sent: false}
	if u.notifier == nil {
		log.Println("No notifier configured, skipping alert dispatch")
		if u.metrics != nil {
			u.metrics.Notifications.WithLabelValues("skipped").Inc()
		}
		return result
	}

	result.Recipient = u.notifier.Recipient()
	payload := u.composer.Compose(assessments)

	if err := u.notifier.Send(ctx, payload); err != nil {
		log.Printf("Alert dispatch failed: %v", err)
		if u.metrics != nil {
			u.metrics.Notifications.WithLabelValues("failed").Inc()
		}
		return result
	}

	result.Sent = true
	if u.metrics != nil {
		u.metrics.Notifications.WithLabelValues("sent").Inc()
	}
	return result
}

// buildReport assembles the run summary. Top ports are ranked by risk level
// first, then extremal wind speed, both descending.
func (u *MonitorUseCase) buildReport(
	started time.Time,
	stats entities.DownloadStats,
	assessments []entities.RiskAssessment,
	notification entities.NotificationResult,
) *entities.RunReport {
	var dist entities.RiskDistribution
	for _, a := range assessments {
		switch a.Level {
		case entities.RiskDanger:
			dist.Danger++
		case entities.RiskWarning:
			dist.Warning++
		case entities.RiskCaution:
			dist.Caution++
		}
	}

	ranked := make([]entities.RiskAssessment, len(assessments))
	copy(ranked, assessments)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Level != ranked[j].Level {
			return ranked[i].Level > ranked[j].Level
		}
		return ranked[i].MaxWindKts > ranked[j].MaxWindKts
	})
	if len(ranked) > topRiskPortsCap {
		ranked = ranked[:topRiskPortsCap]
	}

	top := make([]entities.TopRiskPort, 0, len(ranked))
	for _, a := range ranked {
		top = append(top, entities.TopRiskPort{
			PortCode:        a.PortCode,
			PortName:        a.PortName,
			Country:         a.Country,
			RiskLevel:       int(a.Level),
			RiskLabel:       a.Level.Label(),
			MaxWindKts:      a.MaxWindKts,
			MaxWindBft:      a.MaxWindBft,
			MaxWindTime:     a.MaxWindTime.Format("2006-01-02 15:04"),
			MaxGustKts:      a.MaxGustKts,
			MaxGustBft:      a.MaxGustBft,
			MaxGustTime:     a.MaxGustTime.Format("2006-01-02 15:04"),
			MaxWave:         a.MaxWaveM,
			RiskFactors:     a.RiskFactors,
			RiskPeriodCount: len(a.RiskPeriods),
		})
	}

	return &entities.RunReport{
		ExecutionTime: started.Format("2006-01-02 15:04:05"),
		DownloadStats: stats,
		RiskAnalysis: entities.RiskAnalysis{
			TotalRiskPorts:   len(assessments),
			RiskDistribution: dist,
			TopRiskPorts:     top,
		},
		Notification: notification,
	}
}

// persistReport writes the run report JSON. Persistence failure is logged and
// never fails the run.
func (u *MonitorUseCase) persistReport(report *entities.RunReport, started time.Time) {
	if err := os.MkdirAll(u.reportsDir, 0755); err != nil {
		log.Printf("Cannot create reports directory: %v", err)
		return
	}

	name := fmt.Sprintf("weather_monitor_report_%s.json", started.Format("20060102_150405"))
	path := filepath.Join(u.reportsDir, name)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Printf("Cannot encode run report: %v", err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("Cannot write run report: %v", err)
		return
	}
	log.Printf("Run report written to %s", path)
}

func (u *MonitorUseCase) updateMetrics(started time.Time, stats entities.DownloadStats, assessments []entities.RiskAssessment) {
	if u.metrics == nil {
		return
	}

	u.metrics.FetchResults.WithLabelValues("success").Add(float64(stats.Success))
	u.metrics.FetchResults.WithLabelValues("skip").Add(float64(stats.Skip))
	u.metrics.FetchResults.WithLabelValues("fail").Add(float64(stats.Fail))

	counts := map[entities.RiskLevel]int{}
	for _, a := range assessments {
		counts[a.Level]++
	}
	for _, level := range []entities.RiskLevel{entities.RiskCaution, entities.RiskWarning, entities.RiskDanger} {
		u.metrics.PortsAtRisk.WithLabelValues(level.Label()).Set(float64(counts[level]))
	}

	u.metrics.RunDuration.Observe(u.clock.Since(started).Seconds())
	u.metrics.RunsTotal.Inc()
}
