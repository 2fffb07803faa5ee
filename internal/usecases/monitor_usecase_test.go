package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whlops/port-weather-bot/internal/alert"
	"github.com/whlops/port-weather-bot/internal/auth"
	"github.com/whlops/port-weather-bot/internal/entities"
	"github.com/whlops/port-weather-bot/internal/observability"
	"github.com/whlops/port-weather-bot/internal/registry"
	"github.com/whlops/port-weather-bot/internal/repository"
	"github.com/whlops/port-weather-bot/internal/risk"
)

type fakeSession struct {
	calls int
	err   error
}

func (f *fakeSession) EnsureSession(ctx context.Context, force bool) error {
	f.calls++
	return f.err
}

type fakeFetcher struct {
	content map[string]string // port code -> forecast text
	issued  map[string]string // port code -> issue token
	errs    map[string]error  // port code -> fetch error
	calls   int
}

func (f *fakeFetcher) FetchPortData(ctx context.Context, port entities.Port) (string, string, error) {
	f.calls++
	if err, ok := f.errs[port.Code]; ok {
		return "", "", err
	}
	return f.content[port.Code], f.issued[port.Code], nil
}

type fakeSender struct {
	payloads []map[string]any
	err      error
}

func (f *fakeSender) Send(ctx context.Context, payload map[string]any) error {
	f.payloads = append(f.payloads, payload)
	return f.err
}

func (f *fakeSender) Recipient() string { return "Microsoft Teams" }

func forecastText(windKts float64) string {
	return fmt.Sprintf(`PORT: TEST
ISSUED AT: 2026/01/15 06:00 UTC
2026/01/15  09:00  NE  %.1f  %.1f  1.0  NNE
`, windKts, windKts+5)
}

func newTestRegistry(t *testing.T, codes ...string) *registry.Registry {
	t.Helper()
	ports := make([]entities.Port, 0, len(codes))
	for i, code := range codes {
		ports = append(ports, entities.Port{
			Code:      code,
			Name:      "Port " + code,
			WNICode:   code,
			Country:   "Taiwan",
			StationID: fmt.Sprintf("ST%03d", i),
		})
	}
	r, err := registry.New(ports)
	require.NoError(t, err)
	return r
}

func newTestUseCase(t *testing.T, session *fakeSession, fetcher *fakeFetcher, sender AlertSender, reg *registry.Registry) (*MonitorUseCase, string) {
	t.Helper()

	repo, err := repository.NewSQLiteWeatherRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	reportsDir := t.TempDir()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 15, 6, 0, 0, 0, time.UTC))

	uc := NewMonitorUseCase(
		session,
		fetcher,
		repo,
		reg,
		risk.NewClassifier(risk.DefaultThresholds()),
		alert.NewCompositor(clock),
		sender,
		observability.NewMetricsForTesting(),
		reportsDir,
		clock,
	)
	return uc, reportsDir
}

func TestRunDailyMonitoring(t *testing.T) {
	session := &fakeSession{}
	fetcher := &fakeFetcher{
		content: map[string]string{
			"RISKY": forecastText(45), // danger on wind
			"CALMM": forecastText(10), // safe
		},
		issued: map[string]string{
			"RISKY": "2026/01/15_06:00",
			"CALMM": "2026/01/15_06:00",
		},
	}
	sender := &fakeSender{}
	uc, reportsDir := newTestUseCase(t, session, fetcher, sender, newTestRegistry(t, "RISKY", "CALMM"))

	report, err := uc.RunDailyMonitoring(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, session.calls, "session is ensured exactly once per run")
	assert.Equal(t, 2, fetcher.calls)
	assert.Equal(t, entities.DownloadStats{Success: 2}, report.DownloadStats)

	assert.Equal(t, 1, report.RiskAnalysis.TotalRiskPorts, "safe port contributes no assessment")
	assert.Equal(t, 1, report.RiskAnalysis.RiskDistribution.Danger)
	require.Len(t, report.RiskAnalysis.TopRiskPorts, 1)
	top := report.RiskAnalysis.TopRiskPorts[0]
	assert.Equal(t, "RISKY", top.PortCode)
	assert.Equal(t, 3, top.RiskLevel)
	assert.Equal(t, "Danger", top.RiskLabel)
	assert.Equal(t, 45.0, top.MaxWindKts)

	assert.True(t, report.Notification.Sent)
	assert.Equal(t, "Microsoft Teams", report.Notification.Recipient)
	require.Len(t, sender.payloads, 1, "exactly one alert per run")

	// The run report lands on disk as JSON.
	entries, err := os.ReadDir(reportsDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "weather_monitor_report_20260115_060000.json", entries[0].Name())

	data, err := os.ReadFile(filepath.Join(reportsDir, entries[0].Name()))
	require.NoError(t, err)
	var persisted entities.RunReport
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, report.RiskAnalysis.TotalRiskPorts, persisted.RiskAnalysis.TotalRiskPorts)
}

func TestRunDailyMonitoringAbortsOnAuthFailure(t *testing.T) {
	session := &fakeSession{err: &auth.AuthError{Op: "login", Err: assert.AnError}}
	fetcher := &fakeFetcher{}
	uc, _ := newTestUseCase(t, session, fetcher, &fakeSender{}, newTestRegistry(t, "KHHSG"))

	_, err := uc.RunDailyMonitoring(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, fetcher.calls, "no fetch without a session")
}

func TestRunDailyMonitoringIsolatesPerPortFailures(t *testing.T) {
	session := &fakeSession{}
	fetcher := &fakeFetcher{
		content: map[string]string{"GOODP": forecastText(45)},
		issued:  map[string]string{"GOODP": "2026/01/15_06:00"},
		errs:    map[string]error{"BADPT": fmt.Errorf("connection reset")},
	}
	sender := &fakeSender{}
	uc, _ := newTestUseCase(t, session, fetcher, sender, newTestRegistry(t, "BADPT", "GOODP"))

	report, err := uc.RunDailyMonitoring(context.Background())
	require.NoError(t, err, "a per-port fetch failure never fails the run")

	assert.Equal(t, entities.DownloadStats{Success: 1, Fail: 1}, report.DownloadStats)
	assert.Equal(t, 1, report.RiskAnalysis.TotalRiskPorts)
	assert.True(t, report.Notification.Sent)
}

func TestRunDailyMonitoringSkipsUnchangedForecast(t *testing.T) {
	session := &fakeSession{}
	fetcher := &fakeFetcher{
		content: map[string]string{"KHHSG": forecastText(45)},
		issued:  map[string]string{"KHHSG": "2026/01/15_06:00"},
	}
	uc, _ := newTestUseCase(t, session, fetcher, &fakeSender{}, newTestRegistry(t, "KHHSG"))

	first, err := uc.RunDailyMonitoring(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entities.DownloadStats{Success: 1}, first.DownloadStats)

	second, err := uc.RunDailyMonitoring(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entities.DownloadStats{Skip: 1}, second.DownloadStats)

	// The skipped port still gets analyzed from the stored forecast.
	assert.Equal(t, 1, second.RiskAnalysis.TotalRiskPorts)
}

func TestRunDailyMonitoringNotifyFailureDoesNotFailRun(t *testing.T) {
	session := &fakeSession{}
	fetcher := &fakeFetcher{
		content: map[string]string{"KHHSG": forecastText(45)},
		issued:  map[string]string{"KHHSG": "2026/01/15_06:00"},
	}
	sender := &fakeSender{err: &alert.NotifyError{StatusCode: 500}}
	uc, _ := newTestUseCase(t, session, fetcher, sender, newTestRegistry(t, "KHHSG"))

	report, err := uc.RunDailyMonitoring(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Notification.Sent)
	assert.Equal(t, "Microsoft Teams", report.Notification.Recipient)
}

func TestRunDailyMonitoringWithoutNotifier(t *testing.T) {
	session := &fakeSession{}
	fetcher := &fakeFetcher{
		content: map[string]string{"KHHSG": forecastText(10)},
		issued:  map[string]string{"KHHSG": "2026/01/15_06:00"},
	}
	uc, _ := newTestUseCase(t, session, fetcher, nil, newTestRegistry(t, "KHHSG"))

	report, err := uc.RunDailyMonitoring(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Notification.Sent)
	assert.Empty(t, report.Notification.Recipient)
}

func TestRunDailyMonitoringRanksTopPorts(t *testing.T) {
	session := &fakeSession{}
	fetcher := &fakeFetcher{
		content: map[string]string{
			"CAUTN": forecastText(26), // caution
			"DANGR": forecastText(45), // danger
			"WARNG": forecastText(32), // warning
		},
		issued: map[string]string{
			"CAUTN": "t", "DANGR": "t", "WARNG": "t",
		},
	}
	uc, _ := newTestUseCase(t, session, fetcher, &fakeSender{}, newTestRegistry(t, "CAUTN", "DANGR", "WARNG"))

	report, err := uc.RunDailyMonitoring(context.Background())
	require.NoError(t, err)

	require.Len(t, report.RiskAnalysis.TopRiskPorts, 3)
	assert.Equal(t, "DANGR", report.RiskAnalysis.TopRiskPorts[0].PortCode)
	assert.Equal(t, "WARNG", report.RiskAnalysis.TopRiskPorts[1].PortCode)
	assert.Equal(t, "CAUTN", report.RiskAnalysis.TopRiskPorts[2].PortCode)
	assert.Equal(t, entities.RiskDistribution{Danger: 1, Warning: 1, Caution: 1},
		report.RiskAnalysis.RiskDistribution)
}
