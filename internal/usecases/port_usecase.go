package usecases

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/whlops/port-weather-bot/internal/entities"
	"github.com/whlops/port-weather-bot/internal/integration/openai"
	"github.com/whlops/port-weather-bot/internal/parser"
	"github.com/whlops/port-weather-bot/internal/registry"
	"github.com/whlops/port-weather-bot/internal/repository"
	"github.com/whlops/port-weather-bot/internal/risk"
)

// PortUseCase handles interactive queries about port weather conditions
type PortUseCase struct {
	repo          repository.WeatherRepository
	registry      *registry.Registry
	classifier    *risk.Classifier
	openAIService openai.OpenAIService
}

// NewPortUseCase creates a new port query use case
func NewPortUseCase(repo repository.WeatherRepository, reg *registry.Registry, classifier *risk.Classifier, openAIService openai.OpenAIService) *PortUseCase {
	return &PortUseCase{
		repo:          repo,
		registry:      reg,
		classifier:    classifier,
		openAIService: openAIService,
	}
}

// ListPorts returns the monitored ports as "CODE - Name" display entries.
func (uc *PortUseCase) ListPorts() []string {
	log.Println("Retrieving list of monitored ports")
	return uc.registry.DisplayList()
}

// GetPortForecast returns the latest stored weather records for a port.
func (uc *PortUseCase) GetPortForecast(code string) (entities.Port, []entities.WeatherRecord, string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	log.Printf("Retrieving forecast for port: %s", code)

	port, ok := uc.registry.Get(code)
	if !ok {
		return entities.Port{}, nil, "", fmt.Errorf("unknown port code %s", code)
	}

	stored, err := uc.repo.LatestForecast(code)
	if err != nil {
		return port, nil, "", err
	}
	if stored == nil {
		return port, nil, "", nil
	}

	_, records, warnings, err := parser.Parse(stored.Content)
	for _, w := range warnings {
		log.Printf("Parse warning for %s: %s", code, w)
	}
	if err != nil {
		return port, nil, stored.IssuedTime, err
	}
	return port, records, stored.IssuedTime, nil
}

// GetPortRisk classifies the latest stored forecast for a port. A nil
// assessment with a nil error means the port's outlook is safe.
func (uc *PortUseCase) GetPortRisk(code string) (*entities.RiskAssessment, error) {
	port, records, issuedTime, err := uc.GetPortForecast(code)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no forecast data stored for port %s", code)
	}
	return uc.classifier.AnalyzePort(port, records, issuedTime), nil
}

// HandleNaturalLanguageQuery interprets a user's free-text query using the AI service
// and returns an appropriate response string.
func (uc *PortUseCase) HandleNaturalLanguageQuery(ctx context.Context, query string) (string, error) {
	log.Printf("Interpreting natural language query: %s", query)

	agentResp, err := uc.openAIService.InterpretUserQuery(ctx, query, uc.ListPorts())
	if err != nil {
		log.Printf("Error interpreting user query via OpenAI: %v", err)
		return "Sorry, I'm having trouble understanding right now. Please try again later or use /help.", nil
	}

	log.Printf("Agent response: Command='%s', Port='%s', Message='%s'",
		agentResp.CommandName, agentResp.PortCode, agentResp.UserMessage)

	switch agentResp.CommandName {
	case "GetPortRiskByCode":
		if agentResp.PortCode == "" {
			log.Printf("Agent identified intent GetPortRiskByCode but no specific port found.")
			return agentResp.UserMessage, nil
		}

		log.Printf("Agent identified port: %s. Fetching risk data...", agentResp.PortCode)
		assessment, err := uc.GetPortRisk(agentResp.PortCode)
		if err != nil {
			log.Printf("Error fetching port risk after agent interpretation: %v", err)
			msg := agentResp.UserMessage
			if msg != "" {
				msg += "\n\n"
			}
			msg += fmt.Sprintf("However, I couldn't find forecast data for port '%s'. Use /ports to see the monitored ones.", agentResp.PortCode)
			return msg, nil
		}

		msg := agentResp.UserMessage
		if msg != "" {
			msg += "\n\n"
		}
		msg += uc.FormatRiskInfo(agentResp.PortCode, assessment)
		return msg, nil

	case "GeneralQuery":
		log.Printf("Agent identified general query.")
		return agentResp.UserMessage, nil

	default:
		log.Printf("Agent returned unexpected command: %s", agentResp.CommandName)
		return "I'm not sure how to respond to that. You can use /help for commands.", nil
	}
}

// FormatRiskInfo formats a port risk assessment for display. A nil assessment
// means the outlook is safe.
func (uc *PortUseCase) FormatRiskInfo(code string, a *entities.RiskAssessment) string {
	if a == nil {
		port, ok := uc.registry.Get(strings.ToUpper(strings.TrimSpace(code)))
		name := code
		if ok {
			name = fmt.Sprintf("%s (%s)", port.Name, port.Code)
		}
		return fmt.Sprintf("✅ %s: all weather parameters are within safe limits for the next 48 hours.", name)
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("⚠️ %s (%s) — %s risk\n\n", a.PortName, a.PortCode, a.Level.Label()))
	result.WriteString(fmt.Sprintf("💨 Max wind: %.1f kts (BFT %d) at %s\n",
		a.MaxWindKts, a.MaxWindBft, a.MaxWindTime.Format("2006-01-02 15:04")))
	result.WriteString(fmt.Sprintf("🌪 Max gust: %.1f kts (BFT %d) at %s\n",
		a.MaxGustKts, a.MaxGustBft, a.MaxGustTime.Format("2006-01-02 15:04")))
	result.WriteString(fmt.Sprintf("🌊 Max wave: %.1f m\n", a.MaxWaveM))

	if len(a.RiskFactors) > 0 {
		result.WriteString("\nRisk factors:\n")
		for _, f := range a.RiskFactors {
			result.WriteString("• " + f + "\n")
		}
	}
	result.WriteString(fmt.Sprintf("\n%d risk periods in the 48h outlook.", len(a.RiskPeriods)))
	result.WriteString(fmt.Sprintf("\n🕒 Forecast issued: %s", a.IssuedTime))

	return result.String()
}

// FormatForecastInfo formats the raw forecast records for display, capped to
// the nearest periods to keep the message readable.
func (uc *PortUseCase) FormatForecastInfo(port entities.Port, records []entities.WeatherRecord, issuedTime string) string {
	if len(records) == 0 {
		return fmt.Sprintf("No forecast data stored for %s (%s) yet.", port.Name, port.Code)
	}

	const maxRows = 8
	var result strings.Builder
	result.WriteString(fmt.Sprintf("Forecast for %s (%s):\n\n", port.Name, port.Code))

	shown := records
	if len(shown) > maxRows {
		shown = shown[:maxRows]
	}
	for _, r := range shown {
		result.WriteString(fmt.Sprintf("%s  wind %.1f kts (BFT %d) %s, gust %.1f kts, wave %.1f m %s\n",
			r.Time.Format("01-02 15:04"),
			r.WindSpeedKts, r.WindSpeedBft, r.WindDirection,
			r.WindGustKts, r.WaveHeightM, r.WaveDirection))
	}
	if len(records) > maxRows {
		result.WriteString(fmt.Sprintf("... and %d more periods\n", len(records)-maxRows))
	}
	result.WriteString(fmt.Sprintf("\n🕒 Issued: %s", issuedTime))

	return result.String()
}
