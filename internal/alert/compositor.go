// Package alert composes and dispatches the consolidated risk notification
package alert

import (
	"fmt"
	"sort"

	"github.com/jonboulle/clockwork"
	"github.com/whlops/port-weather-bot/internal/entities"
)

// DisplayCap bounds how many ports each severity section lists. The
// downstream channel enforces a payload size ceiling, so truncation is
// deterministic (same sort order) and always states the omitted count.
const DisplayCap = 20

// maxPeriodsPerPort bounds the representative risk periods shown per port.
const maxPeriodsPerPort = 3

// Compositor turns a set of risk assessments into a Teams Adaptive Card
// payload. An empty set produces the all-clear variant; the input is assumed
// to contain only non-safe ports (safe ports yield no assessment at all).
type Compositor struct {
	clock clockwork.Clock
}

// NewCompositor creates a compositor. A nil clock selects real time.
func NewCompositor(clock clockwork.Clock) *Compositor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Compositor{clock: clock}
}

// Compose builds the full notification payload.
func (c *Compositor) Compose(assessments []entities.RiskAssessment) map[string]any {
	if len(assessments) == 0 {
		return c.allClearCard()
	}
	return c.riskCard(assessments)
}

func (c *Compositor) allClearCard() map[string]any {
	body := []any{
		container("good", []any{
			textBlock("Port Weather Monitoring Report", map[string]any{
				"weight": "Bolder", "size": "Large", "color": "Good",
			}),
			textBlock(fmt.Sprintf("Updated %s", c.clock.Now().Format("2006-01-02 15:04")), map[string]any{
				"isSubtle": true, "spacing": "None",
			}),
		}),
		map[string]any{
			"type":    "Container",
			"spacing": "Medium",
			"items": []any{
				textBlock("All monitored ports are in a safe state", map[string]any{
					"wrap": true, "weight": "Bolder", "size": "Medium",
				}),
				textBlock("Wind, gust, and wave height stay within safe limits at every port for the next 48 hours.", map[string]any{
					"wrap": true, "spacing": "Small", "isSubtle": true,
				}),
			},
		},
	}
	return card(body)
}

func (c *Compositor) riskCard(assessments []entities.RiskAssessment) map[string]any {
	danger := bucket(assessments, entities.RiskDanger)
	warning := bucket(assessments, entities.RiskWarning)
	caution := bucket(assessments, entities.RiskCaution)

	summary := ""
	appendPart := func(label string, n int) {
		if n == 0 {
			return
		}
		if summary != "" {
			summary += " | "
		}
		summary += fmt.Sprintf("%s: %d ports", label, n)
	}
	appendPart("Danger", len(danger))
	appendPart("Warning", len(warning))
	appendPart("Caution", len(caution))

	body := []any{
		container("attention", []any{
			textBlock("Port Weather Risk Alert", map[string]any{
				"weight": "Bolder", "size": "ExtraLarge",
			}),
			textBlock(fmt.Sprintf("Updated %s", c.clock.Now().Format("2006-01-02 15:04")), map[string]any{
				"isSubtle": true, "spacing": "None",
			}),
		}),
		map[string]any{
			"type":    "Container",
			"spacing": "Medium",
			"items": []any{
				textBlock(summary, map[string]any{"wrap": true, "weight": "Bolder", "size": "Large"}),
			},
		},
	}

	body = append(body, severitySection("Danger", "attention", danger)...)
	body = append(body, severitySection("Warning", "warning", warning)...)
	body = append(body, severitySection("Caution", "accent", caution)...)

	body = append(body, map[string]any{
		"type":      "Container",
		"spacing":   "Large",
		"separator": true,
		"items": []any{
			textBlock("Fleet PICs: please mind vessel safety at the listed ports and take precautions in advance.", map[string]any{
				"wrap": true, "color": "Warning", "weight": "Bolder",
			}),
		},
	})

	return card(body)
}

// bucket selects assessments at exactly the given level, sorted by extremal
// wind speed descending. The sort is the truncation order, so it must stay
// deterministic.
func bucket(assessments []entities.RiskAssessment, level entities.RiskLevel) []entities.RiskAssessment {
	var out []entities.RiskAssessment
	for _, a := range assessments {
		if a.Level == level {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MaxWindKts > out[j].MaxWindKts
	})
	return out
}

// severitySection renders one bucket: a heading, up to DisplayCap port
// containers, and an explicit "+N more" trailer when truncated.
func severitySection(label, style string, ports []entities.RiskAssessment) []any {
	if len(ports) == 0 {
		return nil
	}

	items := []any{
		map[string]any{
			"type":      "Container",
			"style":     style,
			"spacing":   "Large",
			"separator": true,
			"items": []any{
				textBlock(fmt.Sprintf("%s Level Ports", label), map[string]any{
					"weight": "Bolder", "size": "Large",
				}),
			},
		},
	}

	shown := ports
	if len(shown) > DisplayCap {
		shown = shown[:DisplayCap]
	}
	for _, a := range shown {
		items = append(items, portContainer(a))
	}

	if len(ports) > DisplayCap {
		items = append(items, textBlock(
			fmt.Sprintf("... and %d more %s level ports", len(ports)-DisplayCap, label),
			map[string]any{"isSubtle": true, "spacing": "Small"},
		))
	}

	return items
}

func portContainer(a entities.RiskAssessment) map[string]any {
	severePeriods := 0
	for _, p := range a.RiskPeriods {
		if p.Level >= entities.RiskWarning {
			severePeriods++
		}
	}
	periodText := fmt.Sprintf("%d risk periods", len(a.RiskPeriods))
	if severePeriods > 0 {
		periodText += fmt.Sprintf(" (%d at warning/danger level)", severePeriods)
	}

	items := []any{
		textBlock(fmt.Sprintf("**%s** (%s)", a.PortName, a.PortCode), map[string]any{
			"weight": "Bolder", "size": "Medium", "wrap": true,
		}),
		textBlock(a.Country, map[string]any{"isSubtle": true, "spacing": "None"}),
		map[string]any{
			"type":    "FactSet",
			"spacing": "Small",
			"facts": []any{
				fact("Max wind:", fmt.Sprintf("**%.1f kts** (BFT %d) @ %s",
					a.MaxWindKts, a.MaxWindBft, a.MaxWindTime.Format("2006-01-02 15:04"))),
				fact("Max gust:", fmt.Sprintf("**%.1f kts** (BFT %d) @ %s",
					a.MaxGustKts, a.MaxGustBft, a.MaxGustTime.Format("2006-01-02 15:04"))),
				fact("Max wave:", fmt.Sprintf("**%.1f m**", a.MaxWaveM)),
				fact("Risk factors:", joinFactors(a.RiskFactors)),
				fact("Risk periods:", periodText),
			},
		},
	}

	if len(a.RiskPeriods) > 0 {
		periodItems := []any{
			textBlock("Main risk periods:", map[string]any{"weight": "Bolder", "size": "Small"}),
		}
		shown := a.RiskPeriods
		if len(shown) > maxPeriodsPerPort {
			shown = shown[:maxPeriodsPerPort]
		}
		for _, p := range shown {
			periodItems = append(periodItems, textBlock(
				fmt.Sprintf("**%s**: wind %.1f kts (BFT %d), gust %.1f kts (BFT %d), wave %.1f m",
					p.Time.Format("2006-01-02 15:04"),
					p.WindSpeedKts, p.WindSpeedBft,
					p.WindGustKts, p.WindGustBft,
					p.WaveHeightM),
				map[string]any{"wrap": true, "size": "Small", "spacing": "Small"},
			))
		}
		items = append(items, map[string]any{
			"type":    "Container",
			"spacing": "Small",
			"items":   periodItems,
		})
	}

	return map[string]any{
		"type":      "Container",
		"spacing":   "Medium",
		"separator": true,
		"items":     items,
	}
}

func joinFactors(factors []string) string {
	out := ""
	for i, f := range factors {
		if i > 0 {
			out += ", "
		}
		out += f
	}
	return out
}

func card(body []any) map[string]any {
	return map[string]any{
		"type": "message",
		"attachments": []any{
			map[string]any{
				"contentType": "application/vnd.microsoft.card.adaptive",
				"content": map[string]any{
					"$schema": "http://adaptivecards.io/schemas/adaptive-card.json",
					"type":    "AdaptiveCard",
					"version": "1.4",
					"body":    body,
				},
			},
		},
	}
}

func container(style string, items []any) map[string]any {
	return map[string]any{
		"type":  "Container",
		"style": style,
		"items": items,
	}
}

func textBlock(text string, extra map[string]any) map[string]any {
	block := map[string]any{
		"type": "TextBlock",
		"text": text,
	}
	for k, v := range extra {
		block[k] = v
	}
	return block
}

func fact(title, value string) map[string]any {
	return map[string]any{"title": title, "value": value}
}
