package advisor

import (
	"fmt"
	"sort"
	"strings"
)

const (
	maxHoldingsInContext     = 8
	concentrationAlertWeight = 10.0
	defaultCurrencySymbol    = "€"
)

// BuildContext serializes the caller's snapshots into a single bounded
// text block with a fixed section order. Every number is pre-rendered
// with its unit so the model never has to compute or re-derive a figure;
// it only narrates over what it is handed. Sections whose source input
// is absent are omitted entirely. Pure function of its inputs.
func BuildContext(portfolio *PortfolioSnapshot, analytics *AnalyticsSnapshot, news *NewsItem, profile *Profile) string {
	var parts []string

	cur := defaultCurrencySymbol
	if portfolio != nil && portfolio.Currency != "" {
		cur = portfolio.Currency
	}

	if portfolio != nil {
		parts = append(parts, "## Portfolio Snapshot\n")
		parts = append(parts, fmt.Sprintf("Name: %s\n", portfolio.Name))
		parts = append(parts, fmt.Sprintf("Total Value: %s%.2f\n", cur, portfolio.TotalValue))
		parts = append(parts, fmt.Sprintf("Total P&L: %s%.2f (%.2f%%)\n", cur, portfolio.TotalPnL, portfolio.TotalPnLPct))
		parts = append(parts, fmt.Sprintf("Positions: %d\n", portfolio.PositionCount))

		if len(portfolio.Positions) > 0 {
			parts = append(parts, "\n## Top Holdings\n")
			sorted := make([]Position, len(portfolio.Positions))
			copy(sorted, portfolio.Positions)
			sort.SliceStable(sorted, func(i, j int) bool {
				return sorted[i].WeightPct > sorted[j].WeightPct
			})

			holdings := sorted
			if len(holdings) > maxHoldingsInContext {
				holdings = holdings[:maxHoldingsInContext]
			}
			for i, pos := range holdings {
				parts = append(parts, fmt.Sprintf("%d. %s (%s): %.2f%% of portfolio, %s%.2f, P&L %s%.2f\n",
					i+1, pos.Ticker, pos.Name, pos.WeightPct, cur, pos.MarketValue, cur, pos.PnL))
			}

			// Alerts cover every position over the threshold, including
			// those that fell outside the top-holdings listing.
			var concentrated []Position
			for _, pos := range sorted {
				if pos.WeightPct > concentrationAlertWeight {
					concentrated = append(concentrated, pos)
				}
			}
			if len(concentrated) > 0 {
				parts = append(parts, "\n## Concentration Alerts\n")
				for _, pos := range concentrated {
					parts = append(parts, fmt.Sprintf("- %s holds %.2f%% of the portfolio (above the %.0f%% threshold)\n",
						pos.Ticker, pos.WeightPct, concentrationAlertWeight))
				}
			}
		}
	}

	if analytics != nil {
		if c := analytics.Concentration; c != nil {
			parts = append(parts, "\n## Concentration Analysis\n")
			parts = append(parts, fmt.Sprintf("Top 1 position: %.2f%% of portfolio\n", c.Top1WeightPct))
			parts = append(parts, fmt.Sprintf("Top 5 positions: %.2f%% of portfolio\n", c.Top5WeightPct))
			if len(c.TopPositions) > 0 {
				parts = append(parts, fmt.Sprintf("Largest positions: %s\n", strings.Join(c.TopPositions, ", ")))
			}
		}

		if len(analytics.ByAssetClass) > 0 {
			parts = append(parts, "\n## Asset Class Allocation\n")
			parts = append(parts, formatAllocation(analytics.ByAssetClass))
		}
		if len(analytics.ByCurrency) > 0 {
			parts = append(parts, "\n## Currency Exposure\n")
			parts = append(parts, formatAllocation(analytics.ByCurrency))
		}
		if len(analytics.ByRegion) > 0 {
			parts = append(parts, "\n## Geographic Exposure\n")
			parts = append(parts, formatAllocation(analytics.ByRegion))
		}

		if len(analytics.RiskFlags) > 0 {
			parts = append(parts, "\n## Active Risk Flags\n")
			for _, flag := range analytics.RiskFlags {
				parts = append(parts, fmt.Sprintf("- [%s] %s\n", strings.ToUpper(flag.Severity), flag.Title))
			}
		}

		if len(analytics.Scenarios) > 0 {
			parts = append(parts, "\n## Scenario Sensitivities\n")
			for _, s := range analytics.Scenarios {
				parts = append(parts, fmt.Sprintf("- %s: %+.2f%% (%s%+.2f)\n", s.Name, s.ImpactPct, cur, s.ImpactAmount))
			}
		}
	}

	if news != nil {
		parts = append(parts, "\n## News Context\n")
		parts = append(parts, fmt.Sprintf("Title: %s\n", news.Title))
		if news.Source != "" {
			parts = append(parts, fmt.Sprintf("Source: %s\n", news.Source))
		}
		if news.Summary != "" {
			parts = append(parts, fmt.Sprintf("Summary: %s\n", news.Summary))
		}
		if len(news.Tickers) > 0 {
			parts = append(parts, fmt.Sprintf("Related tickers: %s\n", strings.Join(news.Tickers, ", ")))
		}
	}

	if profile != nil {
		parts = append(parts, "\n## User Profile\n")
		if profile.DisplayName != "" {
			parts = append(parts, fmt.Sprintf("Name: %s\n", profile.DisplayName))
		}
		if profile.ExperienceLevel != "" {
			parts = append(parts, fmt.Sprintf("Experience level: %s\n", profile.ExperienceLevel))
		}
		if profile.AnswerStyle != "" {
			parts = append(parts, fmt.Sprintf("Preferred answer style: %s\n", profile.AnswerStyle))
		}
		if profile.ContentPriority != "" {
			parts = append(parts, fmt.Sprintf("Content priority: %s\n", profile.ContentPriority))
		}
		parts = append(parts, behavioralDirectives(profile))
	}

	return strings.TrimSpace(strings.Join(parts, ""))
}

// behavioralDirectives translates profile preferences into explicit
// adaptation instructions appended to the context block.
func behavioralDirectives(profile *Profile) string {
	var lines []string
	lines = append(lines, "\nAdapt your answer to this user:\n")

	switch profile.ExperienceLevel {
	case ExperienceBeginner:
		lines = append(lines, "- The user is a beginner: explain concepts from first principles.\n")
	case ExperienceAdvanced:
		lines = append(lines, "- The user is advanced: skip basic explanations, speak peer-to-peer.\n")
	}
	switch profile.AnswerStyle {
	case StyleConcise:
		lines = append(lines, "- Keep the answer short and to the point.\n")
	case StyleDetailed:
		lines = append(lines, "- Provide a thorough, detailed answer.\n")
	}
	switch profile.ContentPriority {
	case PriorityRisk:
		lines = append(lines, "- Emphasize downside risks before anything else.\n")
	case PriorityOpportunities:
		lines = append(lines, "- Emphasize opportunities and potential upside.\n")
	case PriorityEducation:
		lines = append(lines, "- Frame the answer as a learning opportunity.\n")
	}
	if profile.AvoidJargon {
		lines = append(lines, "- Avoid financial jargon; use plain language.\n")
	}

	return strings.Join(lines, "")
}

func formatAllocation(breakdown map[string]float64) string {
	keys := make([]string, 0, len(breakdown))
	for k := range breakdown {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var lines []string
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("- %s: %.2f%%\n", k, breakdown[k]))
	}
	return strings.Join(lines, "")
}
