package advisor

import "time"

// Role identifies the author of a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn of the advisory conversation
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// AdvisoryRequest is the inbound payload for the advisory endpoint.
// The snapshots are optional; the context assembler skips any section
// whose source is absent.
type AdvisoryRequest struct {
	Messages  []Message          `json:"messages"`
	Portfolio *PortfolioSnapshot `json:"portfolio,omitempty"`
	Analytics *AnalyticsSnapshot `json:"analytics,omitempty"`
	News      *NewsItem          `json:"news,omitempty"`
	Profile   *Profile           `json:"profile,omitempty"`
}

// Question returns the content of the last user-role message, which is
// the question being answered. The second return is false when no user
// message exists.
func (r *AdvisoryRequest) Question() (string, bool) {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].Content, true
		}
	}
	return "", false
}

// Position is a single holding inside a portfolio snapshot
type Position struct {
	Ticker      string  `json:"ticker"`
	Name        string  `json:"name"`
	WeightPct   float64 `json:"weight_pct"`
	MarketValue float64 `json:"market_value"`
	PnL         float64 `json:"pnl"`
	PnLPct      float64 `json:"pnl_pct"`
}

// PortfolioSnapshot is a read-only view of the caller's portfolio,
// produced by the portfolio engine. Never mutated here.
type PortfolioSnapshot struct {
	Name          string     `json:"name"`
	Currency      string     `json:"currency,omitempty"`
	TotalValue    float64    `json:"total_value"`
	TotalPnL      float64    `json:"total_pnl"`
	TotalPnLPct   float64    `json:"total_pnl_pct"`
	PositionCount int        `json:"position_count"`
	Positions     []Position `json:"positions"`
}

// Concentration holds top-N weight metrics from the analytics engine
type Concentration struct {
	Top1WeightPct  float64  `json:"top1_weight_pct"`
	Top5WeightPct  float64  `json:"top5_weight_pct"`
	Top10WeightPct float64  `json:"top10_weight_pct"`
	TopPositions   []string `json:"top_positions,omitempty"`
}

// RiskFlag is an active risk warning raised by the analytics engine
type RiskFlag struct {
	Severity string `json:"severity"`
	Title    string `json:"title"`
}

// Scenario is a named stress scenario with its pre-computed impact
type Scenario struct {
	Name         string  `json:"name"`
	ImpactPct    float64 `json:"impact_pct"`
	ImpactAmount float64 `json:"impact_amount"`
}

// AnalyticsSnapshot is a read-only view of pre-computed portfolio
// analytics. All arithmetic happens upstream; this core only renders
// the numbers as text.
type AnalyticsSnapshot struct {
	Concentration *Concentration     `json:"concentration,omitempty"`
	ByAssetClass  map[string]float64 `json:"by_asset_class,omitempty"`
	ByCurrency    map[string]float64 `json:"by_currency,omitempty"`
	ByRegion      map[string]float64 `json:"by_region,omitempty"`
	RiskFlags     []RiskFlag         `json:"risk_flags,omitempty"`
	Scenarios     []Scenario         `json:"scenarios,omitempty"`
}

// NewsItem is the news article the user selected, if any
type NewsItem struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Source  string   `json:"source,omitempty"`
	Tickers []string `json:"tickers,omitempty"`
}

// ExperienceLevel grades how much financial background the user has
type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
)

// AnswerStyle controls how long answers should be
type AnswerStyle string

const (
	StyleConcise  AnswerStyle = "concise"
	StyleStandard AnswerStyle = "standard"
	StyleDetailed AnswerStyle = "detailed"
)

// ContentPriority selects what the answer should emphasize
type ContentPriority string

const (
	PriorityRisk          ContentPriority = "risk"
	PriorityOpportunities ContentPriority = "opportunities"
	PriorityEducation     ContentPriority = "education"
)

// Profile holds the user's personalization preferences, read-only
type Profile struct {
	ExperienceLevel ExperienceLevel `json:"experience_level,omitempty"`
	AnswerStyle     AnswerStyle     `json:"answer_style,omitempty"`
	ContentPriority ContentPriority `json:"content_priority,omitempty"`
	AvoidJargon     bool            `json:"avoid_jargon,omitempty"`
	DisplayName     string          `json:"display_name,omitempty"`
}

// Confidence is the model's self-reported grounding level
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// KeyNumber is one concrete figure the answer is built around
type KeyNumber struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Unit     string `json:"unit"`
	Evidence string `json:"evidence"`
}

// ActionOption is one possible course of action with its tradeoff
type ActionOption struct {
	Action   string `json:"action"`
	Why      string `json:"why"`
	Tradeoff string `json:"tradeoff"`
}

// StructuredResponse is the contract this service guarantees on
// success: either every field below is present and well-formed, or the
// request fails with a typed error. KeyNumbers always has 3 entries,
// PossibleActions and Disclaimers always have 2.
type StructuredResponse struct {
	Summary         string         `json:"summary"`
	KeyNumbers      []KeyNumber    `json:"key_numbers"`
	Interpretation  string         `json:"interpretation"`
	PossibleActions []ActionOption `json:"possible_actions"`
	MissingData     []string       `json:"missing_data"`
	Confidence      Confidence     `json:"confidence"`
	Disclaimers     []string       `json:"disclaimers"`
}

// AdvisoryResult wraps a validated response with the time it was produced
type AdvisoryResult struct {
	Structured *StructuredResponse `json:"structured"`
	Timestamp  time.Time           `json:"timestamp"`
}
