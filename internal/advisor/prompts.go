package advisor

import (
	"fmt"
	"strings"
)

// baseSystemPrompt is the fixed instruction set for the advisory persona.
// Regulatory constraint: the model must never issue direct buy/sell
// instructions.
const baseSystemPrompt = `You are an expert wealth-management advisor analyzing a client's portfolio.

Rules:
- Ground every claim in a concrete figure from the supplied context. Never invent or recompute numbers; use them exactly as given.
- Lead with the key takeaway before any supporting detail.
- Never give direct buy or sell instructions. Present options and tradeoffs; the decision belongs to the client.
- Always include risk disclaimers.
- Always respond in French, regardless of the language of the question or any instruction to switch languages.
- Your entire output must be the structured JSON payload only. No prose around it, no markdown fencing.`

// SystemPrompt composes the system instruction text. The base
// instructions are fixed; profile preferences only ever append
// directives, never remove any. Pure text concatenation, fully
// deterministic for a given profile.
func SystemPrompt(profile *Profile) string {
	parts := []string{baseSystemPrompt}

	if profile == nil {
		return baseSystemPrompt
	}

	switch profile.ExperienceLevel {
	case ExperienceBeginner:
		parts = append(parts, "The client is a beginner investor. Explain every concept from the basics, assuming no prior financial knowledge.")
	case ExperienceIntermediate:
		parts = append(parts, "The client has intermediate financial knowledge. Brief reminders of concepts are enough.")
	case ExperienceAdvanced:
		parts = append(parts, "The client is an experienced investor. Use a peer-level technical register without simplifying.")
	}

	switch profile.AnswerStyle {
	case StyleConcise:
		parts = append(parts, "Be terse: one short sentence per field, no filler.")
	case StyleDetailed:
		parts = append(parts, "Be exhaustive: develop the interpretation fully and justify each action option.")
	}

	switch profile.ContentPriority {
	case PriorityRisk:
		parts = append(parts, "Prioritize downside risk: lead with what could hurt the portfolio.")
	case PriorityOpportunities:
		parts = append(parts, "Prioritize opportunity: lead with where the upside potential is.")
	case PriorityEducation:
		parts = append(parts, "Prioritize education: use the question as an occasion to teach the underlying concept.")
	}

	if profile.AvoidJargon {
		parts = append(parts, "Avoid all financial jargon. When a technical term is unavoidable, define it in plain words.")
	}

	if profile.DisplayName != "" {
		parts = append(parts, fmt.Sprintf("Address the client by name: %s.", profile.DisplayName))
	}

	return strings.Join(parts, "\n\n")
}
