// Package compose builds the grounded answer: a mode-specific prompt over
// the retrieved context, sent to the generation service, with a
// deterministic template standing in whenever that service fails.
package compose

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yogveda/backend/internal/generation"
	"github.com/yogveda/backend/internal/models"
)

// NoInfoMessage is returned, without any generation call, when retrieval
// produced nothing to ground an answer on.
const NoInfoMessage = "I don't have specific information about that in my knowledge base. " +
	"Please try asking about yoga poses, breathing techniques, or meditation practices."

// FallbackModel names the deterministic composer in response metadata.
const FallbackModel = "fallback-template"

// Result distinguishes a genuine completion from a masked generation
// failure, so logging can tell them apart without error interception.
type Result struct {
	Answer   string
	Degraded bool
	Reason   string
	Model    string
}

type Composer struct {
	generator generation.Generator
	logger    *logrus.Logger
}

// NewComposer builds a composer. A nil generator selects the
// deterministic-only strategy: every answer comes from the fallback
// template.
func NewComposer(generator generation.Generator, logger *logrus.Logger) *Composer {
	return &Composer{generator: generator, logger: logger}
}

// Compose produces the answer for a query given its retrieved context and
// safety verdict. Generation failures never surface as errors: the result
// is degraded to the template answer and the pipeline continues.
func (c *Composer) Compose(ctx context.Context, query string, matches []models.RetrievalMatch, assessment models.SafetyAssessment) Result {
	if len(matches) == 0 {
		return Result{Answer: NoInfoMessage, Model: FallbackModel}
	}

	if c.generator == nil {
		return Result{
			Answer: c.fallbackAnswer(matches, assessment),
			Model:  FallbackModel,
		}
	}

	prompt := c.buildPrompt(query, matches, assessment)

	answer, err := c.generator.Complete(ctx, prompt)
	if err != nil {
		c.logger.WithError(err).Warn("Generation failed, using fallback composer")
		return Result{
			Answer:   c.fallbackAnswer(matches, assessment),
			Degraded: true,
			Reason:   err.Error(),
			Model:    FallbackModel,
		}
	}

	return Result{Answer: answer, Model: c.generator.Model()}
}

func (c *Composer) buildPrompt(query string, matches []models.RetrievalMatch, assessment models.SafetyAssessment) string {
	blocks := make([]string, len(matches))
	for i, match := range matches {
		blocks[i] = fmt.Sprintf("[Source %d: %s]\n%s", i+1, match.Title, match.Content)
	}
	contextText := strings.Join(blocks, "\n\n---\n\n")

	if assessment.IsUnsafe {
		return fmt.Sprintf(`You are a knowledgeable yoga wellness assistant providing SAFE guidance.

CRITICAL: User mentioned health conditions: %s

Context from Authoritative Sources:
%s

User Question: %s

SAFETY-FIRST INSTRUCTIONS:
1. Start by acknowledging the health condition mentioned
2. Provide ONLY general information from the context - NO specific medical advice
3. Suggest safer alternatives (breathing exercises, gentle poses, meditation)
4. Keep response under 150 words
5. End with: "Please consult your healthcare provider or certified yoga therapist before practicing."

Provide a brief, safe response:`, strings.Join(assessment.Keywords, ", "), contextText, query)
	}

	return fmt.Sprintf(`You are a knowledgeable yoga wellness assistant with STRICT boundaries.

Context from Ministry of Ayush - Common Yoga Protocol:
%s

User Question: %s

CRITICAL INSTRUCTIONS:
1. ONLY answer if the question is about yoga, meditation, pranayama, asanas, or wellness practices
2. If the question is NOT related to yoga (e.g., "hi", "hello", random topics), respond EXACTLY with:
   "I'm a yoga wellness assistant and can only answer questions about yoga practice, poses, breathing techniques, and meditation. Please ask me something related to yoga!"
3. If the context doesn't contain relevant information for a yoga question, say:
   "I don't have specific information about that in my yoga knowledge base. Please ask about common yoga poses, breathing techniques, or meditation practices."
4. Keep responses concise (100-150 words maximum)
5. Reference sources naturally when answering
6. NEVER provide medical diagnosis or treatment

Provide a focused answer ONLY if it's about yoga:`, contextText, query)
}

// fallbackAnswer summarizes the top-ranked match without any external call.
func (c *Composer) fallbackAnswer(matches []models.RetrievalMatch, assessment models.SafetyAssessment) string {
	top := matches[0]

	brief := top.Content
	if runes := []rune(brief); len(runes) > 250 {
		brief = strings.TrimSpace(string(runes[:250])) + "..."
	}

	var sb strings.Builder
	if assessment.IsUnsafe && len(assessment.Keywords) > 0 {
		fmt.Fprintf(&sb, "Since you mentioned %s, please practice carefully. ", assessment.Keywords[0])
	}
	fmt.Fprintf(&sb, "Based on %s: %s", top.Title, brief)

	if assessment.IsUnsafe {
		sb.WriteString("\n\nPlease consult your doctor or a certified yoga therapist before practicing.")
	} else {
		sb.WriteString("\n\nPractice mindfully and listen to your body.")
	}

	return sb.String()
}
