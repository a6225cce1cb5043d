package safety

import (
	"strings"
	"unicode/utf8"

	"github.com/yogveda/backend/internal/models"
)

// shortQueryLimit is the trimmed length below which a cue-free, safety-clean
// query is treated as off-topic. Longer queries get the benefit of the doubt.
const shortQueryLimit = 100

// TopicFilter is the in-domain gate applied before the expensive pipeline
// stages.
type TopicFilter struct {
	cues []string
}

func NewTopicFilter(cues []string) *TopicFilter {
	if cues == nil {
		cues = DefaultTopicCues()
	}
	return &TopicFilter{cues: cues}
}

// InScope reports whether the query should proceed to retrieval. A query is
// rejected only when no domain cue appears anywhere in it, the safety
// classifier found nothing, and the trimmed query is short. Safety-flagged
// queries always pass: someone asking about yoga with a health condition
// must reach the safety-pivoted answer path.
func (f *TopicFilter) InScope(query string, assessment models.SafetyAssessment) bool {
	lower := strings.ToLower(query)
	for _, cue := range f.cues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	if assessment.IsUnsafe {
		return true
	}
	return utf8.RuneCountInString(strings.TrimSpace(query)) >= shortQueryLimit
}
