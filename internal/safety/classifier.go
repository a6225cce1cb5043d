// Package safety decides whether a query mentions health conditions that need
// professional guidance, and produces the warning and safer-practice
// suggestions shown alongside the answer.
package safety

import (
	"strings"

	"github.com/yogveda/backend/internal/models"
)

// Assessor maps a query to its safety verdict. Implementations must be pure:
// same query, same assessment.
type Assessor interface {
	Assess(query string) models.SafetyAssessment
}

// Classifier is the keyword-table Assessor. Every category is always scanned
// in full, so a query can land in several categories at once.
type Classifier struct {
	tables *Tables
}

func NewClassifier(tables *Tables) *Classifier {
	if tables == nil {
		tables = DefaultTables()
	}
	return &Classifier{tables: tables}
}

// Assess runs a case-insensitive substring scan of every trigger phrase over
// the query. Keywords and categories keep first-seen order without
// duplicates; the query is unsafe iff at least one phrase matched.
func (c *Classifier) Assess(query string) models.SafetyAssessment {
	lower := strings.ToLower(query)

	keywords := []string{}
	categories := []string{}
	seenKeyword := make(map[string]bool)
	seenCategory := make(map[string]bool)

	for _, cat := range c.tables.Categories {
		for _, kw := range cat.Keywords {
			if !strings.Contains(lower, strings.ToLower(kw)) {
				continue
			}
			if !seenKeyword[kw] {
				seenKeyword[kw] = true
				keywords = append(keywords, kw)
			}
			if !seenCategory[cat.Name] {
				seenCategory[cat.Name] = true
				categories = append(categories, cat.Name)
			}
		}
	}

	return models.SafetyAssessment{
		IsUnsafe:   len(keywords) > 0,
		Keywords:   keywords,
		Categories: categories,
	}
}
