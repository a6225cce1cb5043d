package safety

import "strings"

const maxAlternatives = 5

const consultFooter = "For your safety, please consult with:\n" +
	"• Your healthcare provider\n" +
	"• A certified yoga therapist\n" +
	"• A qualified instructor experienced with your condition\n\n" +
	"Yoga can be beneficial when practiced safely with professional guidance."

// Messenger turns matched categories into the human-facing safety notice and
// the safer-practice suggestion list.
type Messenger struct {
	tables *Tables
	byName map[string]*CategoryRule
}

func NewMessenger(tables *Tables) *Messenger {
	if tables == nil {
		tables = DefaultTables()
	}
	byName := make(map[string]*CategoryRule, len(tables.Categories))
	for i := range tables.Categories {
		byName[tables.Categories[i].Name] = &tables.Categories[i]
	}
	return &Messenger{tables: tables, byName: byName}
}

// Message concatenates the per-category risk descriptions into one notice
// with a fixed consultation footer. Unknown categories are skipped.
func (m *Messenger) Message(categories []string) string {
	var descriptions []string
	for _, name := range categories {
		if rule, ok := m.byName[name]; ok {
			descriptions = append(descriptions, rule.Message)
		}
	}

	return "⚠️ IMPORTANT SAFETY NOTICE\n\n" +
		strings.Join(descriptions, " ") + "\n\n" + consultFooter
}

// Alternatives unions the suggestion lists of the given categories,
// deduplicated by exact string in category-then-list order, capped at five.
func (m *Messenger) Alternatives(categories []string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, name := range categories {
		rule, ok := m.byName[name]
		if !ok {
			continue
		}
		for _, alt := range rule.Alternatives {
			if seen[alt] {
				continue
			}
			seen[alt] = true
			out = append(out, alt)
			if len(out) == maxAlternatives {
				return out
			}
		}
	}
	return out
}
