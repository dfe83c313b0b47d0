package remediation

import "AEOAuditor/internal/domain"

const schemaContext = "https://schema.org"

// AboutSchema is a WebPage whose "about" list names the given entities.
func AboutSchema(entities []domain.EntityMention) map[string]any {
	about := make([]map[string]any, 0, len(entities))
	for _, e := range entities {
		if e.Name == "" {
			continue
		}
		about = append(about, map[string]any{
			"@type": "Thing",
			"name":  e.Name,
		})
	}
	return map[string]any{
		"@context": schemaContext,
		"@type":    "WebPage",
		"about":    about,
	}
}

// FAQSchema wraps one question and answer in an FAQPage.
func FAQSchema(question, answer string) map[string]any {
	return map[string]any{
		"@context": schemaContext,
		"@type":    "FAQPage",
		"mainEntity": []map[string]any{{
			"@type": "Question",
			"name":  question,
			"acceptedAnswer": map[string]any{
				"@type": "Answer",
				"text":  answer,
			},
		}},
	}
}
