package generate

import "github.com/mind-engage/worksheets/internal/llm"

// DraftSchema is the structured output requested from the model.
var DraftSchema = &llm.Schema{
	Name:        "worksheet-draft",
	Description: "A self-contained HTML maths worksheet with its title and a one-line summary",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "Short worksheet title",
				"minLength":   1,
			},
			"summary": map[string]any{
				"type":        "string",
				"description": "One sentence describing the worksheet for the library listing",
			},
			"html": map[string]any{
				"type":        "string",
				"description": "Worksheet body HTML with answers on data-answer attributes",
				"minLength":   1,
			},
		},
		"required":             []any{"title", "summary", "html"},
		"additionalProperties": false,
	},
}
