// Package llm - extractor.go provides generic LLM-based structured extraction prompts.
package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema defines the structure for LLM-based content extraction.
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "ResumeProfile")
	Description string        // System prompt preamble describing the extraction task
	Fields      []SchemaField // Expected output fields
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint shown to the model, e.g. `"string"` or `["string"]`
	Description string // Description for the LLM
	Required    bool   // Whether this field is required
}

// BuildExtractionPrompt constructs the LLM prompt from schema and input text.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	sb.WriteString("Return ONLY a single valid JSON object matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = `"string"`
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\": %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Extract information directly from the text, do not invent values.\n")
	sb.WriteString("- Use null for scalar fields that are absent and [] for absent lists.\n")
	sb.WriteString("- Return ONLY the JSON object: no surrounding prose, no markdown, no code fences.\n\n")

	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// ResumeProfileSchema returns the extraction schema for résumé profiles.
func ResumeProfileSchema() ExtractionSchema {
	return ExtractionSchema{
		Name: "ResumeProfile",
		Description: `You are an expert résumé parser. Your task is to extract the candidate's identity,
skills, education and work experience from the raw text of a résumé.
Copy names, e-mail addresses and phone numbers exactly as written.`,
		Fields: []SchemaField{
			{Name: "name", Type: `"string" | null`, Description: "Candidate's full name", Required: true},
			{Name: "email", Type: `"string" | null`, Description: "Candidate's e-mail address", Required: true},
			{Name: "phone", Type: `"string" | null`, Description: "Candidate's phone number, verbatim", Required: true},
			{Name: "skills", Type: `["string"]`, Description: "Short skill names, one per entry, in the order they appear", Required: true},
			{
				Name:        "education",
				Type:        `[{"degree": "string", "institution": "string", "year": "string"}]`,
				Description: "Degrees and certifications",
				Required:    true,
			},
			{
				Name:        "experience",
				Type:        `[{"role": "string", "company": "string", "duration": "string", "description": "string"}]`,
				Description: "Work history, most recent first",
				Required:    true,
			},
		},
	}
}
