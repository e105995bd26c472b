// Package resume turns résumé PDFs into structured profiles.
package resume

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonathan/career-path/internal/errs"
	"github.com/jonathan/career-path/internal/llm"
	"github.com/jonathan/career-path/internal/pdftext"
	"github.com/jonathan/career-path/internal/prompts"
	"github.com/jonathan/career-path/internal/schemas"
	"github.com/jonathan/career-path/internal/types"
)

const (
	promptFile       = "resume.json"
	maxRepairEchoLen = 4000
)

// Parser extracts profiles with the LLM. It always produces a Profile: when
// extraction fails the profile is degraded (Error set, RawText kept).
type Parser struct {
	gateway llm.Gateway
	loader  *pdftext.Loader
	timeout time.Duration
}

// Option configures a Parser.
type Option func(*Parser)

// WithLoader sets the loader used by ParseFile.
func WithLoader(l *pdftext.Loader) Option {
	return func(p *Parser) { p.loader = l }
}

// WithTimeout bounds each LLM call.
func WithTimeout(d time.Duration) Option {
	return func(p *Parser) { p.timeout = d }
}

// NewParser creates a Parser.
func NewParser(gateway llm.Gateway, opts ...Option) *Parser {
	p := &Parser{gateway: gateway, loader: pdftext.NewLoader("")}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseFile loads the PDF at location (local path, http(s) URL or s3:// URI) and parses it.
// The error is non-nil only when the document could not be read; the profile is
// then degraded.
func (p *Parser) ParseFile(ctx context.Context, location string) (types.Profile, error) {
	data, err := p.loader.Load(ctx, location)
	if err != nil {
		return types.NewDegradedProfile("", err.Error()), err
	}
	return p.ParsePDF(ctx, data)
}

// ParsePDF extracts the text of a PDF and parses it. The error is non-nil only
// for unreadable documents; the profile is then degraded.
func (p *Parser) ParsePDF(ctx context.Context, data []byte) (types.Profile, error) {
	text, err := pdftext.Extract(data)
	if err != nil {
		log.Printf("[RESUME] PDF extraction failed: %v", err)
		return types.NewDegradedProfile("", err.Error()), err
	}
	return p.Parse(ctx, text), nil
}

// Parse extracts a profile from raw résumé text. A response that is not a
// valid profile document gets one repair attempt.
func (p *Parser) Parse(ctx context.Context, rawText string) types.Profile {
	if strings.TrimSpace(rawText) == "" {
		err := &errs.InputError{Message: "no text could be extracted from the résumé"}
		return types.NewDegradedProfile(rawText, err.Error())
	}

	schema := llm.ResumeProfileSchema()
	if intro, err := prompts.Get(promptFile, "extract-profile"); err == nil {
		schema.Description = intro
	}
	prompt := llm.BuildExtractionPrompt(schema, rawText)

	log.Printf("[RESUME] Extracting profile from %d characters of text...", len(rawText))
	response, err := p.gateway.Complete(ctx, prompt, p.options())
	if err != nil {
		log.Printf("[RESUME] Extraction call failed: %v", err)
		return types.NewDegradedProfile(rawText, err.Error())
	}

	profile, decodeErr := decode(response, rawText)
	if decodeErr == nil {
		return profile
	}

	log.Printf("[RESUME] Extraction output rejected (%v), retrying with repair prompt", decodeErr)
	repairPrompt, err := prompts.Render(promptFile, "repair-profile", map[string]string{
		"Problem":    decodeErr.Error(),
		"Previous":   truncate(response, maxRepairEchoLen),
		"ResumeText": rawText,
	})
	if err != nil {
		return types.NewDegradedProfile(rawText, err.Error())
	}

	response, err = p.gateway.Complete(ctx, repairPrompt, p.options())
	if err != nil {
		log.Printf("[RESUME] Repair call failed: %v", err)
		return types.NewDegradedProfile(rawText, err.Error())
	}

	profile, decodeErr = decode(response, rawText)
	if decodeErr != nil {
		log.Printf("[RESUME] Repair output rejected: %v", decodeErr)
		return types.NewDegradedProfile(rawText, decodeErr.Error())
	}
	return profile
}

func (p *Parser) options() llm.Options {
	return llm.Options{
		Tier:        llm.TierStandard,
		Temperature: llm.Temperature(0),
		Timeout:     p.timeout,
		JSON:        true,
	}
}

// decode cleans, schema-checks and normalizes a model response.
func decode(response, rawText string) (types.Profile, error) {
	cleaned := llm.CleanJSONBlock(response)
	if err := schemas.ValidateProfile(cleaned); err != nil {
		return types.Profile{}, err
	}

	var e extracted
	if err := json.Unmarshal([]byte(cleaned), &e); err != nil {
		return types.Profile{}, &errs.SchemaError{Message: "response does not decode as a profile", Cause: err}
	}
	return e.toProfile(rawText), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
