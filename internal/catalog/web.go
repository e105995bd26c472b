package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/career-path/internal/errs"
	"github.com/jonathan/career-path/internal/fetch"
)

// MaxPageDescription caps the description taken from a web page, in runes.
const MaxPageDescription = 4000

// FromPage builds a catalog entry from a career page. An empty role falls back
// to the page's first heading, then its title.
func FromPage(ctx context.Context, pageURL, role, category string, opts *fetch.Options) (Entry, error) {
	if !fetch.IsURL(pageURL) {
		return Entry{}, &errs.InputError{Message: fmt.Sprintf("not an http(s) URL: %q", pageURL)}
	}
	result, err := fetch.URL(ctx, pageURL, opts)
	if err != nil {
		return Entry{}, err
	}
	page, err := fetch.ExtractPage(string(result.Body))
	if err != nil {
		return Entry{}, err
	}
	return entryFromPage(page, role, category)
}

func entryFromPage(page fetch.Page, role, category string) (Entry, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		role = page.Heading
	}
	if role == "" {
		role = page.Title
	}

	description := page.Text
	if runes := []rune(description); len(runes) > MaxPageDescription {
		description = strings.TrimSpace(string(runes[:MaxPageDescription]))
	}

	e := Entry{
		Role:        strings.TrimSpace(role),
		Description: strings.TrimSpace(description),
		Category:    strings.TrimSpace(category),
	}
	if err := validate.Struct(e); err != nil {
		return Entry{}, &errs.InputError{Message: "page does not yield a valid catalog entry", Cause: err}
	}
	e.ID = Slug(e.Role)
	if e.ID == "" {
		return Entry{}, &errs.InputError{Message: fmt.Sprintf("role %q yields an empty id", e.Role)}
	}
	return e, nil
}
