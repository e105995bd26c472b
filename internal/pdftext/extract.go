// Package pdftext turns PDF documents into plain text.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/jonathan/career-path/internal/errs"
)

// Extract reads every page of a PDF in order and joins the page texts with "\n".
// Image-only pages yield empty text; there is no OCR.
func Extract(data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", &errs.InputError{Message: "empty PDF document"}
	}

	// The pdf package panics on some malformed object graphs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &errs.InputError{Message: "not a readable PDF document", Cause: fmt.Errorf("%v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &errs.InputError{Message: "not a readable PDF document", Cause: err}
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", &errs.InputError{Message: fmt.Sprintf("failed to read page %d", i), Cause: err}
		}
		pages = append(pages, pageText)
	}

	return strings.Join(pages, "\n"), nil
}

// ExtractFile reads the PDF at path and extracts its text.
func ExtractFile(path string) (string, error) {
	data, err := readLocal(path)
	if err != nil {
		return "", err
	}
	return Extract(data)
}

func readLocal(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &errs.InputError{Message: "file path is empty"}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &errs.NotFoundError{Resource: "file", ID: path, Cause: err}
		}
		return nil, &errs.InputError{Message: fmt.Sprintf("failed to read %s", path), Cause: err}
	}
	return data, nil
}
