package model

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// SupportedExtensions lists the file types the extractor accepts.
var SupportedExtensions = map[string]struct{}{
	".pdf":  {},
	".txt":  {},
	".md":   {},
	".html": {},
	".htm":  {},
}

func IsSupported(filename string) bool {
	_, ok := SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// ExtractText pulls plain text out of a document file. It is a thin wrapper
// feeding the retrieval core; formatting fidelity is not a goal.
func ExtractText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("error reading file: %w", err)
		}
		return normalizeWhitespace(string(data)), nil
	case ".html", ".htm":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("error reading file: %w", err)
		}
		return stripHTML(string(data)), nil
	case ".pdf":
		return extractPDF(path)
	default:
		return "", fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

var (
	tagPattern    = regexp.MustCompile(`(?s)<(script|style)\b.*?</\w+>|<[^>]*>`)
	spacePattern  = regexp.MustCompile(`[ \t\r\f\v]+`)
	blankPattern  = regexp.MustCompile(`\n{3,}`)
	tjPattern     = regexp.MustCompile(`\(((?:\\.|[^\\()])*)\)`)
	escapePattern = regexp.MustCompile(`\\([()\\nrt])`)
)

func stripHTML(src string) string {
	text := tagPattern.ReplaceAllString(src, " ")
	return normalizeWhitespace(html.UnescapeString(text))
}

func normalizeWhitespace(text string) string {
	text = spacePattern.ReplaceAllString(text, " ")
	text = blankPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// extractPDF validates the file with pdfcpu, dumps the page content streams
// and decodes their text-showing operators. Layout is discarded.
func extractPDF(path string) (string, error) {
	conf := api.LoadConfiguration()

	if err := api.ValidateFile(path, conf); err != nil {
		return "", fmt.Errorf("invalid PDF: %w", err)
	}

	outDir, err := os.MkdirTemp("", "pdfextract")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		return "", fmt.Errorf("error extracting PDF content: %w", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(outDir, entry.Name()))
		if err != nil {
			continue
		}
		for _, m := range tjPattern.FindAllStringSubmatch(string(raw), -1) {
			sb.WriteString(unescapePDFString(m[1]))
			sb.WriteString(" ")
		}
		sb.WriteString("\n")
	}

	text := normalizeWhitespace(sb.String())
	if text == "" {
		return "", fmt.Errorf("no extractable text in %s", filepath.Base(path))
	}
	return text, nil
}

func unescapePDFString(s string) string {
	return escapePattern.ReplaceAllStringFunc(s, func(m string) string {
		switch m[1] {
		case 'n':
			return "\n"
		case 'r', 't':
			return " "
		default:
			return string(m[1])
		}
	})
}
