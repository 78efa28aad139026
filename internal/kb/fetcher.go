package kb

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/jucity/ai-manager-backend/internal/apierr"
	"github.com/jucity/ai-manager-backend/internal/logger"
	"github.com/jucity/ai-manager-backend/internal/types"
)

// FetchedDocument is the plain-text form of one source plus the content
// hash used for change detection between reindex runs.
type FetchedDocument struct {
	Text        string
	Title       string
	SourceURL   string
	ContentType string
	TextHash    string
}

type Fetcher interface {
	FetchSource(ctx context.Context, source *types.KBSource) (*FetchedDocument, error)
}

type fetcher struct {
	log  *logger.Logger
	http *http.Client
}

func NewFetcher(log *logger.Logger) Fetcher {
	return &fetcher{
		log: log.With("service", "KBFetcher"),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (f *fetcher) FetchSource(ctx context.Context, source *types.KBSource) (*FetchedDocument, error) {
	title := ""
	if source.Title != nil {
		title = *source.Title
	}

	switch source.SourceType {
	case types.KBSourceTypeFile:
		if source.FilePath == nil || *source.FilePath == "" {
			return nil, apierr.Invalid("kb_source.file_path is required for source_type=file_path")
		}
		return f.fetchFile(*source.FilePath, title)

	case types.KBSourceTypeURL:
		if source.SourceURL == nil || *source.SourceURL == "" {
			return nil, apierr.Invalid("kb_source.source_url is required for source_type=url")
		}
		return f.fetchURL(ctx, *source.SourceURL, title)

	case types.KBSourceTypePDF:
		if source.FilePath != nil && *source.FilePath != "" {
			sourceURL := ""
			if source.SourceURL != nil {
				sourceURL = *source.SourceURL
			}
			return f.fetchPDFFile(*source.FilePath, title, sourceURL)
		}
		if source.SourceURL != nil && *source.SourceURL != "" {
			return f.fetchPDFURL(ctx, *source.SourceURL, title)
		}
		return nil, apierr.Invalid("kb_source requires file_path or source_url for source_type=pdf")
	}

	return nil, apierr.Invalid("unsupported source_type %q", source.SourceType)
}

func (f *fetcher) fetchFile(filePath, title string) (*FetchedDocument, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read kb source file: %w", err)
	}

	lower := strings.ToLower(filePath)
	var text, ct string
	if strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm") {
		text = htmlToText(string(raw))
		ct = "text/html"
	} else {
		text = string(raw)
		ct = "text/plain"
	}

	return &FetchedDocument{
		Text:        strings.TrimSpace(text),
		Title:       title,
		ContentType: ct,
		TextHash:    hashText(text),
	}, nil
}

func (f *fetcher) fetchURL(ctx context.Context, rawURL, title string) (*FetchedDocument, error) {
	body, ct, err := f.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if ct == "application/pdf" || strings.HasSuffix(strings.ToLower(rawURL), ".pdf") {
		return f.pdfDocument(body, title, rawURL, ct)
	}

	text := htmlToText(string(body))
	if ct == "" {
		ct = "text/html"
	}
	return &FetchedDocument{
		Text:        strings.TrimSpace(text),
		Title:       title,
		SourceURL:   rawURL,
		ContentType: ct,
		TextHash:    hashText(text),
	}, nil
}

func (f *fetcher) fetchPDFURL(ctx context.Context, rawURL, title string) (*FetchedDocument, error) {
	body, ct, err := f.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if ct == "" {
		ct = "application/pdf"
	}
	return f.pdfDocument(body, title, rawURL, ct)
}

func (f *fetcher) fetchPDFFile(filePath, title, sourceURL string) (*FetchedDocument, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read kb source pdf: %w", err)
	}
	return f.pdfDocument(raw, title, sourceURL, "application/pdf")
}

func (f *fetcher) pdfDocument(data []byte, title, sourceURL, ct string) (*FetchedDocument, error) {
	text, err := pdfBytesToText(data)
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}
	return &FetchedDocument{
		Text:        strings.TrimSpace(text),
		Title:       title,
		SourceURL:   sourceURL,
		ContentType: ct,
		TextHash:    hashText(text),
	}, nil
}

func (f *fetcher) get(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build kb fetch request: %w", err)
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, "", apierr.Upstream(fmt.Errorf("fetch %s: %w", rawURL, err))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", apierr.Upstream(fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", apierr.Upstream(fmt.Errorf("read %s: %w", rawURL, err))
	}
	ct := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	return body, ct, nil
}

var (
	scriptBlockRE  = regexp.MustCompile(`(?is)<(script|style|noscript)[^>]*>.*?</(script|style|noscript)>`)
	bretagRE       = regexp.MustCompile(`(?is)<br\s*/?>`)
	blockCloseRE   = regexp.MustCompile(`(?is)</(p|div|li|h\d)>`)
	anyTagRE       = regexp.MustCompile(`(?is)<[^>]*>`)
	spaceRunRE     = regexp.MustCompile(`[ \t]+`)
	blankLineRunRE = regexp.MustCompile(`\n{3,}`)
)

// htmlToText strips markup down to readable plain text, keeping block
// boundaries as newlines.
func htmlToText(html string) string {
	html = scriptBlockRE.ReplaceAllString(html, " ")
	html = bretagRE.ReplaceAllString(html, "\n")
	html = blockCloseRE.ReplaceAllString(html, "\n")
	html = anyTagRE.ReplaceAllString(html, " ")
	html = spaceRunRE.ReplaceAllString(html, " ")
	html = blankLineRunRE.ReplaceAllString(html, "\n\n")
	return strings.TrimSpace(html)
}

// hashText hashes a whitespace- and case-normalized form so cosmetic
// edits do not force a re-embed.
func hashText(text string) string {
	text = strings.ReplaceAll(text, " ", " ")
	text = spaceRunRE.ReplaceAllString(text, " ")
	text = blankLineRunRE.ReplaceAllString(text, "\n\n")
	text = strings.ToLower(strings.TrimSpace(text))
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func pdfBytesToText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var parts []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		txt, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		parts = append(parts, txt)
	}
	text := strings.Join(parts, "\n")
	text = strings.ReplaceAll(text, " ", " ")
	text = spaceRunRE.ReplaceAllString(text, " ")
	text = blankLineRunRE.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text), nil
}
