package kb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jucity/ai-manager-backend/internal/apierr"
	"github.com/jucity/ai-manager-backend/internal/logger"
	"github.com/jucity/ai-manager-backend/internal/types"
)

func testFetcher(t *testing.T) Fetcher {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewFetcher(log)
}

func TestHTMLToText(t *testing.T) {
	html := `<html><head><style>p{color:red}</style><script>var x=1;</script></head>` +
		`<body><p>Часы работы</p><div>10:00 — 22:00</div>Первая<br>Вторая</body></html>`
	got := htmlToText(html)
	for _, want := range []string{"Часы работы", "10:00 — 22:00", "Первая\nВторая"} {
		if !strings.Contains(got, want) {
			t.Fatalf("htmlToText missing %q in %q", want, got)
		}
	}
	if strings.Contains(got, "color:red") || strings.Contains(got, "var x=1") {
		t.Fatalf("style/script leaked into text: %q", got)
	}
}

func TestHashTextIgnoresCosmeticEdits(t *testing.T) {
	a := hashText("Часы  работы:\n\n\n10:00")
	b := hashText("часы работы:\n\n10:00")
	if a != b {
		t.Fatalf("cosmetic edits must not change the hash: %q vs %q", a, b)
	}
	c := hashText("часы работы: 11:00")
	if a == c {
		t.Fatalf("content edits must change the hash")
	}
}

func TestFetchSourceURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body><p>Правила парка</p></body></html>"))
	}))
	defer srv.Close()

	f := testFetcher(t)
	url := srv.URL + "/rules"
	doc, err := f.FetchSource(context.Background(), &types.KBSource{
		SourceType: types.KBSourceTypeURL,
		SourceURL:  &url,
	})
	if err != nil {
		t.Fatalf("FetchSource: %v", err)
	}
	if doc.Text != "Правила парка" {
		t.Fatalf("text: want=%q got=%q", "Правила парка", doc.Text)
	}
	if doc.SourceURL != url {
		t.Fatalf("source_url: want=%q got=%q", url, doc.SourceURL)
	}
	if doc.ContentType != "text/html" {
		t.Fatalf("content_type: want=%q got=%q", "text/html", doc.ContentType)
	}
	if doc.TextHash == "" {
		t.Fatalf("text hash must be set")
	}
}

func TestFetchSourceUpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := testFetcher(t)
	url := srv.URL
	_, err := f.FetchSource(context.Background(), &types.KBSource{
		SourceType: types.KBSourceTypeURL,
		SourceURL:  &url,
	})
	if err == nil {
		t.Fatalf("expected error for non-2xx response")
	}
	if status, _ := apierr.StatusOf(err); status != http.StatusBadGateway {
		t.Fatalf("status: want=502 got=%d", status)
	}
}

func TestFetchSourceValidation(t *testing.T) {
	f := testFetcher(t)
	cases := []*types.KBSource{
		{SourceType: types.KBSourceTypeURL},
		{SourceType: types.KBSourceTypeFile},
		{SourceType: types.KBSourceTypePDF},
		{SourceType: "rss"},
	}
	for _, src := range cases {
		_, err := f.FetchSource(context.Background(), src)
		if status, _ := apierr.StatusOf(err); status != http.StatusUnprocessableEntity {
			t.Fatalf("source_type=%s: want=422 got=%d", src.SourceType, status)
		}
	}
}
