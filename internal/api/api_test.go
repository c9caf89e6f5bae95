package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/rtfm/internal/apperr"
	"github.com/starford/rtfm/internal/docservice"
	"github.com/starford/rtfm/internal/journal"
	"github.com/starford/rtfm/internal/models"
	"github.com/starford/rtfm/internal/render"
	"github.com/starford/rtfm/internal/signature"
	"github.com/starford/rtfm/internal/testutil"
)

var testSite = models.SiteConfig{
	Site:  models.Site{Title: "RTFM", Tagline: "Read The F***ing Manual", Logo: "📚"},
	Links: models.Links{GitHub: "https://github.com/acme/docs"},
}

// fakePuller records webhook-triggered pulls.
type fakePuller struct {
	calls chan string
}

func (p *fakePuller) Pull(_ context.Context, trigger string) error {
	p.calls <- trigger
	return nil
}

// testEnv builds a router over files with a fake VCS.
func testEnv(t *testing.T, files map[string]string, v *testutil.FakeVCS, mutate func(*Options)) http.Handler {
	t.Helper()
	_, store := testutil.TestContent(t, files)
	if v == nil {
		v = &testutil.FakeVCS{}
	}
	opts := Options{
		Docs: docservice.NewService(store, v, render.NewGoldmark(), testutil.Logger()),
		Site: testSite,
	}
	if mutate != nil {
		mutate(&opts)
	}
	return NewRouter(opts)
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body errResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return body.Error
}

func TestConfig(t *testing.T) {
	router := testEnv(t, nil, nil, nil)
	w := do(t, router, http.MethodGet, "/config", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	want := `{"site":{"title":"RTFM","tagline":"Read The F***ing Manual","logo":"📚"},"links":{"github":"https://github.com/acme/docs"}}`
	if got := strings.TrimSpace(w.Body.String()); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestNav(t *testing.T) {
	router := testEnv(t, map[string]string{
		"index.md":          "# Home",
		"guides/install.md": "install",
	}, nil, nil)

	w := do(t, router, http.MethodGet, "/nav", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	want := `[{"type":"dir","name":"guides","title":"guides","children":[{"type":"file","name":"install.md","title":"install","path":"guides/install"}]}]`
	if got := strings.TrimSpace(w.Body.String()); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestDoc(t *testing.T) {
	v := &testutil.FakeVCS{Modified: map[string]string{"guides/install.md": "5 minutes ago"}}
	router := testEnv(t, map[string]string{
		"guides/install.md": "---\ntitle: Install\n---\n# Steps\n",
	}, v, nil)

	w := do(t, router, http.MethodGet, "/doc/guides/install", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var doc struct {
		FrontMatter  map[string]any `json:"frontmatter"`
		HTML         string         `json:"html"`
		Title        string         `json:"title"`
		LastModified string         `json:"lastModified"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Title != "Install" || doc.FrontMatter["title"] != "Install" {
		t.Errorf("doc = %+v", doc)
	}
	if !strings.Contains(doc.HTML, `<h1 id="steps">Steps</h1>`) {
		t.Errorf("html = %q", doc.HTML)
	}
	if doc.LastModified != "5 minutes ago" {
		t.Errorf("lastModified = %q", doc.LastModified)
	}
}

func TestDoc_EncodedSlash(t *testing.T) {
	router := testEnv(t, map[string]string{"guides/install.md": "x"}, nil, nil)
	w := do(t, router, http.MethodGet, "/doc/guides%2Finstall", nil, nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestDoc_DecodesPathOnce(t *testing.T) {
	router := testEnv(t, map[string]string{
		"a%41.md": "---\ntitle: Literal\n---\n",
		"aA.md":   "---\ntitle: Other\n---\n",
	}, nil, nil)

	w := do(t, router, http.MethodGet, "/doc/a%2541", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var doc struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Title != "Literal" {
		t.Errorf("title = %q, want Literal", doc.Title)
	}
}

func TestDoc_NonFiniteFrontMatter(t *testing.T) {
	router := testEnv(t, map[string]string{
		"weird.md": "---\nratio: .nan\nlimit: .inf\nfloor: -.inf\n---\n# Weird\n",
	}, nil, nil)

	w := do(t, router, http.MethodGet, "/doc/weird", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var doc struct {
		FrontMatter map[string]any `json:"frontmatter"`
		HTML        string         `json:"html"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("body = %q: %v", w.Body.String(), err)
	}
	for _, key := range []string{"ratio", "limit", "floor"} {
		v, ok := doc.FrontMatter[key]
		if !ok || v != nil {
			t.Errorf("frontmatter[%s] = %v, %v; want null", key, v, ok)
		}
	}
	if !strings.Contains(doc.HTML, "Weird") {
		t.Errorf("html = %q", doc.HTML)
	}
}

func TestDoc_NotFound(t *testing.T) {
	router := testEnv(t, nil, nil, nil)
	w := do(t, router, http.MethodGet, "/doc/missing", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if msg := decodeError(t, w); msg != "Document not found: missing" {
		t.Errorf("error = %q", msg)
	}
}

func TestDoc_TraversalIsNotFound(t *testing.T) {
	router := testEnv(t, nil, nil, nil)
	w := do(t, router, http.MethodGet, "/doc/..%2F..%2Fetc%2Fpasswd", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d", w.Code)
	}
}

func TestSearch(t *testing.T) {
	router := testEnv(t, map[string]string{
		"deploy.md": "ship it",
		"other.md":  "how to deploy\nsafely",
	}, nil, nil)

	w := do(t, router, http.MethodGet, "/search?q=deploy", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var hits []models.SearchResult
	if err := json.Unmarshal(w.Body.Bytes(), &hits); err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 || hits[0].Path != "deploy" || hits[1].Path != "other" {
		t.Errorf("hits = %+v", hits)
	}
	if hits[1].Preview != "how to deploy safely" {
		t.Errorf("preview = %q", hits[1].Preview)
	}
}

func TestSearch_ShortOrMissingQuery(t *testing.T) {
	router := testEnv(t, map[string]string{"a.md": "a"}, nil, nil)
	for _, target := range []string{"/search", "/search?q=a"} {
		w := do(t, router, http.MethodGet, target, nil, nil)
		if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
			t.Errorf("%s: status = %d, body = %s", target, w.Code, w.Body.String())
		}
	}
}

func TestCommit(t *testing.T) {
	head := models.CommitInfo{Hash: "abc1234", Message: "Update docs", Date: "2 hours ago"}
	router := testEnv(t, nil, &testutil.FakeVCS{Head: head}, nil)

	w := do(t, router, http.MethodGet, "/commit", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	want := `{"hash":"abc1234","message":"Update docs","date":"2 hours ago"}`
	if got := strings.TrimSpace(w.Body.String()); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestCommit_Failure(t *testing.T) {
	router := testEnv(t, nil, &testutil.FakeVCS{HeadErr: apperr.ErrUpstream}, nil)
	w := do(t, router, http.MethodGet, "/commit", nil, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if msg := decodeError(t, w); msg != "Failed to get commit info" {
		t.Errorf("error = %q", msg)
	}
}

func TestUnknownEndpoint(t *testing.T) {
	router := testEnv(t, nil, nil, nil)
	for _, target := range []string{"/nope", "/nav/extra", "/docs/x"} {
		w := do(t, router, http.MethodGet, target, nil, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d", target, w.Code)
			continue
		}
		if msg := decodeError(t, w); msg != "API endpoint not found" {
			t.Errorf("%s: error = %q", target, msg)
		}
	}
}

func TestWebhook_NoSecret(t *testing.T) {
	puller := &fakePuller{calls: make(chan string, 1)}
	router := testEnv(t, nil, nil, func(o *Options) { o.Syncer = puller })

	w := do(t, router, http.MethodPost, "/webhook", strings.NewReader(`{}`), nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"status":"accepted"}` {
		t.Errorf("body = %s", got)
	}
	select {
	case trigger := <-puller.calls:
		if trigger != "webhook" {
			t.Errorf("trigger = %q", trigger)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pull not triggered")
	}
}

func TestWebhook_Signature(t *testing.T) {
	puller := &fakePuller{calls: make(chan string, 1)}
	router := testEnv(t, nil, nil, func(o *Options) {
		o.Syncer = puller
		o.WebhookSecret = "s3cret"
	})
	body := []byte(`{"ref":"refs/heads/main"}`)

	w := do(t, router, http.MethodPost, "/webhook", bytes.NewReader(body), nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unsigned status = %d", w.Code)
	}

	bad := map[string]string{signature.Header: signature.Sign([]byte("wrong"), body)}
	w = do(t, router, http.MethodPost, "/webhook", bytes.NewReader(body), bad)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad signature status = %d", w.Code)
	}

	select {
	case <-puller.calls:
		t.Fatal("rejected request triggered a pull")
	default:
	}

	good := map[string]string{signature.Header: signature.Sign([]byte("s3cret"), body)}
	w = do(t, router, http.MethodPost, "/webhook", bytes.NewReader(body), good)
	if w.Code != http.StatusAccepted {
		t.Fatalf("signed status = %d", w.Code)
	}
	select {
	case <-puller.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("pull not triggered")
	}
}

func TestWebhook_Ping(t *testing.T) {
	puller := &fakePuller{calls: make(chan string, 1)}
	router := testEnv(t, nil, nil, func(o *Options) { o.Syncer = puller })

	w := do(t, router, http.MethodPost, "/webhook", strings.NewReader(`{}`), map[string]string{"X-GitHub-Event": "ping"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	select {
	case <-puller.calls:
		t.Fatal("ping triggered a pull")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWebhook_DisabledWithoutSyncer(t *testing.T) {
	router := testEnv(t, nil, nil, nil)
	w := do(t, router, http.MethodPost, "/webhook", strings.NewReader(`{}`), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d", w.Code)
	}
}

func TestSyncs(t *testing.T) {
	db, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		id, err := db.Start(ctx, "webhook")
		if err != nil {
			t.Fatal(err)
		}
		if err := db.Finish(ctx, id, "abc1234", nil); err != nil {
			t.Fatal(err)
		}
	}

	router := testEnv(t, nil, nil, func(o *Options) { o.Runs = db })
	w := do(t, router, http.MethodGet, "/syncs?limit=2", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var runs []journal.Run
	if err := json.Unmarshal(w.Body.Bytes(), &runs); err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].Trigger != "webhook" || runs[0].Status != journal.StatusOK {
		t.Errorf("runs = %+v", runs)
	}
}

func TestSyncs_NoJournal(t *testing.T) {
	router := testEnv(t, nil, nil, nil)
	w := do(t, router, http.MethodGet, "/syncs", nil, nil)
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}
}
