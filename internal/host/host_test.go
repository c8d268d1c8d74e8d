package host

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/semantic-composer/internal/config"
	"github.com/debemdeboas/semantic-composer/internal/routes"
	"github.com/debemdeboas/semantic-composer/internal/storage"
)

type testClient struct {
	t      *testing.T
	host   *Host
	store  *storage.MemoryStore
	server *httptest.Server
	client *http.Client
}

func newTestClient(t *testing.T, mutate func(*config.Config)) *testClient {
	t.Helper()

	cfg := config.Default()
	cfg.Storage.Backend = storage.BackendMemory
	cfg.Composer.AutoSaveInterval = time.Hour
	if mutate != nil {
		mutate(cfg)
	}

	store := storage.NewMemoryStore()
	h, err := New(cfg, store, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	server := httptest.NewServer(h.Handler())

	jar, _ := cookiejar.New(nil)
	tc := &testClient{
		t:      t,
		host:   h,
		store:  store,
		server: server,
		client: &http.Client{Jar: jar},
	}
	t.Cleanup(func() {
		h.Close()
		server.Close()
	})
	return tc
}

func (c *testClient) do(method, path string, body io.Reader, contentType string) *http.Response {
	c.t.Helper()
	req, err := http.NewRequest(method, c.server.URL+path, body)
	if err != nil {
		c.t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set(config.HCType, contentType)
	}
	res, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	c.t.Cleanup(func() { res.Body.Close() })
	return res
}

func (c *testClient) form(method, path string, values url.Values) *http.Response {
	c.t.Helper()
	return c.do(method, path, strings.NewReader(values.Encode()), "application/x-www-form-urlencoded")
}

func (c *testClient) state(res *http.Response) State {
	c.t.Helper()
	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		c.t.Fatalf("status %d: %s", res.StatusCode, body)
	}
	var s State
	if err := json.NewDecoder(res.Body).Decode(&s); err != nil {
		c.t.Fatalf("decode state: %v", err)
	}
	return s
}

func (c *testClient) stored(key string) string {
	c.t.Helper()
	value, _, err := c.store.Get(context.Background(), key)
	if err != nil {
		c.t.Fatal(err)
	}
	return value
}

func TestIndexCreatesOneSessionPerBrowser(t *testing.T) {
	c := newTestClient(t, func(cfg *config.Config) {
		cfg.Composer.InitialValue = "# Hello composer"
	})

	res := c.do(http.MethodGet, routes.RootPath, nil, "")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
	body, _ := io.ReadAll(res.Body)
	for _, want := range []string{"Hello composer", `data-mode="edit"`, `data-view="rich"`, "/static/editor.js?v="} {
		if !strings.Contains(string(body), want) {
			t.Errorf("page lacks %q", want)
		}
	}
	if res.Header.Get("X-Frame-Options") != "deny" {
		t.Error("secure headers missing")
	}

	c.do(http.MethodGet, routes.APIContent, nil, "")
	if n := c.host.Sessions(); n != 1 {
		t.Errorf("Sessions() = %d, want 1", n)
	}

	other := &http.Client{}
	res, err := other.Get(c.server.URL + routes.APIContent)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if n := c.host.Sessions(); n != 2 {
		t.Errorf("Sessions() = %d, want 2", n)
	}
}

func TestContent(t *testing.T) {
	c := newTestClient(t, nil)

	s := c.state(c.do(http.MethodGet, routes.APIContent, nil, ""))
	if s.DocumentID != "default" || s.Mode != "edit" || s.View != "rich" || s.Content != "" {
		t.Errorf("initial state = %+v", s)
	}

	s = c.state(c.form(http.MethodPut, routes.APIContent, url.Values{
		"content":     {"# Replaced"},
		"document-id": {"notes"},
	}))
	if s.Content != "# Replaced" || s.DocumentID != "notes" {
		t.Errorf("state = %+v", s)
	}
	if got := c.stored("editor:notes"); got != "# Replaced" {
		t.Errorf("stored = %q", got)
	}

	res := c.form(http.MethodPut, routes.APIContent, url.Values{
		"content":     {"x"},
		"document-id": {storage.CurrentDocumentName},
	})
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("reserved id status = %d", res.StatusCode)
	}
}

func TestLoadUpload(t *testing.T) {
	c := newTestClient(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "chapter-1.md")
	_, _ = part.Write([]byte("%%%\ntitle = \"Chapter One\"\n%%%\n\nOnce upon a time"))
	_ = mw.Close()

	s := c.state(c.do(http.MethodPost, routes.APILoad, &buf, mw.FormDataContentType()))
	if s.DocumentID != "chapter-1" || !strings.Contains(s.Content, "Once upon a time") {
		t.Errorf("state = %+v", s)
	}
	if got := c.stored("editor:current-document-id"); got != "chapter-1" {
		t.Errorf("pointer = %q", got)
	}

	res := c.do(http.MethodGet, routes.APIDocuments, nil, "")
	var docs []struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Current bool   `json:"current"`
	}
	if err := json.NewDecoder(res.Body).Decode(&docs); err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].ID != "chapter-1" || docs[0].Title != "Chapter One" || !docs[0].Current {
		t.Errorf("documents = %+v", docs)
	}
}

func TestLoadRequiresDocumentID(t *testing.T) {
	c := newTestClient(t, nil)
	res := c.form(http.MethodPost, routes.APILoad, url.Values{"content": {"orphan"}})
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", res.StatusCode)
	}
}

func TestOpenStoredDocument(t *testing.T) {
	c := newTestClient(t, nil)
	_ = c.store.Set(context.Background(), "editor:saved", "from storage")

	s := c.state(c.form(http.MethodPost, routes.APIOpen, url.Values{"document-id": {"saved"}}))
	if s.DocumentID != "saved" || s.Content != "from storage" {
		t.Errorf("state = %+v", s)
	}

	res := c.form(http.MethodPost, routes.APIOpen, url.Values{"document-id": {"missing"}})
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("missing document status = %d", res.StatusCode)
	}
}

func TestToggles(t *testing.T) {
	c := newTestClient(t, nil)

	s := c.state(c.do(http.MethodPost, routes.APIViewToggle, nil, ""))
	if s.View != "raw" {
		t.Fatalf("view = %s", s.View)
	}
	s = c.state(c.do(http.MethodPost, routes.APIModeToggle, nil, ""))
	if s.Mode != "read" || s.View != "rich" {
		t.Errorf("read from raw = (%s, %s)", s.Mode, s.View)
	}
	s = c.state(c.do(http.MethodPost, routes.APIViewToggle, nil, ""))
	if s.View != "rich" {
		t.Errorf("view toggled in read mode: %s", s.View)
	}

	res := c.form(http.MethodPost, routes.APIInput, url.Values{"content": {"nope"}})
	if res.StatusCode != http.StatusConflict {
		t.Errorf("input in read mode status = %d", res.StatusCode)
	}
}

func TestInputSaveAndEvents(t *testing.T) {
	c := newTestClient(t, nil)
	c.state(c.do(http.MethodGet, routes.APIContent, nil, ""))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, c.server.URL+routes.SSEPath+"?document=default", nil)
	stream, err := c.client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer stream.Body.Close()
	lines := bufio.NewReader(stream.Body)
	if line, _ := lines.ReadString('\n'); line != "event: connected\n" {
		t.Fatalf("first line = %q", line)
	}

	res := c.form(http.MethodPost, routes.APIInput, url.Values{"content": {"# Typed"}})
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("input status = %d", res.StatusCode)
	}
	if got := c.stored("editor:default"); got == "# Typed" {
		t.Error("input written before save with auto-save enabled")
	}

	s := c.state(c.do(http.MethodPost, routes.APISave, nil, ""))
	if s.Content != "# Typed" {
		t.Errorf("content = %q", s.Content)
	}
	if got := c.stored("editor:default"); got != "# Typed" {
		t.Errorf("stored = %q", got)
	}

	for {
		line, err := lines.ReadString('\n')
		if err != nil {
			t.Fatalf("stream ended before saved event: %v", err)
		}
		if line == "event: saved\n" {
			break
		}
	}
}

func TestExport(t *testing.T) {
	c := newTestClient(t, nil)
	c.form(http.MethodPut, routes.APIContent, url.Values{"content": {"exported"}, "document-id": {"report"}})

	res := c.do(http.MethodGet, routes.APIExport, nil, "")
	body, _ := io.ReadAll(res.Body)
	if string(body) != "exported" {
		t.Errorf("body = %q", body)
	}
	if got := res.Header.Get(config.HContentDisposition); got != `attachment; filename="report.md"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if got := res.Header.Get(config.HCType); got != config.CTypeMarkdown {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestReset(t *testing.T) {
	c := newTestClient(t, nil)
	c.form(http.MethodPut, routes.APIContent, url.Values{"content": {"hello"}, "document-id": {"a"}})

	s := c.state(c.form(http.MethodPost, routes.APIReset, url.Values{
		"clear-content":             {"true"},
		"clear-current-storage":     {"true"},
		"reset-to-default-document": {"true"},
	}))
	if s.DocumentID != "default" || s.Content != "" {
		t.Errorf("state = %+v", s)
	}
	if _, ok, _ := c.store.Get(context.Background(), "editor:a"); ok {
		t.Error("record for a still stored")
	}

	c.form(http.MethodPut, routes.APIContent, url.Values{"content": {"again"}})
	s = c.state(c.do(http.MethodPost, routes.APIReset, nil, ""))
	if s.DocumentID != "default" || s.Content != "" {
		t.Errorf("default reset state = %+v", s)
	}
}

func TestPreviewAndPartials(t *testing.T) {
	c := newTestClient(t, nil)

	res := c.form(http.MethodPost, routes.PartialsPreview, url.Values{"content": {"| a |\n|---|\n| 1 |"}})
	body, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(body), "<table>") {
		t.Errorf("preview = %s", body)
	}

	res = c.form(http.MethodPost, routes.PartialsPreview, nil)
	body, _ = io.ReadAll(res.Body)
	if !strings.Contains(string(body), previewPlaceholder) {
		t.Errorf("empty preview = %s", body)
	}

	c.do(http.MethodPost, routes.APIViewToggle, nil, "")
	res = c.do(http.MethodGet, routes.PartialsEditor, nil, "")
	body, _ = io.ReadAll(res.Body)
	if !strings.Contains(string(body), `data-view="raw"`) || !strings.Contains(string(body), "markdown-source") {
		t.Errorf("raw partial = %s", body)
	}
}

func TestThemeEndpoints(t *testing.T) {
	c := newTestClient(t, nil)

	res := c.do(http.MethodGet, "/syntax-theme/monokai", nil, "")
	body, _ := io.ReadAll(res.Body)
	if res.Header.Get(config.HCType) != config.CTypeCSS || !strings.Contains(string(body), ".chroma") {
		t.Errorf("css response: %s %s", res.Header.Get(config.HCType), body)
	}

	res = c.do(http.MethodPost, routes.ThemeToggle, nil, "")
	body, _ = io.ReadAll(res.Body)
	if string(body) != config.LightThemeIcon {
		t.Errorf("icon after toggle to dark = %q", body)
	}
	if !strings.Contains(res.Header.Get("Hx-Trigger"), `"value":"dark"`) {
		t.Errorf("Hx-Trigger = %q", res.Header.Get("Hx-Trigger"))
	}

	res = c.do(http.MethodGet, routes.RobotsPath, nil, "")
	if res.StatusCode != http.StatusOK {
		t.Errorf("robots status = %d", res.StatusCode)
	}
}

func TestStaticAssets(t *testing.T) {
	c := newTestClient(t, nil)
	res := c.do(http.MethodGet, config.StaticUrlPath+"editor.js", nil, "")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
	if res.Header.Get(config.HETag) == "" || !strings.Contains(res.Header.Get(config.HCacheControl), "max-age") {
		t.Errorf("static caching headers missing: %v", res.Header)
	}
}

func TestReadOnlyConfig(t *testing.T) {
	c := newTestClient(t, func(cfg *config.Config) {
		cfg.Composer.ReadOnly = true
	})

	s := c.state(c.do(http.MethodPost, routes.APIModeToggle, nil, ""))
	if s.Mode != "read" || !s.ReadOnly {
		t.Errorf("state = %+v", s)
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Composer.DefaultView = "split"
	if _, err := New(cfg, storage.NewMemoryStore(), zerolog.Nop()); err == nil {
		t.Error("expected error")
	}
}
