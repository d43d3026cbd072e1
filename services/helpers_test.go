package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/krshsl/interview-coach/llm"
	"github.com/krshsl/interview-coach/models"
	"github.com/krshsl/interview-coach/repository"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func testConfig() *Config {
	return &Config{
		Server: ServerConfig{FrontendURL: "http://localhost:3000"},
		JWT:    JWTConfig{Secret: testSecret},
		LLM:    LLMConfig{Provider: "stub", Timeout: time.Second},
	}
}

// newTestServer starts the full router on an in-memory store.
func newTestServer(t *testing.T, generator llm.Generator) (*httptest.Server, *Server) {
	t.Helper()
	return newTestServerWithStore(t, repository.NewMemoryRepository(), generator)
}

func newTestServerWithStore(t *testing.T, repo repository.Store, generator llm.Generator) (*httptest.Server, *Server) {
	t.Helper()
	if generator == nil {
		generator = llm.WithTimeout(llm.NewStub(), time.Second)
	}
	srv := NewServer(testConfig(), repo, generator, nil)
	go srv.wsHub.Run()
	ts := httptest.NewServer(srv.SetupRoutes())
	t.Cleanup(func() {
		ts.Close()
		srv.wsHub.Stop()
	})
	return ts, srv
}

func doJSON(t *testing.T, method, url, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// registerAndLogin creates an account through the API and returns its token.
func registerAndLogin(t *testing.T, baseURL, email string) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, baseURL+"/register", "", RegisterRequest{
		Name: "Test", Email: email, Password: "secret",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, baseURL+"/login", "", LoginRequest{Email: email, Password: "secret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var token TokenResponse
	decodeBody(t, resp, &token)
	return token.AccessToken
}

func newTestUser(t *testing.T, repo repository.Store, email string) *models.User {
	t.Helper()
	user := &models.User{Name: "Test", Email: email, Password: "x"}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

// buildDOCX returns a minimal document with one paragraph per entry.
func buildDOCX(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		fmt.Fprintf(&body, `<w:p><w:r><w:t>%s</w:t></w:r></w:p>`, p)
	}
	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct{ name, content string }{
		{"[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`},
		{"word/document.xml", document},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(part.content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// buildPDF returns a PDF with one line of Helvetica text per page.
func buildPDF(t *testing.T, pages ...string) []byte {
	t.Helper()
	var objects []string
	kids := make([]string, len(pages))
	fontID := 3 + 2*len(pages)
	for i, text := range pages {
		pageID, contentID := 3+2*i, 4+2*i
		kids[i] = fmt.Sprintf("%d 0 R", pageID)
		stream := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>", fontID, contentID),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}
	objects = append([]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
	}, objects...)
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	require.Equal(t, fontID, len(objects))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// recordingGenerator captures requests and answers with a fixed reply or error.
type recordingGenerator struct {
	requests []llm.Request
	reply    string
	err      error
}

func (g *recordingGenerator) Generate(ctx context.Context, req llm.Request) (string, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}
