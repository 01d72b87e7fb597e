package markzap

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, doc *Document) (*DocumentServer, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	server := NewDocumentServer(ctx, doc, nil, "")
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)
	return server, ts
}

func noRedirect(req *http.Request, via []*http.Request) error {
	return http.ErrUseLastResponse
}

func TestServeIndex(t *testing.T) {
	doc := NewDocument("", "# A\n---\n# B\n---\n# C\n---\n# D\n")
	_, ts := newTestServer(t, doc)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), `<h1 id="a">A</h1>`)
	assert.Contains(t, string(body), `href="/present"`)
	assert.Contains(t, string(body), "/livereload")
}

func TestServePresentation(t *testing.T) {
	doc := NewDocument("", "A\n---\nB\n\n\n---\nC")
	_, ts := newTestServer(t, doc)

	resp, err := http.Get(ts.URL + "/present")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, "3", resp.Header.Get("X-Markzap-Slides"))
	assert.Equal(t, GeneratePresentationHTML(doc.Content()), string(body))
}

func TestUpdateRawAutosaves(t *testing.T) {
	path := writeTempDoc(t, "# Notes\n")
	doc := OpenDocument(path)
	_, ts := newTestServer(t, doc)

	deck := "---\ntheme: seriph\n---\n# Hi\n"
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/raw", strings.NewReader(deck))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, deck, string(onDisk))
	assert.True(t, doc.HasPresentation())

	resp, err = http.Get(ts.URL + "/raw")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, deck, string(body))
}

func TestUpdateRawSaveFailure(t *testing.T) {
	doc := NewDocument(t.TempDir()+"/missing/dir/notes.md", "# Old\n")
	_, ts := newTestServer(t, doc)

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/raw", strings.NewReader("# New\n"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "# New\n", doc.Content())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestUpdateRawBodyErrors(t *testing.T) {
	doc := NewDocument("", "# Old\n")
	server, _ := newTestServer(t, doc)

	defer func(limit int64) { maxDocumentSize = limit }(maxDocumentSize)
	maxDocumentSize = 8

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/raw", strings.NewReader("# Far too long\n")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/raw", failingReader{}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, "# Old\n", doc.Content())
}

func TestUpdateMode(t *testing.T) {
	doc := NewDocument("", "# Notes\n")
	_, ts := newTestServer(t, doc)
	client := &http.Client{CheckRedirect: noRedirect}

	resp, err := client.PostForm(ts.URL+"/mode", url.Values{"mode": {"edit"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.Equal(t, ModeEdit, doc.Mode())

	resp, err = http.Get(ts.URL + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), `<textarea id="editor"`)

	resp, err = client.PostForm(ts.URL+"/mode", url.Values{"mode": {"slides"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, ModeEdit, doc.Mode())
}

func TestServeStatus(t *testing.T) {
	doc := NewDocument("/tmp/deck.md", "# A\n---\n# B\n---\n# C\n---\n# D\n")
	_, ts := newTestServer(t, doc)

	resp, err := http.Get(ts.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	status := documentStatus{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, documentStatus{
		Path:         "/tmp/deck.md",
		Title:        "MarkZap \u2014 deck.md",
		Mode:         "preview",
		Presentation: true,
		Slides:       4,
	}, status)
}

func TestLivereload(t *testing.T) {
	doc := NewDocument("", "# Notes\n")
	server, ts := newTestServer(t, doc)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/livereload"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		server.connsLock.Lock()
		defer server.connsLock.Unlock()
		return len(server.livereloadConns) == 1
	}, 5*time.Second, 10*time.Millisecond)

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/raw", strings.NewReader("# Changed\n"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	msgType, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, msgType)
	assert.Equal(t, "Reload", string(msg))

	conn.Close()
	require.Eventually(t, func() bool {
		server.connsLock.Lock()
		defer server.connsLock.Unlock()
		return len(server.livereloadConns) == 0
	}, 5*time.Second, 10*time.Millisecond)
}
