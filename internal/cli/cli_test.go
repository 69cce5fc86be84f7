// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darty-tutor/darty/internal/session"
)

// =============================================================================
// HARNESS
// =============================================================================

type received struct {
	path string
	body map[string]string
}

type harness struct {
	t       *testing.T
	srv     *httptest.Server
	dataDir string
	stdin   string
	out     bytes.Buffer
	errOut  bytes.Buffer

	mu       sync.Mutex
	requests []received
	fail     string
	status   map[string]any
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{"DARTY_SERVER_URL", "DARTY_STORAGE_BACKEND", "DARTY_DATA_DIR", "DARTY_LANG", "DARTY_LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	h := &harness{t: t, dataDir: t.TempDir()}
	h.status = map[string]any{
		"api_key_configured": true,
		"tutor_initialized":  false,
		"context_loaded":     false,
		"cache_stats":        map[string]any{"total_items": 3, "total_size_bytes": 2048, "total_size_mb": 0.5},
	}
	h.srv = httptest.NewServer(http.HandlerFunc(h.serve))
	t.Cleanup(h.srv.Close)
	return h
}

func (h *harness) serve(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{}
	_ = json.NewDecoder(r.Body).Decode(&body)

	h.mu.Lock()
	h.requests = append(h.requests, received{path: r.URL.Path, body: body})
	fail := h.fail
	status := h.status
	h.mu.Unlock()

	reply := func(v map[string]any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	if fail != "" && r.URL.Path != "/api/status" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": fail})
		return
	}

	switch r.URL.Path {
	case "/api/status":
		reply(status)
	case "/api/tutor/ask":
		reply(map[string]any{"success": true, "answer": "answer to " + body["question"]})
	case "/api/tutor/analyze-code":
		reply(map[string]any{"success": true, "analysis": "analysis of " + body["code"]})
	case "/api/tutor/generate-exercises":
		reply(map[string]any{"success": true, "exercises": "exercises on " + body["topic"]})
	case "/api/tutor/explain-concept":
		reply(map[string]any{"success": true, "explanation": "explanation of " + body["concept"]})
	case "/api/tutor/initialize":
		reply(map[string]any{"success": true, "message": "ready"})
	case "/api/config/save-api-key":
		reply(map[string]any{"success": true, "message": "key saved"})
	case "/api/scrape/documentation":
		reply(map[string]any{"success": true, "message": "docs updated", "context_length": 1234})
	case "/api/cache/clear":
		reply(map[string]any{"success": true, "message": "cache emptied"})
	default:
		http.NotFound(w, r)
	}
}

// run executes one darty invocation against the fake service.
func (h *harness) run(args ...string) error {
	h.t.Helper()
	root, a := newRootCommand()
	defer a.close()
	a.isTerminal = func() bool { return false }

	h.out.Reset()
	h.errOut.Reset()
	root.SetOut(&h.out)
	root.SetErr(&h.errOut)
	root.SetIn(strings.NewReader(h.stdin))
	root.SetArgs(append([]string{
		"--server", h.srv.URL,
		"--storage", "file",
		"--data-dir", h.dataDir,
		"--lang", "en",
	}, args...))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return root.ExecuteContext(ctx)
}

func (h *harness) last() received {
	h.mu.Lock()
	defer h.mu.Unlock()
	require.NotEmpty(h.t, h.requests)
	return h.requests[len(h.requests)-1]
}

func (h *harness) paths() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, r := range h.requests {
		out = append(out, r.path)
	}
	return out
}

func (h *harness) sessions() []sessionSummary {
	h.t.Helper()
	require.NoError(h.t, h.run("sessions", "list", "--json"))
	var list []sessionSummary
	require.NoError(h.t, json.Unmarshal(h.out.Bytes(), &list))
	return list
}

// =============================================================================
// ASK
// =============================================================================

func TestAsk_PrintsAnswer(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("ask", "What", "is", "a", "Future?"))

	assert.Equal(t, "/api/tutor/ask", h.last().path)
	assert.Equal(t, "What is a Future?", h.last().body["question"])
	assert.Contains(t, h.out.String(), "answer to What is a Future?")
}

func TestAsk_SlashCommandSelectsTool(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("ask", "/explain", "isolates"))

	assert.Equal(t, "/api/tutor/explain-concept", h.last().path)
	assert.Equal(t, "isolates", h.last().body["concept"])
	assert.Contains(t, h.out.String(), "explanation of isolates")
}

func TestAsk_ToolFlagWithFile(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "main.dart")
	require.NoError(t, os.WriteFile(path, []byte("void main() {}\n"), 0o644))

	require.NoError(t, h.run("ask", "--tool", "analyze", "--file", path))

	assert.Equal(t, "/api/tutor/analyze-code", h.last().path)
	assert.Equal(t, "void main() {}", h.last().body["code"])
}

func TestAsk_ReadsStdin(t *testing.T) {
	h := newHarness(t)
	h.stdin = "piped question\n"

	require.NoError(t, h.run("ask", "-t", "exercises"))

	assert.Equal(t, "/api/tutor/generate-exercises", h.last().path)
	assert.Equal(t, "piped question", h.last().body["topic"])
}

func TestAsk_NothingToAsk(t *testing.T) {
	h := newHarness(t)

	err := h.run("ask")

	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))
	assert.Empty(t, h.paths())
}

func TestAsk_UnknownTool(t *testing.T) {
	h := newHarness(t)

	err := h.run("ask", "--tool", "poetry", "q")

	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

func TestAsk_ServerFailure(t *testing.T) {
	h := newHarness(t)
	h.fail = "tutor is not initialized"

	err := h.run("ask", "q")

	require.Error(t, err)
	assert.Equal(t, "tutor is not initialized", err.Error())
	assert.Equal(t, ExitServerError, ExitCode(err))
}

func TestAsk_Unreachable(t *testing.T) {
	h := newHarness(t)
	h.srv.Close()

	err := h.run("ask", "q")

	require.Error(t, err)
	assert.Equal(t, ExitNetworkError, ExitCode(err))
}

func TestAsk_SaveRecordsConversation(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("ask", "--save", "/explain", "mixins"))
	assert.Contains(t, h.out.String(), "explanation of mixins")

	list := h.sessions()
	require.NotEmpty(t, list)
	assert.Equal(t, "/explain mixins", list[0].Title)
	assert.Equal(t, 2, list[0].Messages)
	assert.True(t, list[0].Active)
}

func TestAsk_SaveRecordsServerFailure(t *testing.T) {
	h := newHarness(t)
	h.fail = "quota exceeded"

	err := h.run("ask", "--save", "q")
	require.Error(t, err)
	assert.Equal(t, ExitServerError, ExitCode(err))

	list := h.sessions()
	require.NotEmpty(t, list)
	assert.Equal(t, 2, list[0].Messages, "question and error reply are both kept")
}

// =============================================================================
// CHAT
// =============================================================================

func TestChat_PipedConversation(t *testing.T) {
	h := newHarness(t)
	h.stdin = "hello\n/new\nsecond question\n/quit\nnever sent\n"

	require.NoError(t, h.run("chat"))

	out := h.out.String()
	assert.Contains(t, out, "answer to hello")
	assert.Contains(t, out, "answer to second question")
	assert.NotContains(t, out, "never sent")

	list := h.sessions()
	require.Len(t, list, 2)
	assert.Equal(t, "second question", list[0].Title)
	assert.Equal(t, "hello", list[1].Title)
}

func TestChat_RootFallsBackWhenNotATerminal(t *testing.T) {
	h := newHarness(t)
	h.stdin = "from root\n"

	require.NoError(t, h.run())

	assert.Contains(t, h.out.String(), "answer to from root")
}

func TestChat_FencedCodeSpansLines(t *testing.T) {
	h := newHarness(t)
	h.stdin = "/analyze ```dart\nvoid main() {\n}\n```\n"

	require.NoError(t, h.run("chat"))

	assert.Equal(t, "/api/tutor/analyze-code", h.last().path)
	assert.Equal(t, "```dart\nvoid main() {\n}\n```", h.last().body["code"])
}

func TestChat_BackslashContinuesLine(t *testing.T) {
	h := newHarness(t)
	h.stdin = "first line\\\nsecond line\n"

	require.NoError(t, h.run("chat"))

	assert.Equal(t, "first line\nsecond line", h.last().body["question"])
}

func TestChat_ServerFailureIsShownAndKept(t *testing.T) {
	h := newHarness(t)
	h.fail = "API key missing"
	h.stdin = "q\n"

	require.NoError(t, h.run("chat"))
	assert.Contains(t, h.out.String(), "API key missing")

	h.fail = ""
	list := h.sessions()
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].Messages)
}

func TestChat_MetaCommands(t *testing.T) {
	h := newHarness(t)
	h.stdin = strings.Join([]string{
		"about streams",
		"/rename Streams",
		"/new",
		"about widgets",
		"/search streams",
		"/switch 2",
		"/lang ar",
		"/bogus",
	}, "\n") + "\n"

	require.NoError(t, h.run("chat"))
	assert.Contains(t, h.errOut.String(), "unknown command /bogus")

	list := h.sessions()
	require.Len(t, list, 2)
	assert.Equal(t, "Streams", list[1].Title)
	assert.True(t, list[0].Active, "the active session is not persisted")

	require.NoError(t, h.run("prefs"))
	assert.Regexp(t, `lang\s+ar`, h.out.String())
}

func TestReadMessage(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single line", "hello\nnext\n", "hello"},
		{"continuation", "a\\\nb\\\nc\n", "a\nb\nc"},
		{"fence", "```\nx\\\n```\nafter\n", "```\nx\\\n```"},
		{"unclosed fence ends at eof", "```go\nfmt.Println()\n", "```go\nfmt.Println()"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readMessage(newScanReader(strings.NewReader(tt.in)), "", "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// =============================================================================
// SESSIONS
// =============================================================================

func TestSessions_Lifecycle(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("ask", "--save", "first"))
	require.NoError(t, h.run("ask", "--save", "second"))

	require.NoError(t, h.run("sessions", "list"))
	assert.Contains(t, h.out.String(), "first")
	assert.Contains(t, h.out.String(), "second")

	require.NoError(t, h.run("sessions", "rename", "2", "Async", "basics"))
	require.NoError(t, h.run("sessions", "show", "2"))
	assert.Contains(t, h.out.String(), "Async basics")
	assert.Contains(t, h.out.String(), "answer to first")

	dir := t.TempDir()
	require.NoError(t, h.run("sessions", "export", "2", "--format", "json", "--output", dir))
	path := strings.TrimSpace(h.out.String())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var exported session.Session
	require.NoError(t, json.Unmarshal(data, &exported))
	assert.Equal(t, "Async basics", exported.Title)

	require.NoError(t, h.run("sessions", "delete", "1"))
	list := h.sessions()
	require.Len(t, list, 1)
	assert.Equal(t, "Async basics", list[0].Title)
}

func TestSessions_ListSearch(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("ask", "--save", "streams question"))
	require.NoError(t, h.run("ask", "--save", "widgets question"))

	require.NoError(t, h.run("sessions", "list", "--search", "STREAMS", "--json"))
	var list []sessionSummary
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].Index, "positions come from the full list")
}

func TestSessions_NotFound(t *testing.T) {
	h := newHarness(t)

	err := h.run("sessions", "show", "99")

	require.Error(t, err)
	assert.Equal(t, ExitNotFoundError, ExitCode(err))
}

func TestSessions_BlankRenameIsRejected(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("ask", "--save", "keep me"))

	err := h.run("sessions", "rename", "1", "   ")

	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))
	assert.Equal(t, "keep me", h.sessions()[0].Title)
}

func TestResolveSession(t *testing.T) {
	list := []session.Session{
		{ID: "abcd1234-0000", Title: "one"},
		{ID: "abcd9999-0000", Title: "two"},
		{ID: "ffff0000-0000", Title: "three"},
	}
	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr bool
	}{
		{"position", "2", "two", false},
		{"exact id", "ffff0000-0000", "three", false},
		{"unique prefix", "abcd1", "one", false},
		{"ambiguous prefix", "abcd", "", true},
		{"prefix too short", "fff", "", true},
		{"out of range", "4", "", true},
		{"empty", " ", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveSession(list, tt.ref)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Title)
		})
	}
}

// =============================================================================
// SERVICE AND PREFERENCES
// =============================================================================

func TestStatus(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("status"))

	out := h.out.String()
	assert.Contains(t, out, h.srv.URL)
	assert.Contains(t, out, "3 items")
	assert.Contains(t, out, "darty init", "not initialized yet")
}

func TestStatus_JSON(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("status", "--json"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &got))
	assert.Equal(t, true, got["api_key_configured"])
}

func TestMaintenanceCommands(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("init"))
	assert.Contains(t, h.out.String(), "ready")

	require.NoError(t, h.run("sync"))
	assert.Contains(t, h.out.String(), "docs updated")
	assert.Contains(t, h.out.String(), "1234")

	require.NoError(t, h.run("cache", "clear"))
	assert.Contains(t, h.out.String(), "cache emptied")
}

func TestSetKey_FromStdin(t *testing.T) {
	h := newHarness(t)
	h.stdin = "  AIzaSecret  \n"

	require.NoError(t, h.run("config", "set-key"))

	assert.Equal(t, []string{"/api/config/save-api-key", "/api/tutor/initialize"}, h.paths())
	h.mu.Lock()
	assert.Equal(t, "AIzaSecret", h.requests[0].body["api_key"])
	h.mu.Unlock()
	assert.NotContains(t, h.out.String(), "AIzaSecret")
}

func TestSetKey_WithoutInit(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("config", "set-key", "--init=false", "AIzaKey"))

	assert.Equal(t, []string{"/api/config/save-api-key"}, h.paths())
}

func TestConfigInit(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	require.NoError(t, h.run("--config", path, "config", "init"))
	_, err := os.Stat(path)
	require.NoError(t, err)

	err = h.run("--config", path, "config", "init")
	assert.Equal(t, ExitUsageError, ExitCode(err))
	require.NoError(t, h.run("--config", path, "config", "init", "--force"))
}

func TestInvalidFlagIsConfigError(t *testing.T) {
	h := newHarness(t)

	err := h.run("--storage", "floppy", "status")

	require.Error(t, err)
	assert.Equal(t, ExitConfigError, ExitCode(err))
}

func TestPrefs(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("prefs", "theme", "light"))
	require.NoError(t, h.run("prefs", "theme"))
	assert.Regexp(t, `theme\s+dark`, h.out.String())

	require.NoError(t, h.run("prefs", "lang", "ar_EG.UTF-8"))
	require.NoError(t, h.run("prefs"))
	assert.Regexp(t, `theme\s+dark`, h.out.String())
	assert.Regexp(t, `lang\s+ar`, h.out.String())

	err := h.run("prefs", "lang", "fr")
	assert.Equal(t, ExitUsageError, ExitCode(err))
}
