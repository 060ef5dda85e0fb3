package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/runebook/runebook/internal/config"
	"github.com/runebook/runebook/internal/lessons"
	"github.com/runebook/runebook/internal/sandbox"
	"github.com/runebook/runebook/internal/storage/sqlite"
)

// stubExecutor returns a canned outcome (or admission error) and remembers
// the last submission.
type stubExecutor struct {
	outcome *sandbox.Outcome
	err     error
	last    sandbox.Submission
}

func (e *stubExecutor) Execute(ctx context.Context, sub sandbox.Submission) (*sandbox.Outcome, error) {
	e.last = sub
	if e.err != nil {
		return nil, e.err
	}
	return e.outcome, nil
}

func testCatalog(t *testing.T) *lessons.Catalog {
	t.Helper()
	dir := t.TempDir()
	content := "---\nslug: hello-world\ntitle: Hello\norder: 1\nruntime: node\n---\n# Hello\n"
	if err := os.WriteFile(filepath.Join(dir, "hello.md"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := lessons.Load(dir)
	if err != nil {
		t.Fatalf("loading test catalog: %v", err)
	}
	return c
}

func testServer(t *testing.T, exec sandbox.Executor) *Server {
	t.Helper()
	store, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return New(&config.Config{}, testCatalog(t), store, exec)
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestExecuteHandlerSuccess(t *testing.T) {
	exec := &stubExecutor{outcome: &sandbox.Outcome{
		Status:   sandbox.StatusSuccess,
		Stdout:   "hi\n",
		Duration: 12 * time.Millisecond,
	}}
	s := testServer(t, exec)

	rec := doJSON(t, s, "POST", "/api/execute", `{"code":"console.log('hi')","lesson":"hello-world"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["stdout"] != "hi\n" {
		t.Errorf("stdout = %v", resp["stdout"])
	}
	if resp["success"] != true {
		t.Errorf("success = %v", resp["success"])
	}
	if resp["error"] != nil {
		t.Errorf("error = %v, want null", resp["error"])
	}
	if resp["execution_time_ms"] != float64(12) {
		t.Errorf("execution_time_ms = %v", resp["execution_time_ms"])
	}

	if exec.last.Code != "console.log('hi')" {
		t.Errorf("executor got code %q", exec.last.Code)
	}

	// The run should have been recorded as lesson progress.
	p, err := s.store.GetProgress(context.Background(), "hello-world")
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if !p.LastRunOK {
		t.Error("last_run_ok = false, want true")
	}
}

func TestExecuteHandlerTimeoutOutcome(t *testing.T) {
	exec := &stubExecutor{outcome: &sandbox.Outcome{
		Status:   sandbox.StatusTimeout,
		Duration: 10 * time.Second,
		Error:    "Execution timed out (10000ms limit)",
	}}
	s := testServer(t, exec)

	rec := doJSON(t, s, "POST", "/api/execute", `{"code":"while(true){}"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp map[string]any
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["success"] != false {
		t.Errorf("success = %v", resp["success"])
	}
	if resp["error"] != "Execution timed out (10000ms limit)" {
		t.Errorf("error = %v", resp["error"])
	}
}

func TestExecuteHandlerMissingCode(t *testing.T) {
	s := testServer(t, &stubExecutor{outcome: &sandbox.Outcome{Status: sandbox.StatusSuccess}})

	for _, body := range []string{`{}`, `{"runtime":"node"}`, `{"code":5}`} {
		rec := doJSON(t, s, "POST", "/api/execute", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestExecuteHandlerEmptyCodeIsValid(t *testing.T) {
	exec := &stubExecutor{outcome: &sandbox.Outcome{Status: sandbox.StatusSuccess}}
	s := testServer(t, exec)

	rec := doJSON(t, s, "POST", "/api/execute", `{"code":""}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (empty code is a valid program)", rec.Code)
	}
}

func TestExecuteHandlerUnknownLesson(t *testing.T) {
	s := testServer(t, &stubExecutor{outcome: &sandbox.Outcome{Status: sandbox.StatusSuccess}})

	rec := doJSON(t, s, "POST", "/api/execute", `{"code":"x","lesson":"nope"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestExecuteHandlerSaturatedPool(t *testing.T) {
	s := testServer(t, &stubExecutor{err: errors.New("waiting for an execution slot: context deadline exceeded")})

	rec := doJSON(t, s, "POST", "/api/execute", `{"code":"x"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestLessonHandlers(t *testing.T) {
	s := testServer(t, &stubExecutor{})

	rec := doJSON(t, s, "GET", "/api/lessons", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(list) != 1 || list[0]["slug"] != "hello-world" {
		t.Errorf("list = %v", list)
	}

	rec = doJSON(t, s, "GET", "/api/lessons/hello-world", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var lesson map[string]any
	json.Unmarshal(rec.Body.Bytes(), &lesson)
	if html, _ := lesson["html"].(string); !strings.Contains(html, "<h1") {
		t.Errorf("html = %v", lesson["html"])
	}

	rec = doJSON(t, s, "GET", "/api/lessons/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing lesson status = %d, want 404", rec.Code)
	}
}

func TestProgressHandlers(t *testing.T) {
	s := testServer(t, &stubExecutor{})

	rec := doJSON(t, s, "PUT", "/api/progress/hello-world", `{"status":"completed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, "GET", "/api/progress", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list []map[string]any
	json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list) != 1 || list[0]["status"] != "completed" {
		t.Errorf("progress = %v", list)
	}

	rec = doJSON(t, s, "PUT", "/api/progress/hello-world", `{"status":"bogus"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad status value: status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, s, "PUT", "/api/progress/nope", `{"status":"completed"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown lesson: status = %d, want 404", rec.Code)
	}
}

func TestUIFallback(t *testing.T) {
	s := testServer(t, &stubExecutor{})

	// The root and any client-side route both serve the app shell.
	for _, p := range []string{"/", "/some/deep/link"} {
		rec := doJSON(t, s, "GET", p, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: status = %d", p, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "/api/lessons") {
			t.Errorf("GET %s: body does not look like the app shell", p)
		}
	}
}

func TestHealthz(t *testing.T) {
	s := testServer(t, &stubExecutor{})

	rec := doJSON(t, s, "GET", "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	exec := &stubExecutor{outcome: &sandbox.Outcome{Status: sandbox.StatusSuccess}}
	s := testServer(t, exec)

	doJSON(t, s, "POST", "/api/execute", `{"code":"x"}`)

	rec := doJSON(t, s, "GET", "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "runebook_executions_total") {
		t.Error("metrics output missing runebook_executions_total")
	}
}
