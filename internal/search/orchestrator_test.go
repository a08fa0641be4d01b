package search

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"infinity-mcp/internal/models"
	"infinity-mcp/internal/query"
)

func testTranslation() query.Translation {
	return query.Translation{
		Product: "harmony sase",
		Filter:  `severity:"Critical"`,
		Window: models.TimeWindow{
			StartTime: "2026-02-08T12:00:00Z",
			EndTime:   "2026-02-09T12:00:00Z",
		},
	}
}

type staticTokens string

func (s staticTokens) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

// pageScript describes one retrievable page in the mock API.
type pageScript struct {
	batch models.RecordBatch
	fail  int // non-zero HTTP status to answer instead of the batch
}

// mockAPI scripts the logs API endpoints for one task.
type mockAPI struct {
	*httptest.Server

	mu           sync.Mutex
	submitStatus int // non-zero HTTP status to reject submissions with
	statusSeq    []models.TaskStatus
	pages        map[string]pageScript

	submitCalls   int
	statusCalls   int
	retrieveCalls int
	retrieveOrder []string
	lastAuth      string
}

func newMockAPI(t *testing.T) *mockAPI {
	m := &mockAPI{pages: map[string]pageScript{}}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.lastAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/app/laas-logs-api/api/logs_query":
			m.submitCalls++
			if m.submitStatus != 0 {
				w.WriteHeader(m.submitStatus)
				io.WriteString(w, `{"message":"rejected"}`)
				return
			}
			io.WriteString(w, `{"success":true,"data":{"taskId":"task-1"}}`)

		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/app/laas-logs-api/api/logs_query/"):
			m.statusCalls++
			if len(m.statusSeq) == 0 {
				t.Error("status polled past scripted sequence")
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			status := m.statusSeq[0]
			if len(m.statusSeq) > 1 {
				m.statusSeq = m.statusSeq[1:]
			}
			data, _ := json.Marshal(status)
			io.WriteString(w, `{"success":true,"data":`+string(data)+`}`)

		case r.Method == http.MethodPost && r.URL.Path == "/app/laas-logs-api/api/logs_query/retrieve":
			m.retrieveCalls++
			var body struct {
				TaskID    string `json:"taskId"`
				PageToken string `json:"pageToken"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("bad retrieve body: %v", err)
			}
			m.retrieveOrder = append(m.retrieveOrder, body.PageToken)
			page, ok := m.pages[body.PageToken]
			if !ok {
				t.Errorf("retrieve for unscripted token %q", body.PageToken)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			if page.fail != 0 {
				w.WriteHeader(page.fail)
				io.WriteString(w, `{"message":"retrieval error"}`)
				return
			}
			data, _ := json.Marshal(page.batch)
			io.WriteString(w, `{"success":true,"data":`+string(data)+`}`)

		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(m.Server.Close)
	return m
}

func newTestOrchestrator(m *mockAPI) (*Orchestrator, *int) {
	client := &Client{
		BaseURL: m.URL,
		HTTP:    m.Client(),
		Tokens:  staticTokens("test-token"),
	}
	o := NewOrchestrator(client, zerolog.Nop())
	sleeps := 0
	o.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps++
		return nil
	}
	return o, &sleeps
}

func batchOf(count int, next string, records ...string) models.RecordBatch {
	b := models.RecordBatch{RecordsCount: count, NextPageToken: next}
	for _, r := range records {
		b.Records = append(b.Records, json.RawMessage(r))
	}
	return b
}

func TestPollUntilReadyScriptedSequence(t *testing.T) {
	m := newMockAPI(t)
	m.statusSeq = []models.TaskStatus{
		{State: models.TaskProcessing},
		{State: models.TaskProcessing},
		{State: models.TaskReady, PageTokens: []string{"p1", "p2"}},
	}

	o, sleeps := newTestOrchestrator(m)
	tokens, err := o.PollUntilReady(context.Background(), "task-1")
	if err != nil {
		t.Fatalf("PollUntilReady error: %v", err)
	}

	if m.statusCalls != 3 {
		t.Errorf("status polled %d times, want exactly 3", m.statusCalls)
	}
	if *sleeps != 2 {
		t.Errorf("slept %d times, want 2", *sleeps)
	}
	if len(tokens) != 2 || tokens[0] != "p1" || tokens[1] != "p2" {
		t.Errorf("page tokens = %v, want [p1 p2]", tokens)
	}
}

func TestPollUntilReadyTimeout(t *testing.T) {
	m := newMockAPI(t)
	m.statusSeq = []models.TaskStatus{{State: models.TaskProcessing}} // repeats forever

	o, _ := newTestOrchestrator(m)
	o.MaxPolls = 5

	_, err := o.PollUntilReady(context.Background(), "task-1")
	if kind := models.KindOf(err); kind != models.ErrTimeout {
		t.Fatalf("kind = %q, want %q (err: %v)", kind, models.ErrTimeout, err)
	}
	if m.statusCalls != 5 {
		t.Errorf("status polled %d times, want bound of 5", m.statusCalls)
	}
}

func TestPollUntilReadyTaskFailed(t *testing.T) {
	m := newMockAPI(t)
	m.statusSeq = []models.TaskStatus{
		{State: models.TaskFailed, Errors: []string{"index unavailable", "shard lost"}},
	}

	o, _ := newTestOrchestrator(m)
	_, err := o.PollUntilReady(context.Background(), "task-1")

	var ae *models.APIError
	if !errors.As(err, &ae) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if ae.Kind != models.ErrTaskFailed {
		t.Errorf("kind = %q, want %q", ae.Kind, models.ErrTaskFailed)
	}
	if len(ae.Remote) != 2 {
		t.Errorf("remote errors = %v, want both carried", ae.Remote)
	}
}

func TestPollUntilReadyUnknownState(t *testing.T) {
	m := newMockAPI(t)
	m.statusSeq = []models.TaskStatus{{State: "Paused"}}

	o, sleeps := newTestOrchestrator(m)
	_, err := o.PollUntilReady(context.Background(), "task-1")

	if kind := models.KindOf(err); kind != models.ErrUnknownTaskState {
		t.Fatalf("kind = %q, want %q (err: %v)", kind, models.ErrUnknownTaskState, err)
	}
	if m.statusCalls != 1 || *sleeps != 0 {
		t.Errorf("unknown state must abort immediately: %d polls, %d sleeps", m.statusCalls, *sleeps)
	}
}

func TestDrainPagesOrderAndTotals(t *testing.T) {
	m := newMockAPI(t)
	m.pages["p1"] = pageScript{batch: batchOf(2, "p1b", `{"id":1}`, `{"id":2}`)}
	m.pages["p1b"] = pageScript{batch: batchOf(1, "", `{"id":3}`)}
	m.pages["p2"] = pageScript{batch: batchOf(1, "", `{"id":4}`)}

	o, _ := newTestOrchestrator(m)
	records, total, err := o.DrainPages(context.Background(), "task-1", []string{"p1", "p2"})
	if err != nil {
		t.Fatalf("DrainPages error: %v", err)
	}

	wantOrder := []string{"p1", "p1b", "p2"}
	if len(m.retrieveOrder) != len(wantOrder) {
		t.Fatalf("retrieve order = %v, want %v", m.retrieveOrder, wantOrder)
	}
	for i, tok := range wantOrder {
		if m.retrieveOrder[i] != tok {
			t.Errorf("retrieve[%d] = %q, want %q", i, m.retrieveOrder[i], tok)
		}
	}

	if total != 4 {
		t.Errorf("total = %d, want sum of batch counts 4", total)
	}
	wantRecords := []string{`{"id":1}`, `{"id":2}`, `{"id":3}`, `{"id":4}`}
	if len(records) != len(wantRecords) {
		t.Fatalf("got %d records, want %d", len(records), len(wantRecords))
	}
	for i, want := range wantRecords {
		if string(records[i]) != want {
			t.Errorf("record[%d] = %s, want %s", i, records[i], want)
		}
	}
}

func TestDrainPagesNoTokensYieldsEmptyRecords(t *testing.T) {
	m := newMockAPI(t)
	o, _ := newTestOrchestrator(m)

	records, total, err := o.DrainPages(context.Background(), "task-1", nil)
	if err != nil {
		t.Fatalf("DrainPages error: %v", err)
	}
	if records == nil {
		t.Fatal("records is nil, want an empty slice")
	}
	if len(records) != 0 || total != 0 {
		t.Errorf("records = %v, total = %d, want empty result", records, total)
	}

	data, err := json.Marshal(models.QueryResult{Records: records})
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if !strings.Contains(string(data), `"records":[]`) {
		t.Errorf("empty result serialized as %s, want \"records\":[]", data)
	}
}

func TestDrainPagesChainedFailureTruncatesShard(t *testing.T) {
	m := newMockAPI(t)
	m.pages["p1"] = pageScript{batch: batchOf(2, "p1b", `{"id":1}`, `{"id":2}`)}
	m.pages["p1b"] = pageScript{fail: http.StatusInternalServerError}
	m.pages["p2"] = pageScript{batch: batchOf(1, "", `{"id":4}`)}

	o, _ := newTestOrchestrator(m)
	records, total, err := o.DrainPages(context.Background(), "task-1", []string{"p1", "p2"})
	if err != nil {
		t.Fatalf("chained failure must not abort the drain: %v", err)
	}

	if len(records) != 3 {
		t.Errorf("got %d records, want 3 (partial shard kept, next shard drained)", len(records))
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
}

func TestDrainPagesTopLevelFailureAborts(t *testing.T) {
	m := newMockAPI(t)
	m.pages["p1"] = pageScript{fail: http.StatusInternalServerError}
	m.pages["p2"] = pageScript{batch: batchOf(1, "", `{"id":4}`)}

	o, _ := newTestOrchestrator(m)
	_, _, err := o.DrainPages(context.Background(), "task-1", []string{"p1", "p2"})

	if kind := models.KindOf(err); kind != models.ErrRetrievalFailed {
		t.Fatalf("kind = %q, want %q (err: %v)", kind, models.ErrRetrievalFailed, err)
	}
	if m.retrieveCalls != 1 {
		t.Errorf("retrieve called %d times, want abort after the first failure", m.retrieveCalls)
	}
}

func TestSubmitRateLimitedNoRetry(t *testing.T) {
	m := newMockAPI(t)
	m.submitStatus = http.StatusTooManyRequests

	o, _ := newTestOrchestrator(m)
	_, err := o.Client.Submit(context.Background(), "*", models.TimeWindow{}, nil)

	if kind := models.KindOf(err); kind != models.ErrRateLimited {
		t.Fatalf("kind = %q, want %q (err: %v)", kind, models.ErrRateLimited, err)
	}
	if m.submitCalls != 1 {
		t.Errorf("submit called %d times, want exactly 1 (no automatic retry)", m.submitCalls)
	}
}

func TestRetrieveRateLimited(t *testing.T) {
	m := newMockAPI(t)
	m.pages["p1"] = pageScript{fail: http.StatusTooManyRequests}

	o, _ := newTestOrchestrator(m)
	_, _, err := o.DrainPages(context.Background(), "task-1", []string{"p1"})

	if kind := models.KindOf(err); kind != models.ErrRateLimited {
		t.Fatalf("kind = %q, want %q (err: %v)", kind, models.ErrRateLimited, err)
	}
}

func TestRunEndToEnd(t *testing.T) {
	m := newMockAPI(t)
	m.statusSeq = []models.TaskStatus{
		{State: models.TaskProcessing},
		{State: models.TaskCompleted, PageTokens: []string{"p1"}},
	}
	m.pages["p1"] = pageScript{batch: batchOf(2, "", `{"id":1}`, `{"id":2}`)}

	o, _ := newTestOrchestrator(m)
	result, err := o.Run(context.Background(), testTranslation(), []string{"acct-1"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if result.TotalRecords != 2 {
		t.Errorf("total = %d, want 2", result.TotalRecords)
	}
	if result.FilterUsed != `severity:"Critical"` {
		t.Errorf("filter = %q", result.FilterUsed)
	}
	if result.Product != "harmony sase" {
		t.Errorf("product = %q", result.Product)
	}
	if m.lastAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want bearer token on every call", m.lastAuth)
	}
}

func TestRunAbortsOnSubmitFailure(t *testing.T) {
	m := newMockAPI(t)
	m.submitStatus = http.StatusBadRequest

	o, _ := newTestOrchestrator(m)
	_, err := o.Run(context.Background(), testTranslation(), nil)

	if kind := models.KindOf(err); kind != models.ErrSearchRequestFailed {
		t.Fatalf("kind = %q, want %q (err: %v)", kind, models.ErrSearchRequestFailed, err)
	}
	if m.statusCalls != 0 {
		t.Errorf("status polled %d times after failed submit, want 0", m.statusCalls)
	}
}

func TestPollRespectsContextCancellation(t *testing.T) {
	m := newMockAPI(t)
	m.statusSeq = []models.TaskStatus{{State: models.TaskProcessing}}

	client := &Client{BaseURL: m.URL, HTTP: m.Client(), Tokens: staticTokens("tok")}
	o := NewOrchestrator(client, zerolog.Nop())
	o.PollInterval = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := o.PollUntilReady(ctx, "task-1")
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("poll did not abort promptly: %v", elapsed)
	}
}
