package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/calldeck-team/calldeck/internal/adapter/dto/call"
	"github.com/calldeck-team/calldeck/internal/adapter/repository"
	"github.com/calldeck-team/calldeck/internal/domain/entities"
	"github.com/calldeck-team/calldeck/pkg/config"
	"github.com/calldeck-team/calldeck/pkg/voice"
)

func TestListCallsShapeAndOrder(t *testing.T) {
	repo := repository.NewMemoryCallRepository()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	older := entities.NewCallRecord("older", base)
	older.CallerName = "Arjun Kumar"
	older.CallerPhone = "+91-9876543210"
	newer := entities.NewCallRecord("newer", base.Add(time.Hour))
	newer.Sentiment = entities.SentimentNegative

	for _, rec := range []*entities.CallRecord{older, newer} {
		if err := repo.Append(context.Background(), rec); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	h := NewCallsHandler(repo, nil, nil)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/calls", nil)
	rec := httptest.NewRecorder()
	if err := h.ListCalls(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var calls []call.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &calls); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("got %d calls", len(calls))
	}
	if calls[0].ID != "newer" || calls[1].ID != "older" {
		t.Fatalf("wrong order: %s, %s", calls[0].ID, calls[1].ID)
	}
	if calls[1].Caller.Name != "Arjun Kumar" || calls[1].Caller.Phone != "+91-9876543210" {
		t.Fatalf("caller object: %+v", calls[1].Caller)
	}

	// The wire shape nests caller and uses camelCase keys.
	var rawList []map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &rawList)
	for _, key := range []string{"id", "timestamp", "transcript", "caller", "sentiment", "summary", "agentAssessment", "recordingUrl"} {
		if _, ok := rawList[0][key]; !ok {
			t.Errorf("missing key %q in response", key)
		}
	}
}

func TestListCallsEmpty(t *testing.T) {
	h := NewCallsHandler(repository.NewMemoryCallRepository(), nil, nil)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/calls", nil)
	rec := httptest.NewRecorder()
	if err := h.ListCalls(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Fatalf("empty history should be an empty array, got %q", body)
	}
}

func TestListCallsStoreError(t *testing.T) {
	h := NewCallsHandler(brokenRepo{}, nil, nil)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/calls", nil)
	rec := httptest.NewRecorder()
	if err := h.ListCalls(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func newRecordingEnv(t *testing.T, upstream http.HandlerFunc) (*CallsHandler, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(upstream)
	t.Cleanup(ts.Close)

	client := voice.NewClient(&config.VoiceConfig{
		BaseURL: ts.URL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	})
	return NewCallsHandler(repository.NewMemoryCallRepository(), client, nil), ts
}

func TestStreamRecordingRangePassthrough(t *testing.T) {
	audio := []byte("RIFFfakeaudiodata")
	h, _ := newRecordingEnv(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "test-key" {
			t.Fatal("missing api key on upstream request")
		}
		if r.Header.Get("Range") != "bytes=0-15" {
			t.Fatalf("range = %q", r.Header.Get("Range"))
		}
		w.Header().Set("Content-Type", "audio/wav")
		w.Header().Set("Content-Range", "bytes 0-15/1024")
		w.Header().Set("Accept-Ranges", "bytes")
		w.WriteHeader(http.StatusPartialContent)
		w.Write(audio[:16])
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/calls/abc/recording", nil)
	req.Header.Set("Range", "bytes=0-15")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/calls/:id/recording")
	c.SetParamNames("id")
	c.SetParamValues("abc")

	if err := h.StreamRecording(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Content-Range") != "bytes 0-15/1024" {
		t.Fatalf("content-range = %q", rec.Header().Get("Content-Range"))
	}
	if rec.Header().Get("Content-Type") != "audio/wav" {
		t.Fatalf("content-type = %q", rec.Header().Get("Content-Type"))
	}
	if rec.Body.Len() != 16 {
		t.Fatalf("body length = %d", rec.Body.Len())
	}
}

func TestStreamRecordingNotFound(t *testing.T) {
	h, _ := newRecordingEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/calls/abc/recording", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/calls/:id/recording")
	c.SetParamNames("id")
	c.SetParamValues("abc")

	if err := h.StreamRecording(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}
