package uploader

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/covrig/covrig/internal/domain"
)

// fakeService runs an in-process stand-in for the coverage service.
func fakeService(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func testSubmission() domain.UploadSubmission {
	return domain.UploadSubmission{
		Token: "tok",
		Meta:  domain.UploadMeta{ServiceName: "covrig", Branch: "main"},
		Report: domain.RunReport{
			Kind:   domain.RunKindSuite,
			Name:   "coverage",
			Status: domain.RunPassed,
		},
	}
}

func TestUpload_PostsSubmission(t *testing.T) {
	var gotBody []byte
	srv := fakeService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message":"Job #42.1","url":"https://coveralls.io/jobs/42"}`))
	})

	u := New(srv.URL, WithClient(srv.Client()))
	res, err := u.Upload(context.Background(), testSubmission())
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if res.StatusCode != 200 {
		t.Fatalf("StatusCode = %d, want 200", res.StatusCode)
	}
	if res.Attempts != 1 {
		t.Fatalf("Attempts = %d, want 1", res.Attempts)
	}
	if res.URL != "https://coveralls.io/jobs/42" {
		t.Fatalf("URL = %q", res.URL)
	}
	if res.Message != "Job #42.1" {
		t.Fatalf("Message = %q", res.Message)
	}

	var sub domain.UploadSubmission
	if err := json.Unmarshal(gotBody, &sub); err != nil {
		t.Fatalf("unmarshal submission: %v", err)
	}
	if sub.Token != "tok" {
		t.Fatalf("payload token = %q, want tok", sub.Token)
	}
	if sub.Report.Name != "coverage" {
		t.Fatalf("payload report = %+v", sub.Report)
	}
}

func TestUpload_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := fakeService(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	u := New(srv.URL, WithClient(srv.Client()), WithRetry(time.Millisecond, 5))
	res, err := u.Upload(context.Background(), testSubmission())
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if res.Attempts != 3 {
		t.Fatalf("Attempts = %d, want 3", res.Attempts)
	}
	if res.StatusCode != 200 {
		t.Fatalf("StatusCode = %d, want 200", res.StatusCode)
	}
}

func TestUpload_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := fakeService(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	u := New(srv.URL, WithClient(srv.Client()), WithRetry(time.Millisecond, 5))
	res, err := u.Upload(context.Background(), testSubmission())
	if err == nil {
		t.Fatal("want an error for the 4xx response")
	}
	if !domain.HasKind(err, domain.FaultUpload) {
		t.Fatalf("err = %v, want FaultUpload", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want no retry on 4xx", got)
	}
	if res.Attempts != 1 {
		t.Fatalf("Attempts = %d, want 1", res.Attempts)
	}
}

func TestUpload_MissingToken(t *testing.T) {
	u := New("http://127.0.0.1:0")
	sub := testSubmission()
	sub.Token = ""

	_, err := u.Upload(context.Background(), sub)
	if !domain.HasKind(err, domain.FaultMissingVar) {
		t.Fatalf("err = %v, want FaultMissingVar", err)
	}
}

func TestUpload_NoServiceURL(t *testing.T) {
	u := New("")
	_, err := u.Upload(context.Background(), testSubmission())
	if !domain.HasKind(err, domain.FaultBadConfig) {
		t.Fatalf("err = %v, want FaultBadConfig", err)
	}
}
