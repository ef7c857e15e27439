package crawler

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPFetcherSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(2*time.Second, 3)
	out := f.Fetch(srv.URL)
	if out.Status != FetchOK {
		t.Fatalf("expected FetchOK, got %v (err=%v)", out.Status, out.Err)
	}
	if out.Body != "<html>ok</html>" {
		t.Fatalf("unexpected body: %q", out.Body)
	}
}

func TestHTTPFetcher404IsNotFoundWithoutRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(2*time.Second, 3)
	out := f.Fetch(srv.URL)
	if out.Status != FetchNotFound {
		t.Fatalf("expected FetchNotFound, got %v", out.Status)
	}
	// 404 是语义信号，不做重试
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("404 should not be retried, got %d calls", n)
	}
}

func TestHTTPFetcherOther4xxNoRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(2*time.Second, 3)
	out := f.Fetch(srv.URL)
	if out.Status != FetchTransient {
		t.Fatalf("expected FetchTransient, got %v", out.Status)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("4xx should not be retried, got %d calls", n)
	}
}

func TestHTTPFetcherRetriesOn5xxThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(2*time.Second, 3)
	out := f.Fetch(srv.URL)
	if out.Status != FetchOK {
		t.Fatalf("expected FetchOK after retries, got %v (err=%v)", out.Status, out.Err)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Fatalf("expected 3 attempts, got %d", n)
	}
}

func TestHTTPFetcherGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(2*time.Second, 2)
	out := f.Fetch(srv.URL)
	if out.Status != FetchTransient {
		t.Fatalf("expected FetchTransient, got %v", out.Status)
	}
	if out.Err == nil {
		t.Fatalf("exhausted retries should carry an error")
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("expected exactly maxRetries attempts, got %d", n)
	}
}
