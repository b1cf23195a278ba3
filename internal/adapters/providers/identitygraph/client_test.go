package identitygraph

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	perr "quorum/internal/platform/errors"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewClient(Options{
		BaseURL:    srv.URL,
		KeysCSV:    "key-a, key-b",
		MaxRetries: 3,
		RetryBase:  time.Millisecond,
		MaxHits:    5,
	})
	c.sleep = func(time.Duration) {}
	return c, srv
}

func TestSearchByWebsiteDecodesHits(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Path; got != "/v1/people/search" {
			t.Errorf("path = %q", got)
		}
		if got := r.URL.Query().Get("website"); got != "underline.com" {
			t.Errorf("website = %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("limit = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hits":[{"id":"p1","full_name":"Ada Kelm","title":"CFO","department":"Finance","email":"ada@underline.com"}],"total":1}`))
	})

	hits, err := c.SearchByWebsite(context.Background(), "underline.com")
	if err != nil {
		t.Fatalf("SearchByWebsite: %v", err)
	}
	if len(hits) != 1 || hits[0].FullName != "Ada Kelm" || hits[0].Title != "CFO" {
		t.Fatalf("unexpected hits: %+v", hits)
	}
}

func TestSearchCapsHitsAtMax(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"hits":[{"id":"1"},{"id":"2"},{"id":"3"},{"id":"4"},{"id":"5"},{"id":"6"},{"id":"7"}],"total":7}`))
	})

	hits, err := c.SearchByName(context.Background(), "Underline")
	if err != nil {
		t.Fatalf("SearchByName: %v", err)
	}
	if len(hits) != 5 {
		t.Fatalf("want 5 hits, got %d", len(hits))
	}
}

func TestDoRetriesRateLimitThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"hits":[],"total":0}`))
	})

	var slept []time.Duration
	c.sleep = func(d time.Duration) { slept = append(slept, d) }

	if _, err := c.SearchByNetworkID(context.Background(), "underline"); err != nil {
		t.Fatalf("SearchByNetworkID: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("want 2 calls, got %d", calls.Load())
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("want one 1s sleep from Retry-After, got %v", slept)
	}
}

func TestDoExhaustsRetriesOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.SearchByWebsite(context.Background(), "underline.com")
	if err == nil {
		t.Fatal("want error after retries exhausted")
	}
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("want unavailable code, got %v", err)
	}
	if calls.Load() != 4 {
		t.Fatalf("want 4 calls (1 + 3 retries), got %d", calls.Load())
	}
}

func TestDoRotatesKeys(t *testing.T) {
	var seen []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("X-Api-Key"))
		w.Write([]byte(`{"hits":[],"total":0}`))
	})

	for range 4 {
		if _, err := c.SearchByWebsite(context.Background(), "x.com"); err != nil {
			t.Fatalf("SearchByWebsite: %v", err)
		}
	}
	if len(seen) != 4 {
		t.Fatalf("want 4 requests, got %d", len(seen))
	}
	if seen[0] == seen[1] || seen[0] != seen[2] {
		t.Fatalf("keys should alternate round robin, got %v", seen)
	}
}

func TestCollectOrganizationNotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.CollectOrganization(context.Background(), "org-missing")
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}
