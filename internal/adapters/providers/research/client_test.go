package research

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewClient(Options{BaseURL: srv.URL, APIKey: "rs-key", MaxHits: 3})
	c.sleep = func(time.Duration) {}
	return c
}

func TestResearchPostsQueryAndDecodesProspects(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/research" {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		var q Query
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			t.Errorf("decode query: %v", err)
		}
		if q.CompanyName != "Underline" || q.Domain != "underline.com" {
			t.Errorf("unexpected query: %+v", q)
		}
		if q.MaxResults != 3 {
			t.Errorf("MaxResults should be capped to client MaxHits, got %d", q.MaxResults)
		}
		w.Write([]byte(`{"prospects":[{"full_name":"Ada Kelm","title":"CFO","department":"Finance"}]}`))
	})

	got, err := c.Research(context.Background(), Query{CompanyName: "Underline", Domain: "underline.com"})
	if err != nil {
		t.Fatalf("Research: %v", err)
	}
	if len(got) != 1 || got[0].FullName != "Ada Kelm" {
		t.Fatalf("unexpected prospects: %+v", got)
	}
}

func TestResearchCapsProspects(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"prospects":[{"full_name":"A"},{"full_name":"B"},{"full_name":"C"},{"full_name":"D"}]}`))
	})

	got, err := c.Research(context.Background(), Query{CompanyName: "Underline"})
	if err != nil {
		t.Fatalf("Research: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 prospects, got %d", len(got))
	}
}

func TestResearchRetriesOnceOnTransientError(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusGatewayTimeout)
			return
		}
		w.Write([]byte(`{"prospects":[]}`))
	})

	if _, err := c.Research(context.Background(), Query{CompanyName: "Underline"}); err != nil {
		t.Fatalf("Research: %v", err)
	}
	if calls != 2 {
		t.Fatalf("want 2 calls, got %d", calls)
	}
}
