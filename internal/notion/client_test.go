package notion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/starford/folio/internal/apperr"
)

func TestNew_RequiresToken(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Error("expected error for empty token")
	}
}

func TestClient_DatabaseCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Method != http.MethodGet || r.URL.Path != "/databases/db1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Notion-Version"); got != DefaultAPIVersion {
			t.Errorf("Notion-Version = %q", got)
		}
		_, _ = w.Write([]byte(`{"id":"db1","properties":{"Order":{"id":"x","name":"Order","type":"number"}}}`))
	}))
	defer srv.Close()

	c, err := New("tok", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		db, err := c.Database(context.Background(), "db1")
		if err != nil {
			t.Fatalf("Database: %v", err)
		}
		if db.Properties["Order"].Type != KindNumber {
			t.Errorf("schema = %+v", db.Properties)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("schema fetched %d times, want 1", hits.Load())
	}
}

func TestClient_QueryPaginates(t *testing.T) {
	var bodies []QueryRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		bodies = append(bodies, req)
		if req.StartCursor == "" {
			_, _ = w.Write([]byte(`{"results":[{"id":"p1","properties":{}}],"has_more":true,"next_cursor":"c2"}`))
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"id":"p2","properties":{}}],"has_more":false,"next_cursor":null}`))
	}))
	defer srv.Close()

	c, _ := New("tok", WithBaseURL(srv.URL))
	pages, err := c.Query(context.Background(), "db", QueryRequest{
		Sorts: []Sort{{Property: "Order", Direction: Descending}},
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(pages) != 2 || pages[0].ID != "p1" || pages[1].ID != "p2" {
		t.Errorf("pages = %+v", pages)
	}
	if len(bodies) != 2 || bodies[1].StartCursor != "c2" || bodies[0].PageSize != pageSize {
		t.Errorf("requests = %+v", bodies)
	}
	if len(bodies[0].Sorts) != 1 || bodies[0].Sorts[0].Direction != Descending {
		t.Errorf("sorts = %+v", bodies[0].Sorts)
	}
}

func TestClient_RemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"API token is invalid."}`))
	}))
	defer srv.Close()

	c, _ := New("tok", WithBaseURL(srv.URL))
	_, err := c.Query(context.Background(), "db", QueryRequest{})
	if !errors.Is(err, apperr.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
	var remote *apperr.RemoteError
	if !errors.As(err, &remote) || remote.Status != http.StatusUnauthorized {
		t.Errorf("remote error = %+v", remote)
	}
}
