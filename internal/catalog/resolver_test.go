package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestResolve_Match(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/maps/hash/ABCD" {
			t.Errorf("path: got %q, want /maps/hash/ABCD", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"25f","versions":[{"coverURL":"https://cdn.example.com/25f.jpg"},{"coverURL":"https://cdn.example.com/old.jpg"}]}`))
	}))
	defer srv.Close()

	r := New(srv.URL, time.Second)
	e := r.Resolve(context.Background(), "ABCD")

	if e.BSRCode != "25f" {
		t.Errorf("BSRCode: got %q, want 25f", e.BSRCode)
	}
	if e.CoverURL != "https://cdn.example.com/25f.jpg" {
		t.Errorf("CoverURL: got %q, want first version's cover", e.CoverURL)
	}
}

func TestResolve_NoVersions_EmptyCover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"25f","versions":[]}`))
	}))
	defer srv.Close()

	e := New(srv.URL, time.Second).Resolve(context.Background(), "ABCD")
	if e.BSRCode != "25f" {
		t.Errorf("BSRCode: got %q, want 25f", e.BSRCode)
	}
	if e.CoverURL != "" {
		t.Errorf("CoverURL: got %q, want empty", e.CoverURL)
	}
}

func TestResolve_NotFound_Sentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	e := New(srv.URL, time.Second).Resolve(context.Background(), "unknownhash")
	if e != notFound {
		t.Errorf("Resolve on 404: got %+v, want sentinel", e)
	}
}

func TestResolve_ServerError_Sentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := New(srv.URL, time.Second).Resolve(context.Background(), "ABCD")
	if e != notFound {
		t.Errorf("Resolve on 500: got %+v, want sentinel", e)
	}
}

func TestResolve_MalformedBody_Sentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	e := New(srv.URL, time.Second).Resolve(context.Background(), "ABCD")
	if e != notFound {
		t.Errorf("Resolve on malformed body: got %+v, want sentinel", e)
	}
}

func TestResolve_MissingID_Sentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"versions":[{"coverURL":"x"}]}`))
	}))
	defer srv.Close()

	e := New(srv.URL, time.Second).Resolve(context.Background(), "ABCD")
	if e != notFound {
		t.Errorf("Resolve with missing id: got %+v, want sentinel", e)
	}
}

func TestResolve_ConnectionRefused_Sentinel(t *testing.T) {
	// A server that is immediately closed — the port refuses connections.
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	e := New(srv.URL, time.Second).Resolve(context.Background(), "ABCD")
	if e != notFound {
		t.Errorf("Resolve against dead server: got %+v, want sentinel", e)
	}
}

func TestResolve_Timeout_Sentinel(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() {
		close(block)
		srv.Close()
	}()

	start := time.Now()
	e := New(srv.URL, 50*time.Millisecond).Resolve(context.Background(), "ABCD")
	if e != notFound {
		t.Errorf("Resolve on timeout: got %+v, want sentinel", e)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Resolve took %v, timeout did not apply", elapsed)
	}
}

func TestResolve_HashEscaped(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		http.NotFound(w, r)
	}))
	defer srv.Close()

	New(srv.URL, time.Second).Resolve(context.Background(), "a/b c")
	if gotPath != "/maps/hash/a%2Fb%20c" {
		t.Errorf("escaped path: got %q", gotPath)
	}
}
