package resolver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsSupportedLink(t *testing.T) {
	cases := []struct {
		link string
		want bool
	}{
		{"https://terabox.com/s/1aBcD_ef-123", true},
		{"https://www.terabox.app/sharing/link?surl=xyz123", true},
		{"http://teraboxapp.com/s/1QwErTy", true},
		{"https://m.terabox.com/wap/share/filelist?surl=abc", true},
		{"https://nephobox.com/s/1zzz", true},
		{"https://freeterabox.com/s/1zzz", true},
		{"https://example.com/s/1aBcD", false},
		{"terabox.com/s/1aBcD", false},
		{"not a link at all", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsSupportedLink(tc.link); got != tc.want {
			t.Errorf("IsSupportedLink(%q) = %v, want %v", tc.link, got, tc.want)
		}
	}
}

func TestTeraboxClientResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/get-info" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("url") == "" {
			http.Error(w, "missing url", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "success",
			"file_name": "movie.mp4",
			"size_bytes": 104857600,
			"direct_link": "https://cdn.example.com/movie.mp4",
			"thumb": "https://cdn.example.com/movie.jpg"
		}`))
	}))
	defer srv.Close()

	c := NewTeraboxClient(srv.URL)
	asset, err := c.Resolve(context.Background(), "https://terabox.com/s/1aBcD")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if asset.Title != "movie.mp4" {
		t.Errorf("title = %q", asset.Title)
	}
	if asset.SizeBytes != 104857600 {
		t.Errorf("size = %d", asset.SizeBytes)
	}
	if asset.DirectURL != "https://cdn.example.com/movie.mp4" {
		t.Errorf("direct url = %q", asset.DirectURL)
	}
}

func TestTeraboxClientResolveFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "error", "message": "link expired"}`))
	}))
	defer srv.Close()

	c := NewTeraboxClient(srv.URL)
	_, err := c.Resolve(context.Background(), "https://terabox.com/s/1dead")
	if !errors.Is(err, ErrUnresolvable) {
		t.Fatalf("expected ErrUnresolvable, got %v", err)
	}
}

func TestTeraboxClientUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway timeout", http.StatusGatewayTimeout)
	}))
	defer srv.Close()

	c := NewTeraboxClient(srv.URL)
	if _, err := c.Resolve(context.Background(), "https://terabox.com/s/1abc"); err == nil {
		t.Fatal("expected error on non-200 upstream")
	}
}
