package stream

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"teradl-bot/resolver"
)

type fakeResolver struct {
	asset *resolver.Asset
	err   error
}

func (f *fakeResolver) Resolve(ctx context.Context, link string) (*resolver.Asset, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.asset, nil
}

func newTestServer(t *testing.T, r resolver.Resolver) *Server {
	t.Helper()
	s, err := NewServer(r, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return s
}

func TestViewPage(t *testing.T) {
	s := newTestServer(t, &fakeResolver{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/view?url=https%3A%2F%2Fterabox.com%2Fs%2F1abc&title=movie.mp4")
	if err != nil {
		t.Fatalf("get view: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	body := string(raw)
	if !strings.Contains(body, "movie.mp4") {
		t.Errorf("viewer page missing title: %s", body)
	}
	if !strings.Contains(body, "action=stream") || !strings.Contains(body, "action=download") {
		t.Errorf("viewer page missing action links: %s", body)
	}
}

func TestViewPageRequiresURL(t *testing.T) {
	s := newTestServer(t, &fakeResolver{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/view")
	if err != nil {
		t.Fatalf("get view: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestMediaServesByteRanges(t *testing.T) {
	content := strings.Repeat("0123456789", 100)
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, content)
	}))
	defer origin.Close()

	s := newTestServer(t, &fakeResolver{asset: &resolver.Asset{
		Title:     "clip.mp4",
		DirectURL: origin.URL + "/clip.mp4",
	}})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/media?url=https%3A%2F%2Fterabox.com%2Fs%2F1abc&action=stream", nil)
	req.Header.Set("Range", "bytes=10-19")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("ranged get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read range body: %v", err)
	}
	if got := string(raw); got != "0123456789" {
		t.Errorf("range body = %q", got)
	}
	if cr := resp.Header.Get("Content-Range"); !strings.HasPrefix(cr, "bytes 10-19/") {
		t.Errorf("content-range = %q", cr)
	}

	// Second request must come from cache, not the origin.
	origin.Close()
	resp2, err := http.Get(ts.URL + "/media?url=https%3A%2F%2Fterabox.com%2Fs%2F1abc&action=stream")
	if err != nil {
		t.Fatalf("cached get: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("cached status = %d", resp2.StatusCode)
	}
}

func TestMediaDownloadDisposition(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data")
	}))
	defer origin.Close()

	s := newTestServer(t, &fakeResolver{asset: &resolver.Asset{
		Title:     "clip.mp4",
		DirectURL: origin.URL,
	}})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/media?url=https%3A%2F%2Fterabox.com%2Fs%2F1xyz&action=download")
	if err != nil {
		t.Fatalf("download get: %v", err)
	}
	resp.Body.Close()
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("content-disposition = %q", cd)
	}
}

func TestMediaRejectsBadParams(t *testing.T) {
	s := newTestServer(t, &fakeResolver{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	for _, path := range []string{"/media", "/media?url=x", "/media?url=x&action=explode"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, resp.StatusCode)
		}
	}
}

func TestFetchIgnoresLeakedPartialFiles(t *testing.T) {
	content := "complete file contents"
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, content)
	}))
	defer origin.Close()

	s := newTestServer(t, &fakeResolver{asset: &resolver.Asset{
		Title:     "clip.mp4",
		DirectURL: origin.URL,
	}})

	link := "https://terabox.com/s/1leak"
	sum := md5.Sum([]byte(link))
	key := hex.EncodeToString(sum[:])

	// Leftovers a crashed or still-running download could leave behind.
	for _, name := range []string{key + ".mp4.part", "tmp-12345678.mp4.part"} {
		if err := os.WriteFile(filepath.Join(s.cacheDir, name), []byte("TRUNCATED"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	path, err := s.fetch(context.Background(), link)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := filepath.Base(path); got != key+".mp4" {
		t.Fatalf("fetch returned %s, want the completed cache file", got)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != content {
		t.Fatalf("served %q, want the complete contents", data)
	}
}

func TestCleanupRemovesOldFiles(t *testing.T) {
	s := newTestServer(t, &fakeResolver{})

	old := filepath.Join(s.cacheDir, "aaaa.mp4")
	fresh := filepath.Join(s.cacheDir, "bbbb.mp4")
	if err := os.WriteFile(old, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fresh, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	stale := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatal(err)
	}

	s.cleanup()

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("stale file survived cleanup")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh file removed by cleanup")
	}
}
