package stream

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"teradl-bot/resolver"
)

// Server is the companion web process: it resolves a share link on demand,
// caches the media file on disk and serves it with byte-range support so
// players can seek.
type Server struct {
	resolver resolver.Resolver
	cacheDir string
	maxAge   time.Duration
	health   func(ctx context.Context) error
	client   *http.Client
	tmpl     *template.Template
}

func NewServer(r resolver.Resolver, cacheDir string, health func(ctx context.Context) error) (*Server, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Server{
		resolver: r,
		cacheDir: cacheDir,
		maxAge:   time.Hour,
		health:   health,
		client:   &http.Client{Timeout: 10 * time.Minute},
		tmpl:     template.Must(template.New("viewer").Parse(viewerHTML)),
	}, nil
}

// Handler returns the mux for the web process.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/view", s.handleView)
	mux.HandleFunc("/media", s.handleMedia)
	return mux
}

// Run starts the cache janitor and serves until the listener fails.
func (s *Server) Run(addr string) error {
	go s.janitor()
	log.Printf("🌐 Stream server listening on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	fmt.Fprintln(w, "Terabox streaming server is running. Use via the Telegram bot.")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if s.health != nil {
		if err := s.health(ctx); err != nil {
			http.Error(w, "store unreachable", http.StatusServiceUnavailable)
			return
		}
	}
	fmt.Fprintln(w, "ok")
}

type viewerData struct {
	Title       string
	StreamURL   string
	DownloadURL string
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	link := r.URL.Query().Get("url")
	if link == "" {
		http.Error(w, "missing url parameter", http.StatusBadRequest)
		return
	}
	title := r.URL.Query().Get("title")
	if title == "" {
		title = "Your file"
	}

	q := r.URL.Query().Encode()
	data := viewerData{
		Title:       title,
		StreamURL:   "/media?" + q + "&action=stream",
		DownloadURL: "/media?" + q + "&action=download",
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		log.Printf("⚠️ Render viewer page: %v", err)
	}
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	link := r.URL.Query().Get("url")
	action := r.URL.Query().Get("action")
	if link == "" || (action != "stream" && action != "download") {
		http.Error(w, "missing or invalid url/action parameter", http.StatusBadRequest)
		return
	}

	path, err := s.fetch(r.Context(), link)
	if err != nil {
		log.Printf("❌ Fetch %s: %v", link, err)
		http.Error(w, "could not fetch media, try again later", http.StatusBadGateway)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		http.Error(w, "cached file unavailable", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		http.Error(w, "cached file unavailable", http.StatusInternalServerError)
		return
	}

	if action == "download" {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	}
	// ServeContent handles Range requests and Content-Type sniffing.
	http.ServeContent(w, r, filepath.Base(path), fi.ModTime(), f)
}

// fetch returns the cached path for link, downloading it first if needed.
// Cache keys are md5 of the link so the same share is downloaded once.
func (s *Server) fetch(ctx context.Context, link string) (string, error) {
	sum := md5.Sum([]byte(link))
	key := hex.EncodeToString(sum[:])

	// A .part file is an in-progress or crash-leaked download, never a hit.
	matches, _ := filepath.Glob(filepath.Join(s.cacheDir, key+"*"))
	for _, m := range matches {
		if filepath.Ext(m) != ".part" {
			return m, nil
		}
	}

	asset, err := s.resolver.Resolve(ctx, link)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.DirectURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upstream returned %s", resp.Status)
	}

	ext := filepath.Ext(asset.Title)
	if ext == "" {
		ext = ".mp4"
	}
	path := filepath.Join(s.cacheDir, key+ext)

	// Each writer gets its own tmp- prefixed temp file, so the cache-hit
	// glob above can never match it and two concurrent downloads of the
	// same link never share a file. Whoever renames last wins.
	out, err := os.CreateTemp(s.cacheDir, "tmp-*"+ext+".part")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", err
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", err
	}
	if err := os.Rename(out.Name(), path); err != nil {
		os.Remove(out.Name())
		return "", err
	}
	log.Printf("📥 Cached %s as %s", link, filepath.Base(path))
	return path, nil
}

// janitor deletes cache files older than maxAge.
func (s *Server) janitor() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.cleanup()
	}
}

func (s *Server) cleanup() {
	entries, err := os.ReadDir(s.cacheDir)
	if err != nil {
		log.Printf("⚠️ Read cache dir: %v", err)
		return
	}
	now := time.Now()
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > s.maxAge {
			path := filepath.Join(s.cacheDir, e.Name())
			if err := os.Remove(path); err != nil {
				log.Printf("⚠️ Clean up %s: %v", path, err)
			} else {
				log.Printf("🗑️ Cleaned up old file: %s", path)
			}
		}
	}
}

const viewerHTML = `<!DOCTYPE html>
<html>
<head>
	<title>Media ready</title>
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<style>
		body { font-family: sans-serif; text-align: center; margin-top: 50px; background-color: #222; color: #eee; }
		.container { background-color: #333; padding: 20px; border-radius: 8px; max-width: 600px; margin: auto; }
		.button { display: inline-block; padding: 10px 20px; margin: 10px; color: white; text-decoration: none; border-radius: 5px; }
		.button.stream { background-color: #007bff; }
		.button.download { background-color: #28a745; }
		.button:hover { opacity: 0.9; }
		.note { margin-top: 20px; font-style: italic; color: #bbb; }
	</style>
</head>
<body>
	<div class="container">
		<h2>🎉 Your media is ready!</h2>
		<h3>{{.Title}}</h3>
		<p>Stream it right here or save it to your device.</p>
		<div>
			<a class="button stream" href="{{.StreamURL}}">▶️ Stream</a>
			<a class="button download" href="{{.DownloadURL}}">⬇️ Download</a>
		</div>
		<p class="note">First start can take a few minutes while the file is fetched.</p>
	</div>
</body>
</html>
`
