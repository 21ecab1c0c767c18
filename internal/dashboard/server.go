// HTTP surface of the dashboard.
//
// Routes:
//
//	GET /               → server-rendered overview page
//	GET /api/scorecard  → filtered scorecard totals + per-year series, JSON
//	GET /api/genres     → top genres with an "Others" bucket, JSON
//	GET /api/authors    → top authors by the chosen measure, JSON
//	GET /api/books      → top books by the chosen measure, JSON
//
// All routes take from, to and measure (sales|reviews) query params. JSON
// responses carry an ETag derived from the artifact fingerprints so pollers
// can skip unchanged payloads.
package dashboard

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"strconv"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"booketl/internal/artifact"
)

// Artifact files the dashboard reads. The format and publisher rollups are
// produced for offline analysis and not surfaced here.
const (
	scorecardFile  = "scorecard_data.csv"
	genreFile      = "genre_data.csv"
	topBooksFile   = "top_books_data.csv"
	topAuthorsFile = "top_authors_data.csv"
)

const (
	topAuthorCount = 10
	topBookCount   = 10
)

// Config controls server startup.
type Config struct {
	Addr string
	// DataDir is the artifact directory written by the batch job.
	DataDir string
}

// Server wraps http.Server for convenience.
type Server struct {
	cfg   Config
	mux   *http.ServeMux
	tmpl  *template.Template
	cache *artifact.Cache
	num   *message.Printer
}

// NewServer constructs a Server with routes and embedded template.
func NewServer(cfg Config) *Server {
	s := &Server{
		cfg:   cfg,
		mux:   http.NewServeMux(),
		cache: artifact.NewCache(),
		// Thousands separators for the big headline numbers.
		num: message.NewPrinter(language.English),
	}
	s.tmpl = template.Must(template.New("index").Funcs(template.FuncMap{
		"comma":    func(v float64) string { return s.num.Sprintf("%.0f", v) },
		"commaInt": func(v int64) string { return s.num.Sprintf("%d", v) },
		"short":    ShortTitle,
	}).Parse(indexHTML))
	s.routes()
	return s
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return http.ListenAndServe(s.cfg.Addr, s.mux)
}

// Handler exposes the mux, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/api/scorecard", s.handleScorecard)
	s.mux.HandleFunc("/api/genres", s.handleGenres)
	s.mux.HandleFunc("/api/authors", s.handleAuthors)
	s.mux.HandleFunc("/api/books", s.handleBooks)
}

// tables is one consistent read of everything the page needs.
type tables struct {
	scorecard  *artifact.Table
	genres     *artifact.Table
	topBooks   *artifact.Table
	topAuthors *artifact.Table
}

// etag combines the artifact fingerprints into a weak validator.
func (t *tables) etag() string {
	h := t.scorecard.Fingerprint ^ t.genres.Fingerprint ^
		t.topBooks.Fingerprint ^ t.topAuthors.Fingerprint
	return fmt.Sprintf(`W/"%016x"`, h)
}

// load fetches the four artifacts through the cache, concurrently; a missing
// or unreadable artifact fails the whole read.
func (s *Server) load(r *http.Request) (*tables, error) {
	var t tables
	g, _ := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		t.scorecard, err = s.cache.Load(filepath.Join(s.cfg.DataDir, scorecardFile))
		return err
	})
	g.Go(func() (err error) {
		t.genres, err = s.cache.Load(filepath.Join(s.cfg.DataDir, genreFile))
		return err
	})
	g.Go(func() (err error) {
		t.topBooks, err = s.cache.Load(filepath.Join(s.cfg.DataDir, topBooksFile))
		return err
	})
	g.Go(func() (err error) {
		t.topAuthors, err = s.cache.Load(filepath.Join(s.cfg.DataDir, topAuthorsFile))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &t, nil
}

// query extracts the shared filter params, clamping the range to the years
// the scorecard actually covers.
func (s *Server) query(r *http.Request, t *tables) (YearRange, Measure) {
	minYear, maxYear, ok := YearBounds(t.scorecard)
	if !ok {
		minYear, maxYear = 0, 0
	}
	yr := YearRange{From: minYear, To: maxYear}
	if v, err := strconv.Atoi(r.URL.Query().Get("from")); err == nil {
		yr.From = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("to")); err == nil {
		yr.To = v
	}
	return yr, ParseMeasure(r.URL.Query().Get("measure"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	t, err := s.load(r)
	if err != nil {
		http.Error(w, "artifacts unavailable: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	yr, m := s.query(r, t)

	data := struct {
		From, To  int
		Measure   string
		Scorecard Scorecard
		Genres    []Slice
		Authors   []Entry
		Books     []Entry
	}{
		From:      yr.From,
		To:        yr.To,
		Measure:   string(m),
		Scorecard: FilterScorecard(t.scorecard, yr),
		Genres:    TopGenres(t.genres, yr, m),
		Authors:   TopAuthors(t.topAuthors, yr, m, topAuthorCount),
		Books:     TopBooks(t.topBooks, yr, m, topBookCount),
	}
	if err := s.tmpl.Execute(w, data); err != nil {
		log.Println("template error:", err)
	}
}

func (s *Server) handleScorecard(w http.ResponseWriter, r *http.Request) {
	s.serveJSON(w, r, func(t *tables, yr YearRange, _ Measure) any {
		return FilterScorecard(t.scorecard, yr)
	})
}

func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	s.serveJSON(w, r, func(t *tables, yr YearRange, m Measure) any {
		return TopGenres(t.genres, yr, m)
	})
}

func (s *Server) handleAuthors(w http.ResponseWriter, r *http.Request) {
	s.serveJSON(w, r, func(t *tables, yr YearRange, m Measure) any {
		return TopAuthors(t.topAuthors, yr, m, topAuthorCount)
	})
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	s.serveJSON(w, r, func(t *tables, yr YearRange, m Measure) any {
		return TopBooks(t.topBooks, yr, m, topBookCount)
	})
}

// serveJSON is the shared load-filter-encode path for the API routes.
func (s *Server) serveJSON(w http.ResponseWriter, r *http.Request, view func(*tables, YearRange, Measure) any) {
	t, err := s.load(r)
	if err != nil {
		http.Error(w, "artifacts unavailable: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	tag := t.etag()
	if r.Header.Get("If-None-Match") == tag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	yr, m := s.query(r, t)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("ETag", tag)
	if err := json.NewEncoder(w).Encode(view(t, yr, m)); err != nil {
		log.Println("encode error:", err)
	}
}

// indexHTML is an embedded, minimal page with vanilla styling.
//
//go:embed index.tmpl.html
var indexHTML string
