package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"booketl/internal/artifact"
)

// writeArtifacts publishes a minimal but complete artifact set into dir.
func writeArtifacts(t *testing.T, dir string) {
	t.Helper()

	write := func(name string, cols []string, rows [][]any) {
		t.Helper()
		if err := artifact.Write(dir, name, cols, rows); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	write(scorecardFile,
		[]string{"year", "total_books", "total_reviews", "total_sales"},
		[][]any{
			{int64(2021), int64(1), int64(0), nil},
			{int64(2022), int64(1), int64(2), 90.0},
		})
	write(genreFile,
		[]string{"year", "genre", "book_count", "review_count", "total_sales"},
		[][]any{
			{int64(2021), "History", int64(1), int64(0), nil},
			{int64(2022), "Fiction", int64(1), int64(2), 90.0},
		})
	write(topBooksFile,
		[]string{"year", "title", "author_name", "genre", "total_reviews", "total_sales"},
		[][]any{
			{int64(2021), "Book Y", "Ben", "History", int64(0), nil},
			{int64(2022), "Book X", "Ann", "Fiction", int64(2), 90.0},
		})
	write(topAuthorsFile,
		[]string{"year", "author_name", "total_reviews", "total_sales"},
		[][]any{
			{int64(2021), "Ben", int64(0), nil},
			{int64(2022), "Ann", int64(2), 90.0},
		})
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	writeArtifacts(t, dir)
	srv := NewServer(Config{DataDir: dir})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestAPIScorecardFiltersByYear(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/scorecard?from=2022&to=2022")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("content-type=%q", ct)
	}

	var got Scorecard
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.TotalBooks != 1 || got.TotalReviews != 2 || got.TotalSales != 90 {
		t.Fatalf("scorecard=%+v", got)
	}
	if len(got.Years) != 1 || got.Years[0].Year != 2022 {
		t.Fatalf("years=%+v", got.Years)
	}
}

// TestAPIDefaultsToFullRange: with no query params the filter spans every
// year present in the scorecard artifact.
func TestAPIDefaultsToFullRange(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/scorecard")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var got Scorecard
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.TotalBooks != 2 {
		t.Fatalf("scorecard=%+v", got)
	}
}

func TestAPIGenresMeasure(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/genres?measure=reviews")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var got []Slice
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].Genre != "Fiction" || got[0].Value != 2 {
		t.Fatalf("genres=%v", got)
	}
}

// TestETagRoundTrip: a matching If-None-Match short-circuits with 304.
func TestETagRoundTrip(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/books")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	tag := resp.Header.Get("ETag")
	if tag == "" {
		t.Fatal("missing ETag")
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/books", nil)
	req.Header.Set("If-None-Match", tag)
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("conditional get: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotModified {
		t.Fatalf("status=%d want 304", resp2.StatusCode)
	}
}

func TestMissingArtifactsIs503(t *testing.T) {
	t.Parallel()

	srv := NewServer(Config{DataDir: t.TempDir()})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/api/scorecard")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status=%d want 503", resp.StatusCode)
	}
}

func TestIndexRenders(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
}

func TestUnknownPathIs404(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status=%d want 404", resp.StatusCode)
	}
}
