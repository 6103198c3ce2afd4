package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPacedClient(t *testing.T) {
	t.Run("EnforcesMinimumInterval", func(t *testing.T) {
		var stamps []time.Time
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			stamps = append(stamps, time.Now())
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		pc := newPacedClient(20) // 50ms minimum interval
		ctx := context.Background()
		for i := 0; i < 3; i++ {
			var out map[string]any
			if err := pc.getJSON(ctx, srv.URL, &out); err != nil {
				t.Fatalf("request %d failed: %v", i, err)
			}
		}

		if len(stamps) != 3 {
			t.Fatalf("got %d requests, want 3", len(stamps))
		}
		for i := 1; i < len(stamps); i++ {
			if gap := stamps[i].Sub(stamps[i-1]); gap < 45*time.Millisecond {
				t.Errorf("requests %d and %d only %v apart, want >= ~50ms", i-1, i, gap)
			}
		}
	})

	t.Run("ContextCancellationUnblocksWaiters", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		pc := newPacedClient(0.1) // 10s interval: second call must wait
		var out map[string]any
		if err := pc.getJSON(context.Background(), srv.URL, &out); err != nil {
			t.Fatalf("first request failed: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		err := pc.getJSON(ctx, srv.URL, &out)
		if err == nil {
			t.Fatal("expected error from cancelled wait")
		}
	})

	t.Run("Non200IsUpstreamError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		pc := newPacedClient(100)
		var out map[string]any
		err := pc.getJSON(context.Background(), srv.URL, &out)
		if !errors.Is(err, ErrUpstream) {
			t.Fatalf("err = %v, want ErrUpstream", err)
		}
	})
}

func TestTMDBClient(t *testing.T) {
	t.Run("SearchMovies", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/search/movie" {
				t.Errorf("path = %q, want /search/movie", r.URL.Path)
			}
			if r.URL.Query().Get("query") != "heat" {
				t.Errorf("query = %q, want heat", r.URL.Query().Get("query"))
			}
			w.Write([]byte(`{"page":1,"results":[
				{"id":949,"title":"Heat","overview":"crime drama","release_date":"1995-12-15","poster_path":"/p.jpg"}
			],"total_results":1}`))
		}))
		defer srv.Close()

		c := NewTMDBClient("k", 100)
		c.BaseURL = srv.URL
		results, err := c.Search(context.Background(), "movie", "heat", 1)
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("got %d results, want 1", len(results))
		}
		got := results[0]
		if got.ExternalID != "949" || got.Title != "Heat" || got.Year != "1995" {
			t.Errorf("unexpected result: %+v", got)
		}
		if got.ImageURL != "https://image.tmdb.org/t/p/w500/p.jpg" {
			t.Errorf("image = %q", got.ImageURL)
		}
	})

	t.Run("SearchTVUsesNameAndAirDate", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"results":[{"id":1399,"name":"Game of Thrones","first_air_date":"2011-04-17"}]}`))
		}))
		defer srv.Close()

		c := NewTMDBClient("k", 100)
		c.BaseURL = srv.URL
		results, err := c.Search(context.Background(), "tv", "thrones", 1)
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if results[0].Title != "Game of Thrones" || results[0].Year != "2011" {
			t.Errorf("unexpected result: %+v", results[0])
		}
	})

	t.Run("DetailsReturnsRawPayload", func(t *testing.T) {
		body := `{"id":949,"title":"Heat","runtime":170}`
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/movie/949" {
				t.Errorf("path = %q, want /movie/949", r.URL.Path)
			}
			w.Write([]byte(body))
		}))
		defer srv.Close()

		c := NewTMDBClient("k", 100)
		c.BaseURL = srv.URL
		raw, err := c.Details(context.Background(), "movie", "949")
		if err != nil {
			t.Fatalf("details failed: %v", err)
		}
		if string(raw) != body {
			t.Errorf("payload = %s", raw)
		}
	})
}

func TestOMDBClient(t *testing.T) {
	t.Run("ErrorEnvelope", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"Response":"False","Error":"Incorrect IMDb ID."}`))
		}))
		defer srv.Close()

		c := NewOMDBClient("k", 100)
		c.BaseURL = srv.URL
		_, err := c.ByIMDbID(context.Background(), "bogus")
		if !errors.Is(err, ErrUpstream) {
			t.Fatalf("err = %v, want ErrUpstream", err)
		}
	})

	t.Run("SuccessPassesPayloadThrough", func(t *testing.T) {
		body := `{"Response":"True","Title":"Heat","imdbRating":"8.3"}`
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))
		defer srv.Close()

		c := NewOMDBClient("k", 100)
		c.BaseURL = srv.URL
		raw, err := c.ByIMDbID(context.Background(), "tt0113277")
		if err != nil {
			t.Fatalf("lookup failed: %v", err)
		}
		if string(raw) != body {
			t.Errorf("payload = %s", raw)
		}
	})
}

func TestRAWGClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("search") != "hades" {
			t.Errorf("search = %q", r.URL.Query().Get("search"))
		}
		w.Write([]byte(`{"count":1,"results":[{"id":274755,"name":"Hades","released":"2020-09-17","background_image":"https://img/h.jpg"}]}`))
	}))
	defer srv.Close()

	c := NewRAWGClient("k", 100)
	c.BaseURL = srv.URL
	results, err := c.Search(context.Background(), "hades", 1)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	got := results[0]
	if got.MediaType != "game" || got.ExternalID != "274755" || got.Year != "2020" {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestGoogleBooksClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"totalItems":1,"items":[
			{"id":"abc123","volumeInfo":{"title":"Dune","authors":["Frank Herbert"],"publishedDate":"1965"}}
		]}`))
	}))
	defer srv.Close()

	c := NewGoogleBooksClient("", 100)
	c.BaseURL = srv.URL
	results, err := c.Search(context.Background(), "dune", 5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	got := results[0]
	if got.ExternalID != "abc123" || got.Title != "Frank Herbert – Dune" || got.Year != "1965" {
		t.Errorf("unexpected result: %+v", got)
	}
}
