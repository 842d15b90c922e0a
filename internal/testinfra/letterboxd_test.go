// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package testinfra

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestLetterboxd_Listing(t *testing.T) {
	t.Parallel()

	site := NewLetterboxd(t)
	site.PageSize = 10
	site.AddMember(Member{Username: "dave", Films: GenerateFilms("dave", 25)})

	status, body := get(t, site.URL()+"/dave/films/page/3/")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if n := strings.Count(body, `class="poster-container"`); n != 5 {
		t.Errorf("posters on last page = %d, want 5", n)
	}
	if !strings.Contains(body, `<li class="paginate-page"><a href="#">3</a></li>`) {
		t.Error("pagination missing last page")
	}
	if site.Hits("/dave/films/page/3") != 1 {
		t.Errorf("Hits = %d, want 1", site.Hits("/dave/films/page/3"))
	}
}

func TestLetterboxd_UnknownMember(t *testing.T) {
	t.Parallel()

	site := NewLetterboxd(t)
	if status, _ := get(t, site.URL()+"/ghost/films/"); status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
}

func TestLetterboxd_FailPath(t *testing.T) {
	t.Parallel()

	site := NewLetterboxd(t)
	site.AddMember(Member{Username: "dave", Films: GenerateFilms("dave", 1)})
	site.FailPath("/film/dave-001/", http.StatusBadGateway, 2)

	for i, want := range []int{http.StatusBadGateway, http.StatusBadGateway, http.StatusOK} {
		if status, _ := get(t, site.URL()+"/film/dave-001/"); status != want {
			t.Errorf("request %d: status = %d, want %d", i+1, status, want)
		}
	}
}

func TestLetterboxd_TMDB(t *testing.T) {
	t.Parallel()

	site := NewLetterboxd(t)
	films := GenerateFilms("dave", 2)
	films[1].NoCatalog = true
	site.AddMember(Member{Username: "dave", Films: films})

	status, body := get(t, site.URL()+"/3/movie/1001?api_key=x")
	if status != http.StatusOK || !strings.Contains(body, `"title":"dave 1"`) {
		t.Errorf("movie 1001 = %d %s", status, body)
	}
	if status, _ := get(t, site.URL()+"/3/movie/1002"); status != http.StatusNotFound {
		t.Errorf("uncatalogued film status = %d, want 404", status)
	}
	_, page := get(t, site.URL()+"/film/dave-002/")
	if strings.Contains(page, "themoviedb") {
		t.Error("uncatalogued film page links to TMDB")
	}
}

func TestCommas(t *testing.T) {
	t.Parallel()

	tests := map[int]string{0: "0", 999: "999", 1000: "1,000", 812345: "812,345", 1234567: "1,234,567"}
	for n, want := range tests {
		if got := commas(n); got != want {
			t.Errorf("commas(%d) = %q, want %q", n, got, want)
		}
	}
}
