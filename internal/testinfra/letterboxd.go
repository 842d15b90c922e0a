// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package testinfra

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

const (
	// DefaultPageSize is the number of posters per films listing page.
	DefaultPageSize = 72

	// ContactsPageSize is the number of people per followers/following page.
	ContactsPageSize = 25

	// DefaultReviewPageSize is the number of reviews per reviews listing page.
	DefaultReviewPageSize = 12
)

// Film is one title as the fake site knows it.
type Film struct {
	Slug     string
	Title    string
	Rating   float64 // the member's rating in stars, 0 for unrated
	Liked    bool
	Reviewed bool

	Director   string
	Actors     []string
	Themes     []string
	Nanogenres []string

	// Catalog record. TMDBID is assigned by AddMember when zero unless
	// NoCatalog is set, in which case the film page carries no TMDB link.
	TMDBID      int
	NoCatalog   bool
	Genres      []string
	Countries   []string
	Languages   []string
	ReleaseDate string
	Runtime     int

	// Activity dates, newest first, formatted 2006-01-02.
	Watched   []string
	Rewatched bool

	CommunityRating float64
	RatingCount     int
	WatchedCount    int
	LikedCount      int
	Top250          int
}

// Review is one review permalink. Number is 0 for a film's first review and
// n for the /{n}/ permalink of a later one.
type Review struct {
	Film   string
	Number int
	Text   string
	Likers []string
}

// Member is a Letterboxd account on the fake site.
type Member struct {
	Username    string
	DisplayName string
	AvatarURL   string
	Films       []Film
	Followers   []string
	Following   []string
	Reviews     []Review
}

type failure struct {
	status int
	times  int // remaining failures, 0 means always
}

// Letterboxd is a fake Letterboxd site and TMDB API.
type Letterboxd struct {
	Server *httptest.Server

	// PageSize and ReviewPageSize may be changed before the first request.
	PageSize       int
	ReviewPageSize int

	mu       sync.Mutex
	members  map[string]*Member
	films    map[string]*Film
	byTMDB   map[int]*Film
	nextTMDB int
	hits     map[string]int
	failures map[string]*failure
}

// NewLetterboxd starts a fake site that is closed when the test ends.
func NewLetterboxd(t *testing.T) *Letterboxd {
	t.Helper()

	l := &Letterboxd{
		PageSize:       DefaultPageSize,
		ReviewPageSize: DefaultReviewPageSize,
		members:        make(map[string]*Member),
		films:          make(map[string]*Film),
		byTMDB:         make(map[int]*Film),
		nextTMDB:       1000,
		hits:           make(map[string]int),
		failures:       make(map[string]*failure),
	}
	l.Server = httptest.NewServer(http.HandlerFunc(l.serve))
	t.Cleanup(l.Server.Close)
	return l
}

// URL returns the site root.
func (l *Letterboxd) URL() string {
	return l.Server.URL
}

// AddMember registers a member and their films. A film slug registered by an
// earlier member keeps its first definition for the shared film pages.
func (l *Letterboxd) AddMember(m Member) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if m.DisplayName == "" {
		m.DisplayName = m.Username
	}
	for i := range m.Films {
		f := &m.Films[i]
		if existing, ok := l.films[f.Slug]; ok {
			f.TMDBID = existing.TMDBID
			continue
		}
		if f.TMDBID == 0 && !f.NoCatalog {
			l.nextTMDB++
			f.TMDBID = l.nextTMDB
		}
		shared := *f
		l.films[f.Slug] = &shared
		if !f.NoCatalog {
			l.byTMDB[f.TMDBID] = &shared
		}
	}
	l.members[m.Username] = &m
}

// FailPath makes requests for path answer with status. times bounds how many
// requests fail before the path recovers; 0 fails every request.
func (l *Letterboxd) FailPath(path string, status, times int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[normalize(path)] = &failure{status: status, times: times}
}

// Hits returns how many requests reached path, failed ones included.
func (l *Letterboxd) Hits(path string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hits[normalize(path)]
}

// HitsWithPrefix sums the hits of every path starting with prefix.
func (l *Letterboxd) HitsWithPrefix(prefix string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for p, c := range l.hits {
		if strings.HasPrefix(p, prefix) {
			n += c
		}
	}
	return n
}

// ResetHits clears the request counters.
func (l *Letterboxd) ResetHits() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hits = make(map[string]int)
}

// GenerateFilms builds n rated films with slugs prefix-001, prefix-002 and so
// on. Ratings cycle through every half star.
func GenerateFilms(prefix string, n int) []Film {
	films := make([]Film, n)
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := range films {
		films[i] = Film{
			Slug:            fmt.Sprintf("%s-%03d", prefix, i+1),
			Title:           fmt.Sprintf("%s %d", prefix, i+1),
			Rating:          float64(i%10+1) / 2,
			Liked:           i%3 == 0,
			Director:        "Director " + strconv.Itoa(i%4),
			Actors:          []string{"Actor A", "Actor B"},
			Themes:          []string{"Theme " + strconv.Itoa(i%5)},
			Nanogenres:      []string{"Tense", "Gritty"},
			Genres:          []string{[]string{"Drama", "Crime", "Comedy"}[i%3]},
			Countries:       []string{"USA"},
			Languages:       []string{"English"},
			ReleaseDate:     fmt.Sprintf("%d-06-01", 1970+i%50),
			Runtime:         90 + i%60,
			Watched:         []string{base.AddDate(0, 0, i).Format(time.DateOnly)},
			CommunityRating: 3.5,
			RatingCount:     1000 + i,
			WatchedCount:    5000 + i,
			LikedCount:      1200 + i,
		}
	}
	return films
}

func normalize(path string) string {
	return "/" + strings.Trim(path, "/") + "/"
}

func (l *Letterboxd) serve(w http.ResponseWriter, r *http.Request) {
	path := normalize(r.URL.Path)

	l.mu.Lock()
	l.hits[path]++
	if f, ok := l.failures[path]; ok {
		status := f.status
		if f.times > 0 {
			f.times--
			if f.times == 0 {
				delete(l.failures, path)
			}
		}
		l.mu.Unlock()
		w.WriteHeader(status)
		return
	}
	l.mu.Unlock()

	seg := strings.Split(strings.Trim(path, "/"), "/")
	body, ok := l.route(seg)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if strings.HasPrefix(path, "/3/movie/") {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	_, _ = w.Write([]byte(body))
}

func (l *Letterboxd) route(seg []string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case len(seg) == 3 && seg[0] == "3" && seg[1] == "movie":
		id, err := strconv.Atoi(seg[2])
		if err != nil {
			return "", false
		}
		return l.tmdbMovie(id)
	case len(seg) >= 2 && seg[0] == "film":
		f, ok := l.films[seg[1]]
		if !ok {
			return "", false
		}
		switch {
		case len(seg) == 2:
			return filmPage(f), true
		case len(seg) == 3 && seg[2] == "nanogenres":
			return nanogenresPage(f), true
		}
		return "", false
	case len(seg) == 4 && seg[0] == "csi" && seg[1] == "film":
		f, ok := l.films[seg[2]]
		if !ok {
			return "", false
		}
		switch seg[3] {
		case "stats":
			return statsPage(f), true
		case "rating-histogram":
			return histogramPage(f), true
		}
		return "", false
	}

	m, ok := l.members[seg[0]]
	if !ok {
		return "", false
	}
	rest := seg[1:]
	switch {
	case len(rest) == 0:
		return profilePage(m), true
	case rest[0] == "films":
		return l.memberFilms(m, rest[1:])
	case rest[0] == "followers" || rest[0] == "following":
		return l.contactsPage(m, rest)
	case rest[0] == "film" && len(rest) >= 2:
		return l.memberFilm(m, rest[1:])
	}
	return "", false
}

// memberFilms serves /{user}/films/..., both listings and reviews.
func (l *Letterboxd) memberFilms(m *Member, rest []string) (string, bool) {
	if len(rest) > 0 && rest[0] == "reviews" {
		page, ok := pageNumber(rest[1:])
		if !ok {
			return "", false
		}
		return reviewsPage(m, page, l.ReviewPageSize), true
	}
	page, ok := pageNumber(rest)
	if !ok {
		return "", false
	}
	return listingPage(m, page, l.PageSize), true
}

// memberFilm serves activity, review and likes pages under /{user}/film/{slug}/.
func (l *Letterboxd) memberFilm(m *Member, rest []string) (string, bool) {
	slug := rest[0]
	rest = rest[1:]

	if len(rest) == 1 && rest[0] == "activity" {
		for i := range m.Films {
			if m.Films[i].Slug == slug {
				return activityPage(m, &m.Films[i]), true
			}
		}
		return "<div></div>", true
	}

	number := 0
	if len(rest) > 0 {
		if n, err := strconv.Atoi(rest[0]); err == nil {
			number = n
			rest = rest[1:]
		}
	}
	var review *Review
	for i := range m.Reviews {
		if m.Reviews[i].Film == slug && m.Reviews[i].Number == number {
			review = &m.Reviews[i]
			break
		}
	}
	if review == nil {
		return "", false
	}
	switch {
	case len(rest) == 0:
		return reviewPage(review), true
	case len(rest) == 1 && rest[0] == "likes":
		return l.likesPage(review), true
	}
	return "", false
}

func (l *Letterboxd) contactsPage(m *Member, rest []string) (string, bool) {
	people := m.Followers
	if rest[0] == "following" {
		people = m.Following
	}
	page, ok := pageNumber(rest[1:])
	if !ok {
		return "", false
	}
	var b strings.Builder
	b.WriteString("<table class=\"person-table\">")
	for _, u := range window(people, page, ContactsPageSize) {
		name, avatar := u, ""
		if c, ok := l.members[u]; ok {
			name, avatar = c.DisplayName, c.AvatarURL
		}
		fmt.Fprintf(&b, `<tr><td class="table-person"><a class="avatar" href="/%s/"><img alt="%s" src="%s"></a></td></tr>`,
			esc(u), esc(name), esc(avatar))
	}
	b.WriteString("</table>")
	return b.String(), true
}

func (l *Letterboxd) likesPage(r *Review) string {
	var b strings.Builder
	for _, u := range r.Likers {
		name := u
		if c, ok := l.members[u]; ok {
			name = c.DisplayName
		}
		fmt.Fprintf(&b, `<a class="name" href="/%s/">%s</a>`, esc(u), esc(name))
	}
	return b.String()
}

func (l *Letterboxd) tmdbMovie(id int) (string, bool) {
	f, ok := l.byTMDB[id]
	if !ok {
		return "", false
	}
	type named struct {
		Name        string `json:"name,omitempty"`
		EnglishName string `json:"english_name,omitempty"`
	}
	resp := struct {
		ID                  int     `json:"id"`
		Title               string  `json:"title"`
		ReleaseDate         string  `json:"release_date"`
		OriginalLanguage    string  `json:"original_language"`
		Runtime             int     `json:"runtime"`
		ProductionCountries []named `json:"production_countries"`
		SpokenLanguages     []named `json:"spoken_languages"`
		Genres              []named `json:"genres"`
	}{
		ID:               f.TMDBID,
		Title:            f.Title,
		ReleaseDate:      f.ReleaseDate,
		OriginalLanguage: "en",
		Runtime:          f.Runtime,
	}
	for _, c := range f.Countries {
		resp.ProductionCountries = append(resp.ProductionCountries, named{Name: c})
	}
	for _, lang := range f.Languages {
		resp.SpokenLanguages = append(resp.SpokenLanguages, named{EnglishName: lang})
	}
	for _, g := range f.Genres {
		resp.Genres = append(resp.Genres, named{Name: g})
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return "", false
	}
	return string(b), true
}

func profilePage(m *Member) string {
	return fmt.Sprintf(`<html><body>
<div class="profile-avatar"><img src="%s"></div>
<h1 class="title-1 person-display-name">%s</h1>
<div class="profile-stats js-profile-stats">
<h4 class="profile-statistic"><a href="/%s/films/"><span class="value">%s</span></a></h4>
<h4 class="profile-statistic"><a href="/%s/following/"><span class="value">%s</span></a></h4>
<h4 class="profile-statistic"><a href="/%s/followers/"><span class="value">%s</span></a></h4>
</div></body></html>`,
		esc(m.AvatarURL), esc(m.DisplayName),
		esc(m.Username), commas(len(m.Films)),
		esc(m.Username), commas(len(m.Following)),
		esc(m.Username), commas(len(m.Followers)))
}

func listingPage(m *Member, page, size int) string {
	var b strings.Builder
	b.WriteString(`<ul class="poster-list">`)
	for _, f := range window(m.Films, page, size) {
		fmt.Fprintf(&b, `<li class="poster-container"><div class="poster film-poster" data-target-link="/film/%s/"><img alt="%s"></div><p class="poster-viewingdata">`,
			esc(f.Slug), esc(f.Title))
		if f.Rating > 0 {
			fmt.Fprintf(&b, `<span class="rating -micro rated-%d"></span>`, int(f.Rating*2))
		}
		if f.Liked {
			b.WriteString(`<span class="like liked-micro has-icon icon-liked icon-16"></span>`)
		}
		if f.Reviewed {
			fmt.Fprintf(&b, `<a class="review-micro has-icon icon-review tooltip" href="/%s/film/%s/"></a>`, esc(m.Username), esc(f.Slug))
		}
		b.WriteString("</p></li>")
	}
	b.WriteString("</ul>")
	b.WriteString(pagination(pages(len(m.Films), size)))
	return b.String()
}

func reviewsPage(m *Member, page, size int) string {
	var b strings.Builder
	b.WriteString(`<ul class="film-list">`)
	for _, r := range window(m.Reviews, page, size) {
		link := fmt.Sprintf("/%s/film/%s/", m.Username, r.Film)
		if r.Number > 0 {
			link += strconv.Itoa(r.Number) + "/"
		}
		fmt.Fprintf(&b, `<li class="film-detail"><a href="%s">%s</a></li>`, esc(link), esc(r.Film))
	}
	b.WriteString("</ul>")
	b.WriteString(pagination(pages(len(m.Reviews), size)))
	return b.String()
}

func reviewPage(r *Review) string {
	return fmt.Sprintf(`<div class="review body-text -prose"><p>%s</p></div>`, esc(r.Text))
}

func filmPage(f *Film) string {
	var b strings.Builder
	b.WriteString(`<div class="cast-list text-sluglist">`)
	for _, a := range f.Actors {
		fmt.Fprintf(&b, `<a href="/actor/x/">%s</a>`, esc(a))
	}
	b.WriteString(`</div><div id="tab-crew"><h3>Director</h3><div class="text-sluglist">`)
	if f.Director != "" {
		fmt.Fprintf(&b, `<a class="text-slug" href="/director/x/">%s</a>`, esc(f.Director))
	}
	b.WriteString(`</div></div><div id="tab-genres"><div class="text-sluglist"></div><div class="text-sluglist">`)
	for _, th := range f.Themes {
		fmt.Fprintf(&b, `<a href="/films/theme/x/">%s</a>`, esc(th))
	}
	fmt.Fprintf(&b, `<a href="/film/%s/themes/">Show All…</a></div></div>`, esc(f.Slug))
	if !f.NoCatalog {
		fmt.Fprintf(&b, `<a class="micro-button track-event" data-track-action="TMDb" href="https://www.themoviedb.org/movie/%d/">TMDb</a>`, f.TMDBID)
	}
	return b.String()
}

func nanogenresPage(f *Film) string {
	if len(f.Nanogenres) == 0 {
		return "<div></div>"
	}
	return fmt.Sprintf(`<h2 class="title">%s</h2>`, esc(strings.Join(f.Nanogenres, ", ")))
}

func statsPage(f *Film) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<a class="has-icon icon-watched" title="Watched by %s members"></a>`, commas(f.WatchedCount))
	fmt.Fprintf(&b, `<a class="has-icon icon-liked" title="Liked by %s members"></a>`, commas(f.LikedCount))
	if f.Top250 > 0 {
		fmt.Fprintf(&b, `<a class="has-icon icon-top250" title="№ %d in Letterboxd’s Top 250"></a>`, f.Top250)
	}
	return b.String()
}

func histogramPage(f *Film) string {
	if f.RatingCount == 0 {
		return `<div class="rating-histogram"></div>`
	}
	return fmt.Sprintf(`<a class="tooltip display-rating" title="Weighted average of %.2f based on %s ratings">%.1f</a>`,
		f.CommunityRating, commas(f.RatingCount), f.CommunityRating)
}

func activityPage(m *Member, f *Film) string {
	var b strings.Builder
	for i, d := range f.Watched {
		verb := "watched"
		if f.Rewatched && i == 0 {
			verb = "rewatched"
		}
		fmt.Fprintf(&b, `<section class="activity-row -basic"><p>%s %s %s</p><time datetime="%sT20:00:00Z"></time></section>`,
			esc(m.DisplayName), verb, esc(f.Title), d)
	}
	return b.String()
}

// pageNumber reads an optional "page/{n}" suffix.
func pageNumber(rest []string) (int, bool) {
	switch {
	case len(rest) == 0:
		return 1, true
	case len(rest) == 2 && rest[0] == "page":
		n, err := strconv.Atoi(rest[1])
		return n, err == nil && n > 0
	}
	return 0, false
}

func window[T any](items []T, page, size int) []T {
	start := (page - 1) * size
	if start >= len(items) {
		return nil
	}
	return items[start:min(start+size, len(items))]
}

func pages(n, size int) int {
	if n == 0 {
		return 1
	}
	return (n + size - 1) / size
}

func pagination(n int) string {
	if n < 2 {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<div class="paginate-pages"><ul>`)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<li class="paginate-page"><a href="#">%d</a></li>`, i)
	}
	b.WriteString("</ul></div>")
	return b.String()
}

func commas(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func esc(s string) string {
	return html.EscapeString(s)
}
