// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package social

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/unboxd/internal/cache"
	"github.com/tomtom215/unboxd/internal/crawl"
	"github.com/tomtom215/unboxd/internal/fetch"
	"github.com/tomtom215/unboxd/internal/models"
	"github.com/tomtom215/unboxd/internal/testinfra"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	site     *testinfra.Letterboxd
	resolver *Resolver
	backend  *cache.MemoryBackend
	clock    *fakeClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		site:  testinfra.NewLetterboxd(t),
		clock: &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	f := fetch.New(fetch.Config{
		Timeout:     2 * time.Second,
		MaxAttempts: 1,
		BaseDelay:   time.Millisecond,
		MaxDelay:    time.Millisecond,
		HostLimit:   5,
	})
	var tiered *cache.Tiered
	tiered, h.backend = cache.NewMemory(cache.DefaultWindow, h.clock.Now)
	h.resolver = NewResolver(crawl.NewSite(f, h.site.URL()), tiered, Options{
		UserBatchSize: 10,
		PageBatchSize: 10,
		MinItems:      20,
	})
	return h
}

// neighborhood registers dave with a mix of usable and unusable contacts.
// Films 1-25 are dave's, alice has 6-30, carol has 1-20 and bob only 5.
func (h *harness) neighborhood(followers, following []string) []testinfra.Film {
	films := testinfra.GenerateFilms("film", 30)
	h.site.AddMember(testinfra.Member{
		Username:    "dave",
		DisplayName: "Dave",
		AvatarURL:   "https://a.ltrbxd.com/dave.jpg",
		Films:       append([]testinfra.Film(nil), films[:25]...),
		Followers:   followers,
		Following:   following,
	})
	h.site.AddMember(testinfra.Member{Username: "alice", DisplayName: "Alice", AvatarURL: "alice.jpg", Films: append([]testinfra.Film(nil), films[5:]...)})
	h.site.AddMember(testinfra.Member{Username: "carol", DisplayName: "Carol", Films: append([]testinfra.Film(nil), films[:20]...)})
	h.site.AddMember(testinfra.Member{Username: "bob", DisplayName: "Bob", Films: append([]testinfra.Film(nil), films[:5]...)})
	return films
}

func usernames(cs []models.Contact) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Username
	}
	return out
}

func TestResolve_Followers(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.neighborhood([]string{"alice", "bob", "ghost"}, []string{"carol"})

	g, err := h.resolver.Resolve(context.Background(), "dave", models.GroupFollowers)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if g.Subject.DisplayName != "Dave" || g.Subject.AvatarURL != "https://a.ltrbxd.com/dave.jpg" {
		t.Errorf("Subject = %+v", g.Subject)
	}
	if got := usernames(g.Contacts); !reflect.DeepEqual(got, []string{"alice"}) {
		t.Errorf("Contacts = %v, want [alice] (bob too short, ghost missing)", got)
	}
	if g.Contacts[0].DisplayName != "Alice" || g.Contacts[0].AvatarURL != "alice.jpg" {
		t.Errorf("alice = %+v", g.Contacts[0])
	}
	if len(g.Datasets) != 2 || g.Datasets["dave"].Len() != 25 || g.Datasets["alice"].Len() != 25 {
		t.Errorf("Datasets sizes: dave=%d alice=%d total=%d", g.Datasets["dave"].Len(), g.Datasets["alice"].Len(), len(g.Datasets))
	}
	if !g.Datasets["dave"].Valid() {
		t.Error("subject dataset slices have different lengths")
	}
	if d := g.Datasets["dave"]; d.Links[0] != "/film/film-001/" || d.Titles[0] != "film 1" || d.Ratings[0] != 0.5 {
		t.Errorf("first dave entry = %q %q %v", d.Links[0], d.Titles[0], d.Ratings[0])
	}
}

func TestResolve_BothMergesLists(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.neighborhood([]string{"alice", "carol"}, []string{"carol", "alice", "dave"})

	g, err := h.resolver.Resolve(context.Background(), "dave", models.GroupBoth)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := usernames(g.Contacts); !reflect.DeepEqual(got, []string{"alice", "carol"}) {
		t.Errorf("Contacts = %v, want [alice carol]", got)
	}
	if n := h.site.Hits("/alice/films/"); n != 1 {
		t.Errorf("alice crawled %d times, want once", n)
	}
}

func TestResolve_Following(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.neighborhood([]string{"alice"}, []string{"carol"})

	g, err := h.resolver.Resolve(context.Background(), "dave", models.GroupFollowing)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := usernames(g.Contacts); !reflect.DeepEqual(got, []string{"carol"}) {
		t.Errorf("Contacts = %v, want [carol]", got)
	}
}

func TestResolve_PaginatedContacts(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	films := testinfra.GenerateFilms("film", 20)
	var followers []string
	for i := 1; i <= 30; i++ {
		name := fmt.Sprintf("user%02d", i)
		followers = append(followers, name)
		h.site.AddMember(testinfra.Member{Username: name, Films: append([]testinfra.Film(nil), films...)})
	}
	h.site.AddMember(testinfra.Member{Username: "dave", Films: append([]testinfra.Film(nil), films...), Followers: followers})

	g, err := h.resolver.Resolve(context.Background(), "dave", models.GroupFollowers)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := usernames(g.Contacts); !reflect.DeepEqual(got, followers) {
		t.Errorf("Contacts = %v, want all 30 followers in order", got)
	}
	if h.site.Hits("/dave/followers/page/2/") != 1 {
		t.Error("second followers page not fetched")
	}
}

func TestResolve_SubjectInsufficientHistory(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.site.AddMember(testinfra.Member{Username: "dave", Films: testinfra.GenerateFilms("film", 19), Followers: []string{"alice"}})
	h.site.AddMember(testinfra.Member{Username: "alice", Films: testinfra.GenerateFilms("film", 30)})

	if _, err := h.resolver.Resolve(context.Background(), "dave", models.GroupFollowers); !errors.Is(err, crawl.ErrInsufficientHistory) {
		t.Errorf("error = %v, want ErrInsufficientHistory", err)
	}
	if n := h.site.HitsWithPrefix("/dave/followers/"); n != 0 {
		t.Errorf("followers pages fetched %d times, want none after the subject fails", n)
	}
	if n := h.site.HitsWithPrefix("/alice/"); n != 0 {
		t.Errorf("contact alice fetched %d times, want none after the subject fails", n)
	}
}

func TestResolve_ProfileNotFound(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	if _, err := h.resolver.Resolve(context.Background(), "ghost", models.GroupBoth); !errors.Is(err, crawl.ErrProfileNotFound) {
		t.Errorf("error = %v, want ErrProfileNotFound", err)
	}
}

func TestResolve_UserSetCache(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.neighborhood([]string{"alice", "bob"}, nil)

	if _, err := h.resolver.Resolve(context.Background(), "dave", models.GroupFollowers); err != nil {
		t.Fatalf("first Resolve() error = %v", err)
	}
	if _, _, sets := h.backend.Counts(); sets != 3 {
		t.Errorf("stored user sets = %d, want 3 (short histories are stored too)", sets)
	}

	h.site.ResetHits()
	if _, err := h.resolver.Resolve(context.Background(), "dave", models.GroupFollowers); err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}
	for _, u := range []string{"dave", "alice", "bob"} {
		if n := h.site.HitsWithPrefix("/" + u + "/films/"); n != 0 {
			t.Errorf("%s listing fetched %d times with a fresh cache", u, n)
		}
	}

	h.site.ResetHits()
	h.clock.Advance(6 * 24 * time.Hour)
	if _, err := h.resolver.Resolve(context.Background(), "dave", models.GroupFollowers); err != nil {
		t.Fatalf("third Resolve() error = %v", err)
	}
	if n := h.site.Hits("/alice/films/page/1/"); n != 1 {
		t.Errorf("stale alice listing fetched %d times, want 1", n)
	}
	if _, _, sets := h.backend.Counts(); sets != 3 {
		t.Errorf("stored user sets = %d, want 3 (refreshed in place)", sets)
	}
}

func TestMergeContacts(t *testing.T) {
	t.Parallel()

	followers := []models.Contact{
		{Username: "alice", DisplayName: "Alice"},
		{Username: "bob", DisplayName: "Bob", AvatarURL: "bob.jpg"},
	}
	following := []models.Contact{
		{Username: "carol", DisplayName: "Carol"},
		{Username: "alice", DisplayName: "Alice B", AvatarURL: "alice.jpg"},
		{Username: "bob", DisplayName: "Bob", AvatarURL: "other.jpg"},
	}

	got := mergeContacts(followers, following)
	want := []models.Contact{
		{Username: "alice", DisplayName: "Alice", AvatarURL: "alice.jpg"},
		{Username: "bob", DisplayName: "Bob", AvatarURL: "bob.jpg"},
		{Username: "carol", DisplayName: "Carol"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("mergeContacts() = %+v, want %+v", got, want)
	}
}

func TestRanker_Rank(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.neighborhood([]string{"alice", "bob"}, nil)
	ranker := NewRanker(h.resolver, 10)

	got, err := ranker.Rank(context.Background(), "dave", models.GroupFollowers)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(got.Rankings) != 1 || got.Rankings[0].Username != "alice" || got.Rankings[0].DisplayName != "Alice" {
		t.Fatalf("Rankings = %+v", got.Rankings)
	}
	if s := got.Rankings[0].Similarity; s <= 0 || s >= 1 {
		t.Errorf("alice similarity = %v, want in (0, 1)", s)
	}

	// alice alone rated films 26-30, so each score is her shifted rating.
	wantLinks := []string{"/film/film-030/", "/film/film-029/", "/film/film-028/", "/film/film-027/", "/film/film-026/"}
	wantScores := []float64{6, 5.5, 5, 4.5, 4}
	if len(got.Recommendations) != len(wantLinks) {
		t.Fatalf("Recommendations = %+v", got.Recommendations)
	}
	for i, rec := range got.Recommendations {
		if rec.Link != wantLinks[i] || math.Abs(rec.Score-wantScores[i]) > 1e-9 {
			t.Errorf("Recommendations[%d] = %+v, want %s %v", i, rec, wantLinks[i], wantScores[i])
		}
	}
	if got.Recommendations[0].Title != "film 30" {
		t.Errorf("title = %q, want film 30", got.Recommendations[0].Title)
	}
}
