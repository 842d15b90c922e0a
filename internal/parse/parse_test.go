// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package parse

import (
	"reflect"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := Document([]byte(html))
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	return doc
}

func TestPageCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want int
	}{
		{"paginated", `<ul><li class="paginate-page">1</li><li class="paginate-page">2</li><li class="paginate-page">14</li></ul>`, 14},
		{"no pagination", `<div>nothing</div>`, 1},
		{"ellipsis last", `<ul><li class="paginate-page">1</li><li class="paginate-page">…</li></ul>`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PageCount(mustDoc(t, tt.html)); got != tt.want {
				t.Errorf("PageCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

const listingHTML = `
<ul class="poster-list">
  <li class="poster-container">
    <div class="poster film-poster" data-target-link="/film/heat-1995/"><img alt="Heat" src="x.jpg"></div>
    <p class="poster-viewingdata">
      <span class="rating -micro -darker rated-9"></span>
      <span class="like liked-micro has-icon icon-liked icon-16"></span>
      <a class="review-micro has-icon icon-review tooltip" href="/dave/film/heat-1995/"></a>
    </p>
  </li>
  <li class="poster-container">
    <div class="poster film-poster" data-target-link="/film/thief/"><img alt="Thief"></div>
  </li>
  <li class="poster-container">
    <div class="poster film-poster"><img alt="No link"></div>
  </li>
  <li class="poster-container">
    <div class="poster film-poster" data-target-link="/film/collateral/"><img alt="Collateral"></div>
    <p class="poster-viewingdata"><span class="rating -micro rated-1"></span></p>
  </li>
</ul>`

func TestListing(t *testing.T) {
	t.Parallel()

	got := Listing(mustDoc(t, listingHTML))
	if len(got) != 3 {
		t.Fatalf("len(Listing()) = %d, want 3", len(got))
	}

	heat := got[0]
	if heat.Name != "heat-1995" || heat.Title != "Heat" || heat.Link != "/film/heat-1995/" {
		t.Errorf("heat = %+v", heat)
	}
	if heat.UserRating != 4.5 || !heat.IsLiked || !heat.IsReviewed {
		t.Errorf("heat flags = %+v", heat)
	}
	if got[1].UserRating != 0 || got[1].IsLiked || got[1].IsReviewed {
		t.Errorf("unrated entry = %+v", got[1])
	}
	if got[2].UserRating != 0.5 {
		t.Errorf("half-star rating = %v, want 0.5", got[2].UserRating)
	}
}

func TestActivity(t *testing.T) {
	t.Parallel()

	t.Run("single watch", func(t *testing.T) {
		doc := mustDoc(t, `
<section class="activity-row -basic"><p>Dave watched Heat</p><span class="nobr">Mar 7, 2024</span></section>
<section class="activity-row -basic"><p>Dave added Heat to a list</p><span class="nobr">Jan 1, 2020</span></section>`)
		got := Activity(doc)
		if got.LastWatched == nil || *got.LastWatched != "2024-03-07" {
			t.Fatalf("LastWatched = %v", got.LastWatched)
		}
		if got.IsRewatched {
			t.Error("single entry should not be a rewatch")
		}
	})

	t.Run("multiple entries with datetime", func(t *testing.T) {
		doc := mustDoc(t, `
<section class="activity-row -basic"><p>Dave reviewed, and rated Heat</p><time datetime="2024-05-01T20:15:00Z"></time></section>
<section class="activity-row -basic"><p>Dave watched Heat</p><span class="nobr">Feb 14, 2019</span></section>`)
		got := Activity(doc)
		if got.LastWatched == nil || *got.LastWatched != "2024-05-01" {
			t.Fatalf("LastWatched = %v", got.LastWatched)
		}
		if !got.IsRewatched {
			t.Error("two logged entries should count as a rewatch")
		}
	})

	t.Run("explicit rewatch", func(t *testing.T) {
		got := Activity(mustDoc(t, `<div class="activity-row -basic">Dave rewatched Heat <span class="nobr">Dec 25, 2023</span></div>`))
		if !got.IsRewatched {
			t.Error("rewatched keyword not detected")
		}
	})

	t.Run("no activity", func(t *testing.T) {
		got := Activity(mustDoc(t, `<div class="activity-row -basic">Dave liked Heat</div>`))
		if got.LastWatched != nil || got.IsRewatched {
			t.Errorf("got %+v, want zero facet", got)
		}
	})
}

const filmHTML = `
<div class="cast-list text-sluglist">
  <a href="/actor/al-pacino/">Al Pacino</a><a href="/actor/robert-de-niro/">Robert De Niro</a>
  <a href="/actor/val-kilmer/">Val Kilmer</a><a href="/actor/jon-voight/">Jon Voight</a>
</div>
<div id="tab-crew"><h3>Director</h3><div class="text-sluglist"><a class="text-slug" href="/director/michael-mann/">Michael Mann</a></div></div>
<div id="tab-genres">
  <div class="text-sluglist"><a href="/films/genre/crime/">Crime</a></div>
  <div class="text-sluglist">
    <a href="/films/theme/heists/">Heists and robberies</a>
    <a href="/films/theme/cops/">Crime and cops</a>
    <a href="/film/heat-1995/themes/">Show All…</a>
  </div>
</div>
<a class="micro-button track-event" data-track-action="TMDb" href="https://www.themoviedb.org/movie/949/">TMDb</a>`

func TestFilmDetail(t *testing.T) {
	t.Parallel()

	d := FilmDetail(mustDoc(t, filmHTML))
	if d.Director != "Michael Mann" {
		t.Errorf("Director = %q", d.Director)
	}
	if want := []string{"Al Pacino", "Robert De Niro", "Val Kilmer"}; !reflect.DeepEqual(d.Actors, want) {
		t.Errorf("Actors = %v, want %v", d.Actors, want)
	}
	if want := []string{"Heists and robberies", "Crime and cops"}; !reflect.DeepEqual(d.Themes, want) {
		t.Errorf("Themes = %v, want %v", d.Themes, want)
	}
	if d.TMDBID == nil || *d.TMDBID != 949 {
		t.Errorf("TMDBID = %v, want 949", d.TMDBID)
	}
}

func TestFilmDetail_Empty(t *testing.T) {
	t.Parallel()

	d := FilmDetail(mustDoc(t, `<html><body></body></html>`))
	if d.Director != "" || len(d.Actors) != 0 || len(d.Themes) != 0 || d.TMDBID != nil {
		t.Errorf("FilmDetail() = %+v, want zero values", d)
	}
}

func TestNanogenres(t *testing.T) {
	t.Parallel()

	got := Nanogenres(mustDoc(t, `
<h2 class="title">Heist, Crime, Tense</h2>
<h2 class="title">Crime, Gritty</h2>
<h2 class="other">Ignored</h2>`))
	want := []string{"Heist", "Crime", "Tense", "Gritty"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Nanogenres() = %v, want %v", got, want)
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `
<a class="has-icon icon-watched" title="Watched by 1,234,567 members"></a>
<a class="has-icon icon-liked" title="Liked by 98,001 members"></a>
<a class="has-icon icon-top250" title="№ 42 in Letterboxd’s Top 250"></a>`)
	watched, liked, top := Stats(doc)
	if watched != 1234567 || liked != 98001 || top != 42 {
		t.Errorf("Stats() = %d, %d, %d", watched, liked, top)
	}

	w, l, r := Stats(mustDoc(t, `<p></p>`))
	if w != 0 || l != 0 || r != 0 {
		t.Errorf("empty Stats() = %d, %d, %d", w, l, r)
	}
}

func TestRatingHistogram(t *testing.T) {
	t.Parallel()

	t.Run("published average", func(t *testing.T) {
		doc := mustDoc(t, `<a class="display-rating" title="Weighted average of 4.21 based on 812,345 ratings">4.2</a>`)
		rating, count := RatingHistogram(doc)
		if rating != 4.21 || count != 812345 {
			t.Errorf("RatingHistogram() = %v, %d", rating, count)
		}
	})

	t.Run("histogram fallback", func(t *testing.T) {
		// Only the 0.5 and 5 star bars have votes: (1*0.5 + 3*5) / 4 = 3.875.
		doc := mustDoc(t, `<ul>
<li class="rating-histogram-bar"><a title="1 half-★ rating (25%)"></a></li>
<li class="rating-histogram-bar"></li>
<li class="rating-histogram-bar"></li>
<li class="rating-histogram-bar"></li>
<li class="rating-histogram-bar"></li>
<li class="rating-histogram-bar"></li>
<li class="rating-histogram-bar"></li>
<li class="rating-histogram-bar"></li>
<li class="rating-histogram-bar"></li>
<li class="rating-histogram-bar"><a title="3 ★★★★★ ratings (75%)"></a></li>
</ul>`)
		rating, count := RatingHistogram(doc)
		if rating != 3.88 || count != 4 {
			t.Errorf("RatingHistogram() = %v, %d, want 3.88, 4", rating, count)
		}
	})

	t.Run("no ratings", func(t *testing.T) {
		rating, count := RatingHistogram(mustDoc(t, `<div></div>`))
		if rating != 0 || count != 0 {
			t.Errorf("RatingHistogram() = %v, %d", rating, count)
		}
	})
}

func TestProfile(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `
<div class="profile-avatar"><img src="https://a.ltrbxd.com/dave.jpg"></div>
<h1 class="title-1 person-display-name">Dave </h1>
<div class="profile-stats js-profile-stats">
  <h4 class="profile-statistic"><a href="/dave/films/"><span class="value">1,024</span></a></h4>
  <h4 class="profile-statistic"><a href="/dave/following/"><span class="value">51</span></a></h4>
  <h4 class="profile-statistic"><a href="/dave/followers/"><span class="value">1,250</span></a></h4>
</div>`)

	p, found := Profile(doc, "dave")
	if !found {
		t.Fatal("Profile() found = false")
	}
	if p.DisplayName != "Dave" || p.AvatarURL != "https://a.ltrbxd.com/dave.jpg" {
		t.Errorf("Profile() = %+v", p)
	}
	if p.FollowingCount != 51 || p.FollowerCount != 1250 {
		t.Errorf("counts = %d following, %d followers", p.FollowingCount, p.FollowerCount)
	}
	if p.FollowerPages() != 51 || p.FollowingPages() != 3 {
		t.Errorf("pages = %d, %d", p.FollowerPages(), p.FollowingPages())
	}

	if _, found := Profile(mustDoc(t, `<h1>Sorry, we can’t find the page</h1>`), "ghost"); found {
		t.Error("missing profile reported as found")
	}
}

func TestContacts(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `<table>
<tr><td class="table-person"><a class="avatar" href="/alice/"><img alt="Alice A" src="alice.jpg"></a></td></tr>
<tr><td class="table-person"><a class="avatar" href="/bob/"><img alt="Bob" src=""></a></td></tr>
<tr><td class="table-person"><img alt="Nobody"></td></tr>
</table>`)
	got := Contacts(doc)
	if len(got) != 2 {
		t.Fatalf("len(Contacts()) = %d, want 2", len(got))
	}
	if got[0].Username != "alice" || got[0].DisplayName != "Alice A" || got[0].AvatarURL != "alice.jpg" {
		t.Errorf("alice = %+v", got[0])
	}
	if got[1].Username != "bob" || got[1].AvatarURL != "" {
		t.Errorf("bob = %+v", got[1])
	}
}

func TestReviews(t *testing.T) {
	t.Parallel()

	links := ReviewLinks(mustDoc(t, `<ul>
<li class="film-detail"><a href="/dave/film/heat-1995/">Heat</a></li>
<li class="film-detail"><a href="/dave/film/thief/2/">Thief</a></li>
</ul>`))
	if want := []string{"/dave/film/heat-1995/", "/dave/film/thief/2/"}; !reflect.DeepEqual(links, want) {
		t.Errorf("ReviewLinks() = %v", links)
	}

	text := ReviewText(mustDoc(t, `<div class="review body-text"><p>  Best   <b>diner</b> scene.</p><p>Ever.</p></div>`))
	if text != "Best diner scene. Ever." {
		t.Errorf("ReviewText() = %q", text)
	}

	likers := Likers(mustDoc(t, `<a class="name" href="/alice/">Alice</a><a class="name" href="/bob/">Bob</a>`))
	if want := []string{"/alice/", "/bob/"}; !reflect.DeepEqual(likers, want) {
		t.Errorf("Likers() = %v", likers)
	}
}
