// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package analytics

import (
	"math"

	"github.com/tomtom215/unboxd/internal/models"
)

// UserType is the viewer archetype code consumed by the frontend.
type UserType string

const (
	Explorer  UserType = "exp"
	Identity  UserType = "idn"
	Escapist  UserType = "esc"
	Scrobbler UserType = "scb"
	Casual    UserType = "csl"
)

// diversityComponents weights the normalized entropy of each attribute.
// The cardinality is the number of distinct values the attribute can take
// and normalizes the entropy to [0, 1].
var diversityComponents = []struct {
	values      attribute
	cardinality float64
	weight      float64
}{
	{genres, 20, 0.15},
	{countries, 195, 0.2},
	{themes, 120, 0.15},
	{spokenLanguages, 100, 0.1},
	{originalLanguage, 100, 0.2},
	{releaseYear, 136, 0.2},
}

// Diversity is the weighted normalized Shannon entropy of the rated
// records' genres, countries, themes, languages and release years.
func Diversity(records []models.MovieRecord) float64 {
	rated := ratedOnly(records)
	var score float64
	for _, c := range diversityComponents {
		score += c.weight * normalizedEntropy(rated, c.values, c.cardinality)
	}
	return score
}

func normalizedEntropy(records []models.MovieRecord, attr attribute, cardinality float64) float64 {
	counts := make(map[string]int)
	total := 0
	for i := range records {
		for _, v := range attr(&records[i]) {
			counts[v]++
			total++
		}
	}
	if total == 0 {
		return 0
	}

	var h float64
	for _, n := range counts {
		p := float64(n) / float64(total)
		h -= p * math.Log2(p)
	}
	return h / math.Log2(cardinality)
}

// Obscurity scores how far the rated records stray from the mainstream:
// low audience, low community rating, pre-1950 releases and top-250 entries.
func Obscurity(records []models.MovieRecord) float64 {
	rated := ratedOnly(records)
	if len(rated) == 0 {
		return 0
	}

	var lowAudience, lowRated, ranked, older int
	for i := range rated {
		r := &rated[i]
		if r.WatchedCount < 10000 {
			lowAudience++
		}
		if r.CommunityRating < 3 {
			lowRated++
		}
		if r.Top250Rank != 0 {
			ranked++
		}
		if y, ok := year(r); ok && y < 1950 {
			older++
		}
	}

	n := float64(len(rated))
	return float64(lowAudience)/n*0.35 +
		float64(lowRated)/n*0.2 +
		float64(older)/n*0.25 +
		float64(ranked)/n*0.2
}

// Classify assigns the viewer archetype. Rules are checked in order and the
// first match wins.
func Classify(records []models.MovieRecord) UserType {
	rated := ratedOnly(records)
	if len(rated) == 0 {
		return Casual
	}

	identity, escapism := themeShares(rated)
	reviews := reviewShare(rated)

	switch {
	case Diversity(records) > 0.6 && Obscurity(records) > 0.1:
		return Explorer
	case identity > 0.5:
		return Identity
	case escapism > 0.4 && reviews < 0.4:
		return Escapist
	case (earlyWatchShare(rated) > 0.1 || popularity(rated) > 0.1) && reviews > 0.4:
		return Scrobbler
	default:
		return Casual
	}
}

// themeShares classifies each record by its first theme that belongs to
// either family and returns the share of records in each.
func themeShares(rated []models.MovieRecord) (identity, escapism float64) {
	step := 1 / float64(len(rated))
	for _, r := range rated {
		for _, t := range r.Themes {
			if _, ok := identityThemes[t]; ok {
				identity += step
				break
			}
			if _, ok := escapistThemes[t]; ok {
				escapism += step
				break
			}
		}
	}
	return identity, escapism
}

// earlyWatchShare is the share of records last watched within 60 days of release.
func earlyWatchShare(rated []models.MovieRecord) float64 {
	n := 0
	for i := range rated {
		watched, ok := lastWatched(&rated[i])
		if !ok {
			continue
		}
		released, ok := releaseDate(&rated[i])
		if !ok {
			continue
		}
		if watched.Sub(released).Hours()/24 < 60 {
			n++
		}
	}
	return float64(n) / float64(len(rated))
}

// popularity is the share of blockbusters minus the share of niche titles.
func popularity(rated []models.MovieRecord) float64 {
	var high, low int
	for _, r := range rated {
		switch {
		case r.WatchedCount > 1_000_000:
			high++
		case r.WatchedCount < 10_000:
			low++
		}
	}
	return float64(high-low) / float64(len(rated))
}

func reviewShare(rated []models.MovieRecord) float64 {
	n := 0
	for _, r := range rated {
		if r.IsReviewed {
			n++
		}
	}
	return float64(n) / float64(len(rated))
}

func set(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

var identityThemes = set(
	"Politics and human rights",
	"Religious faith, sin, and forgiveness",
	"Captivating relationships and charming romance",
	"Challenging or sexual themes & twists",
	"Emotional LGBTQ relationships",
	"Inspiring sports underdog stories",
	"Emotional life of renowned artists",
	"Emotional and touching family dramas",
	"Fascinating, emotional stories and documentaries",
	"Emotional teen coming-of-age stories",
	"Enduring stories of family and marital drama",
	"Erotic relationships and desire",
	"Faith and religion",
	"Faith and spiritual journeys",
	"Political drama, patriotism, and war",
	"Heartbreaking and moving family drama",
	"Moving relationship stories",
	"Powerful stories of heartbreak and suffering",
	"Racism and the powerful fight for justice",
	"Student coming-of-age challenges",
	"Teen friendship and coming-of-age",
	"Underdogs and coming of age",
	"Passion and romance",
)

var escapistThemes = set(
	"Crime, drugs and gangsters",
	"Chilling experiments and classic monster horror",
	"Creepy, chilling, and terrifying horror",
	"Action-packed space and alien sagas",
	"Brutal, violent prison drama",
	"Captivating vision and Shakespearean drama",
	"Dangerous technology and the apocalypse",
	"Disastrous voyages and heroic survival",
	"Dazzling vocal performances and musicals",
	"Explosive and action-packed heroes vs. villains",
	"Dreamlike, quirky, and surreal storytelling",
	"Song and dance",
	"Spooky, scary comedy",
	"Emotional and captivating fantasy storytelling",
	"Epic adventure and breathtaking battles",
	"Epic heroes",
	"Relationship comedy",
	"Fairy-tale fantasy and enchanted magic",
	"Fantasy adventure, heroism, and swordplay",
	"Gory, gruesome, and slasher horror",
	"Gothic and eerie haunting horror",
	"Heists and thrilling action",
	"Historical battles and epic heroism",
	"Horror, the undead and monster classics",
	"Imaginative space odysseys and alien encounters",
	"Kids' animated fun and adventure",
	"Lavish dramas and sumptuous royalty",
	"Monsters, aliens, sci-fi and the apocalypse",
	"Sci-fi horror, creatures, and aliens",
	"Sci-fi monster and dinosaur adventures",
	"Superheroes in action-packed battles with villains",
	"Survival horror and zombie carnage",
	"Thought-provoking sci-fi action and future technology",
	"Terrifying, haunted, and supernatural horror",
	"Adrenaline-fueled action and fast cars",
)
