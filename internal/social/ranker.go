// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package social

import (
	"context"

	"github.com/tomtom215/unboxd/internal/models"
	"github.com/tomtom215/unboxd/internal/recommend"
)

// Ranker turns a resolved Graph into contact rankings and predictions.
type Ranker struct {
	resolver *Resolver
	topN     int
}

// NewRanker creates a Ranker returning up to topN predictions.
func NewRanker(resolver *Resolver, topN int) *Ranker {
	return &Ranker{resolver: resolver, topN: topN}
}

// Rank resolves username's group and ranks it.
func (r *Ranker) Rank(ctx context.Context, username string, group models.Group) (*models.RankingResult, error) {
	g, err := r.resolver.Resolve(ctx, username, group)
	if err != nil {
		return nil, err
	}
	return RankGraph(g, r.topN)
}

// RankGraph ranks an already resolved graph. Contacts are added to the matrix
// before the subject so ties keep contact order.
func RankGraph(g *Graph, topN int) (*models.RankingResult, error) {
	m := recommend.NewMatrix()
	byName := make(map[string]models.Contact, len(g.Contacts))
	for _, c := range g.Contacts {
		m.Add(c.Username, g.Datasets[c.Username])
		byName[c.Username] = c
	}
	m.Add(g.Subject.Username, g.Datasets[g.Subject.Username])

	res, err := recommend.Rank(m, g.Subject.Username, topN)
	if err != nil {
		return nil, err
	}

	out := &models.RankingResult{
		Rankings:        make([]models.RankedContact, 0, len(res.Neighbors)),
		Recommendations: make([]models.Recommendation, 0, len(res.Predictions)),
	}
	for _, n := range res.Neighbors {
		c := byName[n.User]
		out.Rankings = append(out.Rankings, models.RankedContact{
			Username:    c.Username,
			DisplayName: c.DisplayName,
			AvatarURL:   c.AvatarURL,
			Similarity:  n.Similarity,
		})
	}
	for _, p := range res.Predictions {
		out.Recommendations = append(out.Recommendations, models.Recommendation{
			Link:  p.Link,
			Title: p.Title,
			Score: p.Score,
		})
	}
	return out, nil
}
