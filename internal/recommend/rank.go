// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package recommend

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrUnknownSubject is returned when the subject has no row in the matrix.
var ErrUnknownSubject = errors.New("subject not in rating matrix")

// DefaultTopN is the number of predictions returned when none is configured.
const DefaultTopN = 10

// Neighbor is one contact and their similarity to the subject.
type Neighbor struct {
	User       string
	Similarity float64
}

// Prediction is one title the subject has not logged.
type Prediction struct {
	Link  string
	Title string
	Score float64
}

// Result is the ranking for one subject.
type Result struct {
	Neighbors   []Neighbor
	Predictions []Prediction
}

// Cosine returns the cosine similarity of a and b, or 0 when either vector
// has zero norm or the lengths differ.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Similarities returns each row's similarity to subject over the columns the
// subject has logged, indexed like Users().
func (m *Matrix) Similarities(subject string) ([]float64, error) {
	s, ok := m.userIdx[subject]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSubject, subject)
	}
	return similarities(m.Shifted(), s), nil
}

func similarities(shifted [][]float64, subject int) []float64 {
	var cols []int
	for col, v := range shifted[subject] {
		if v != Absent {
			cols = append(cols, col)
		}
	}

	restrict := func(row []float64) []float64 {
		out := make([]float64, len(cols))
		for i, col := range cols {
			out[i] = row[col]
		}
		return out
	}

	target := restrict(shifted[subject])
	sims := make([]float64, len(shifted))
	for row := range shifted {
		sims[row] = Cosine(target, restrict(shifted[row]))
	}
	return sims
}

// Rank orders every other user by similarity to subject and predicts up to
// topN titles the subject has not logged. topN below 1 means DefaultTopN.
func Rank(m *Matrix, subject string, topN int) (*Result, error) {
	s, ok := m.userIdx[subject]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSubject, subject)
	}
	if topN < 1 {
		topN = DefaultTopN
	}

	shifted := m.Shifted()
	sims := similarities(shifted, s)

	neighbors := make([]Neighbor, 0, len(m.users)-1)
	for row, user := range m.users {
		if row != s {
			neighbors = append(neighbors, Neighbor{User: user, Similarity: sims[row]})
		}
	}
	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Similarity > neighbors[j].Similarity
	})

	return &Result{
		Neighbors:   neighbors,
		Predictions: m.predict(shifted, sims, s, topN),
	}, nil
}

func (m *Matrix) predict(shifted [][]float64, sims []float64, subject, topN int) []Prediction {
	var total float64
	for row, sim := range sims {
		if row != subject {
			total += sim
		}
	}
	if total == 0 {
		return []Prediction{}
	}

	var out []Prediction
	for col, link := range m.items {
		if shifted[subject][col] != Absent {
			continue
		}
		var num float64
		for row := range shifted {
			if row != subject {
				num += sims[row] * shifted[row][col]
			}
		}
		if num == 0 {
			continue
		}
		out = append(out, Prediction{Link: link, Title: m.titles[link], Score: num / total})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > topN {
		out = out[:topN]
	}
	if out == nil {
		out = []Prediction{}
	}
	return out
}
