// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package recommend

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/tomtom215/unboxd/internal/models"
)

// dataset builds a FriendDataset from link/rating pairs; titles are the links upper-cased.
func dataset(pairs ...interface{}) models.FriendDataset {
	var ds models.FriendDataset
	for i := 0; i < len(pairs); i += 2 {
		link := pairs[i].(string)
		var r float64
		switch v := pairs[i+1].(type) {
		case int:
			r = float64(v)
		case float64:
			r = v
		}
		ds.Append("Title "+link, link, r)
	}
	return ds
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

func TestMatrix_OuterJoin(t *testing.T) {
	t.Parallel()

	m := NewMatrix()
	m.Add("alice", dataset("A", 4, "B", 0, "A", 3))
	m.Add("bob", dataset("C", 2.5, "A", 5, "C", 0))

	if want := []string{"alice", "bob"}; !reflect.DeepEqual(m.Users(), want) {
		t.Errorf("Users() = %v, want %v", m.Users(), want)
	}
	if want := []string{"A", "B", "C"}; !reflect.DeepEqual(m.Items(), want) {
		t.Errorf("Items() = %v, want %v", m.Items(), want)
	}

	tests := []struct {
		user, link string
		want       float64
	}{
		{"alice", "A", 3.5},
		{"alice", "B", Unrated},
		{"alice", "C", Unrated},
		{"bob", "A", 5},
		{"bob", "C", 2.5}, // the unrated duplicate does not drag the mean down
		{"carol", "A", Unrated},
		{"bob", "Z", Unrated},
	}
	for _, tt := range tests {
		if got := m.Rating(tt.user, tt.link); got != tt.want {
			t.Errorf("Rating(%s, %s) = %v, want %v", tt.user, tt.link, got, tt.want)
		}
	}
	logged := []struct {
		user, link string
		want       bool
	}{
		{"alice", "A", true},
		{"alice", "B", true},
		{"alice", "C", false},
		{"bob", "C", true},
		{"carol", "A", false},
		{"bob", "Z", false},
	}
	for _, tt := range logged {
		if got := m.Logged(tt.user, tt.link); got != tt.want {
			t.Errorf("Logged(%s, %s) = %v, want %v", tt.user, tt.link, got, tt.want)
		}
	}
	if m.Title("C") != "Title C" {
		t.Errorf("Title(C) = %q", m.Title("C"))
	}
}

func TestMatrix_Shifted(t *testing.T) {
	t.Parallel()

	m := NewMatrix()
	m.Add("alice", dataset("A", 0.5, "B", 0))
	m.Add("bob", dataset("B", 5))

	// alice logged B without a rating; bob never logged A.
	want := [][]float64{
		{1.5, 1},
		{Absent, 6},
	}
	if got := m.Shifted(); !reflect.DeepEqual(got, want) {
		t.Errorf("Shifted() = %v, want %v", got, want)
	}
}

func TestMatrix_AddMergesRepeatedUser(t *testing.T) {
	t.Parallel()

	m := NewMatrix()
	m.Add("alice", dataset("A", 4))
	m.Add("alice", dataset("A", 2, "B", 1))

	if len(m.Users()) != 1 {
		t.Fatalf("Users() = %v, want one row", m.Users())
	}
	if got := m.Rating("alice", "A"); got != 3 {
		t.Errorf("Rating(alice, A) = %v, want 3", got)
	}
}

func TestCosine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{5, 3}, []float64{5, 3}, 1},
		{"scaled", []float64{1, 2}, []float64{2, 4}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 2}, 0},
		{"empty", nil, nil, 0},
		{"length mismatch", []float64{1}, []float64{1, 2}, 0},
	}
	for _, tt := range tests {
		if got := Cosine(tt.a, tt.b); !approx(got, tt.want) {
			t.Errorf("%s: Cosine = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRank_WorkedExample(t *testing.T) {
	t.Parallel()

	m := NewMatrix()
	m.Add("alice", dataset("A", 4, "B", 2, "C", 5))
	m.Add("bob", dataset("A", 1, "D", 3))
	m.Add("dave", dataset("A", 4, "B", 2))

	got, err := Rank(m, "dave", 10)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	// Over dave's rated columns (A, B) the shifted rows are
	// dave [5 3], alice [5 3], bob [2 0].
	simBob := 10 / (math.Sqrt(34) * 2)
	if len(got.Neighbors) != 2 {
		t.Fatalf("Neighbors = %+v", got.Neighbors)
	}
	if got.Neighbors[0].User != "alice" || !approx(got.Neighbors[0].Similarity, 1) {
		t.Errorf("Neighbors[0] = %+v, want alice 1", got.Neighbors[0])
	}
	if got.Neighbors[1].User != "bob" || !approx(got.Neighbors[1].Similarity, simBob) {
		t.Errorf("Neighbors[1] = %+v, want bob %v", got.Neighbors[1], simBob)
	}

	total := 1 + simBob
	want := []Prediction{
		{Link: "C", Title: "Title C", Score: 6 / total},
		{Link: "D", Title: "Title D", Score: simBob * 4 / total},
	}
	if len(got.Predictions) != len(want) {
		t.Fatalf("Predictions = %+v, want %+v", got.Predictions, want)
	}
	for i := range want {
		p := got.Predictions[i]
		if p.Link != want[i].Link || p.Title != want[i].Title || !approx(p.Score, want[i].Score) {
			t.Errorf("Predictions[%d] = %+v, want %+v", i, p, want[i])
		}
	}
}

func TestRank_DisjointRatersGetZeroWeight(t *testing.T) {
	t.Parallel()

	m := NewMatrix()
	m.Add("carol", dataset("X", 4, "Y", 3))
	m.Add("erin", dataset("Z", 5))
	m.Add("dave", dataset("A", 4, "B", 2))

	got, err := Rank(m, "dave", 10)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	for _, n := range got.Neighbors {
		if n.Similarity != 0 {
			t.Errorf("%s similarity = %v, want 0", n.User, n.Similarity)
		}
	}
	if got.Neighbors[0].User != "carol" || got.Neighbors[1].User != "erin" {
		t.Errorf("tied neighbors reordered: %+v", got.Neighbors)
	}
	if len(got.Predictions) != 0 {
		t.Errorf("Predictions = %+v, want none when similarities sum to zero", got.Predictions)
	}
	for _, p := range got.Predictions {
		if math.IsNaN(p.Score) || math.IsInf(p.Score, 0) {
			t.Errorf("non-finite score for %s", p.Link)
		}
	}
}

func TestRank_OmitsTitlesOnlyDissimilarUsersRated(t *testing.T) {
	t.Parallel()

	m := NewMatrix()
	m.Add("alice", dataset("A", 3, "C", 4))
	m.Add("bob", dataset("Z", 5))
	m.Add("dave", dataset("A", 3))

	got, err := Rank(m, "dave", 10)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(got.Predictions) != 1 || got.Predictions[0].Link != "C" {
		t.Errorf("Predictions = %+v, want only C", got.Predictions)
	}
}

func TestRank_SkipsTitlesLoggedWithoutRating(t *testing.T) {
	t.Parallel()

	m := NewMatrix()
	m.Add("alice", dataset("A", 4, "S", 5, "C", 3))
	m.Add("dave", dataset("A", 4, "S", 0))

	got, err := Rank(m, "dave", 10)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	for _, p := range got.Predictions {
		if p.Link == "S" {
			t.Errorf("Predictions include S, which dave already logged: %+v", got.Predictions)
		}
	}
	if len(got.Predictions) != 1 || got.Predictions[0].Link != "C" {
		t.Errorf("Predictions = %+v, want only C", got.Predictions)
	}

	// S is one of dave's columns: dave [5 1], alice [5 6].
	want := 31 / (math.Sqrt(26) * math.Sqrt(61))
	if len(got.Neighbors) != 1 || !approx(got.Neighbors[0].Similarity, want) {
		t.Errorf("Neighbors = %+v, want alice %v", got.Neighbors, want)
	}
}

func TestRank_TopNAndColumnOrderTies(t *testing.T) {
	t.Parallel()

	alice := dataset("A", 3)
	for i := 0; i < 15; i++ {
		link := fmt.Sprintf("T%02d", i)
		alice.Append("Title "+link, link, 3)
	}
	m := NewMatrix()
	m.Add("alice", alice)
	m.Add("dave", dataset("A", 3))

	got, err := Rank(m, "dave", 0)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(got.Predictions) != DefaultTopN {
		t.Fatalf("len(Predictions) = %d, want %d", len(got.Predictions), DefaultTopN)
	}
	for i, p := range got.Predictions {
		if want := fmt.Sprintf("T%02d", i); p.Link != want || !approx(p.Score, 4) {
			t.Errorf("Predictions[%d] = %+v, want %s scoring 4", i, p, want)
		}
	}
}

func TestRank_Deterministic(t *testing.T) {
	t.Parallel()

	build := func() *Matrix {
		m := NewMatrix()
		m.Add("alice", dataset("A", 4, "B", 2.5, "C", 5, "D", 1))
		m.Add("bob", dataset("A", 1, "D", 3, "E", 4.5))
		m.Add("carol", dataset("B", 2.5, "E", 2, "F", 0.5))
		m.Add("dave", dataset("A", 4, "B", 2, "F", 3.5))
		return m
	}

	first, err := Rank(build(), "dave", 10)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := Rank(build(), "dave", 10)
		if err != nil {
			t.Fatalf("Rank() error = %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\n%+v\n%+v", i, first, again)
		}
	}
}

func TestRank_UnknownSubject(t *testing.T) {
	t.Parallel()

	m := NewMatrix()
	m.Add("alice", dataset("A", 4))

	if _, err := Rank(m, "dave", 10); !errors.Is(err, ErrUnknownSubject) {
		t.Errorf("Rank() error = %v, want ErrUnknownSubject", err)
	}
	if _, err := m.Similarities("dave"); !errors.Is(err, ErrUnknownSubject) {
		t.Errorf("Similarities() error = %v, want ErrUnknownSubject", err)
	}
}

func TestRank_SubjectOnly(t *testing.T) {
	t.Parallel()

	m := NewMatrix()
	m.Add("dave", dataset("A", 4))

	got, err := Rank(m, "dave", 10)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(got.Neighbors) != 0 || len(got.Predictions) != 0 {
		t.Errorf("Rank() = %+v, want empty result", got)
	}
}
