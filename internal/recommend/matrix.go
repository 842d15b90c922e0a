// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package recommend

import "github.com/tomtom215/unboxd/internal/models"

// Unrated is the rating of a title logged without stars, or not logged at all.
const Unrated = 0

// Absent is the shifted value of a title the user never logged.
const Absent = 0

// shift lifts every logged title above Absent, unrated ones included.
const shift = 1

type cell struct {
	sum float64
	n   int
}

// Matrix is a sparse user × title rating matrix. Not safe for concurrent
// mutation.
type Matrix struct {
	users   []string
	userIdx map[string]int
	items   []string
	itemIdx map[string]int
	titles  map[string]string
	cells   []map[int]cell // per user row, keyed by item column
}

// NewMatrix creates an empty matrix.
func NewMatrix() *Matrix {
	return &Matrix{
		userIdx: make(map[string]int),
		itemIdx: make(map[string]int),
		titles:  make(map[string]string),
	}
}

// Add joins one user's dataset into the matrix. Every link becomes a column
// and a logged cell for the user, rated or not; only valid half-star ratings
// count towards the cell's mean. Adding the same user twice merges both
// datasets into one row.
func (m *Matrix) Add(user string, ds models.FriendDataset) {
	row, ok := m.userIdx[user]
	if !ok {
		row = len(m.users)
		m.userIdx[user] = row
		m.users = append(m.users, user)
		m.cells = append(m.cells, make(map[int]cell))
	}

	n := min(len(ds.Links), len(ds.Titles), len(ds.Ratings))
	for i := 0; i < n; i++ {
		link := ds.Links[i]
		if link == "" {
			continue
		}
		col, ok := m.itemIdx[link]
		if !ok {
			col = len(m.items)
			m.itemIdx[link] = col
			m.items = append(m.items, link)
			m.titles[link] = ds.Titles[i]
		}
		c := m.cells[row][col]
		if r := ds.Ratings[i]; models.IsValidRating(r) {
			c.sum += r
			c.n++
		}
		m.cells[row][col] = c
	}
}

// Users returns the row labels in insertion order.
func (m *Matrix) Users() []string { return m.users }

// Items returns the column labels (title links) in first-seen order.
func (m *Matrix) Items() []string { return m.items }

// Title returns the title first seen for link.
func (m *Matrix) Title(link string) string { return m.titles[link] }

// Rating returns the mean rating user gave link, or Unrated.
func (m *Matrix) Rating(user, link string) float64 {
	row, ok := m.userIdx[user]
	if !ok {
		return Unrated
	}
	col, ok := m.itemIdx[link]
	if !ok {
		return Unrated
	}
	return m.rating(row, col)
}

// Logged reports whether user has link in their dataset, with or without a
// rating.
func (m *Matrix) Logged(user, link string) bool {
	row, ok := m.userIdx[user]
	if !ok {
		return false
	}
	col, ok := m.itemIdx[link]
	if !ok {
		return false
	}
	_, ok = m.cells[row][col]
	return ok
}

func (m *Matrix) rating(row, col int) float64 {
	c, ok := m.cells[row][col]
	if !ok || c.n == 0 {
		return Unrated
	}
	return c.sum / float64(c.n)
}

// Shifted returns the dense matrix with every logged cell raised by one star.
// A logged but unrated title becomes 1; titles the user never logged stay at
// Absent.
func (m *Matrix) Shifted() [][]float64 {
	out := make([][]float64, len(m.users))
	for row := range out {
		out[row] = make([]float64, len(m.items))
		for col := range m.cells[row] {
			out[row][col] = m.rating(row, col) + shift
		}
	}
	return out
}
