// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

// Package recommend ranks a member's contacts by taste similarity and
// predicts titles the member has not logged yet.
//
// # Algorithm
//
// The engine is user-based collaborative filtering over explicit ratings:
//
//  1. Build a user × title matrix by outer-joining every dataset. Rows keep
//     insertion order, columns keep first-seen order, and a title a user
//     logged more than once holds the mean of its ratings.
//  2. Shift every logged cell up by one star. A title logged without a
//     rating becomes 1 and a title never logged stays zero, so after the
//     shift zero means only "not logged" (the lowest real rating is 1.5).
//  3. Keep only the columns the subject has logged.
//  4. Compute the cosine similarity between the subject's row and every
//     other row over those columns. A row with no overlap scores zero.
//  5. Rank contacts by similarity, highest first. Ties keep insertion order.
//  6. For each title the subject has not logged, score
//
//	score(i) = Σ sim(u)·r(u, i) / Σ sim(u)
//
//     over every contact u, using shifted ratings. If the similarities sum to
//     zero nothing is predicted. Titles nobody similar has rated are left out.
//     The top N scores are returned, ties in column order.
//
// # Determinism
//
// Rows, columns and sums are always walked in the same order, so the same
// datasets produce bit-identical rankings.
//
// # Usage
//
//	m := recommend.NewMatrix()
//	for _, c := range contacts {
//	    m.Add(c.Username, datasets[c.Username])
//	}
//	m.Add(subject, datasets[subject])
//
//	result, err := recommend.Rank(m, subject, 10)
package recommend
