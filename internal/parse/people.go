// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package parse

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tomtom215/unboxd/internal/models"
)

// Profile reads the header of a profile page. found is false when the page
// has no display name, which is how Letterboxd renders a missing member.
func Profile(doc *goquery.Document, username string) (p models.Profile, found bool) {
	p.Username = username

	name := doc.Find("h1.person-display-name").First()
	if name.Length() == 0 {
		return p, false
	}
	p.DisplayName = text(name)
	p.AvatarURL, _ = doc.Find(".profile-avatar img").First().Attr("src")

	doc.Find(".profile-stats h4 a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		n, _ := parseCount(text(a.Find("span.value")))
		switch {
		case strings.Contains(href, "/followers"):
			p.FollowerCount = n
		case strings.Contains(href, "/following"):
			p.FollowingCount = n
		}
	})
	return p, true
}

// Contacts reads one followers or following page.
func Contacts(doc *goquery.Document) []models.Contact {
	var out []models.Contact
	doc.Find("td.table-person").Each(func(_ int, td *goquery.Selection) {
		href, ok := td.Find("a.avatar").First().Attr("href")
		username := strings.Trim(href, "/")
		if !ok || username == "" {
			return
		}
		img := td.Find("img").First()
		alt, _ := img.Attr("alt")
		src, _ := img.Attr("src")
		out = append(out, models.Contact{
			Username:    username,
			DisplayName: strings.TrimSpace(alt),
			AvatarURL:   src,
		})
	})
	return out
}

// ReviewLinks returns the review permalinks on a reviews listing page.
func ReviewLinks(doc *goquery.Document) []string {
	var out []string
	doc.Find("li.film-detail").Each(func(_ int, li *goquery.Selection) {
		if href, ok := li.Find("a").First().Attr("href"); ok && href != "" {
			out = append(out, href)
		}
	})
	return out
}

// ReviewText joins the paragraphs of a review with single spaces.
func ReviewText(doc *goquery.Document) string {
	var parts []string
	doc.Find("div.review").First().Find("p").Each(func(_ int, p *goquery.Selection) {
		if s := strings.Join(strings.Fields(p.Text()), " "); s != "" {
			parts = append(parts, s)
		}
	})
	return strings.Join(parts, " ")
}

// Likers returns the profile links of the members who liked a review.
func Likers(doc *goquery.Document) []string {
	out := []string{}
	doc.Find("a.name").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok {
			out = append(out, href)
		}
	})
	return out
}
