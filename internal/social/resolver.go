// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

// Package social resolves a member's followers or following into rating
// datasets and ranks those contacts by taste.
package social

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tomtom215/unboxd/internal/cache"
	"github.com/tomtom215/unboxd/internal/config"
	"github.com/tomtom215/unboxd/internal/crawl"
	"github.com/tomtom215/unboxd/internal/logging"
	"github.com/tomtom215/unboxd/internal/metrics"
	"github.com/tomtom215/unboxd/internal/models"
	"github.com/tomtom215/unboxd/internal/parse"
	"github.com/tomtom215/unboxd/internal/scheduler"
)

// Options sizes a resolution.
type Options struct {
	UserBatchSize int // users resolved together
	PageBatchSize int // list pages fetched together per user
	MinItems      int
}

// OptionsFromConfig copies the social settings out of the crawl config.
// List pages for contacts share the user batch size.
func OptionsFromConfig(c config.CrawlConfig) Options {
	return Options{
		UserBatchSize: c.UserBatchSize,
		PageBatchSize: c.UserBatchSize,
		MinItems:      c.MinItems,
	}
}

// Graph is a resolved social neighborhood.
type Graph struct {
	Subject models.Contact

	// Contacts holds the contacts that had enough history, in first-seen order.
	Contacts []models.Contact

	// Datasets is keyed by username and includes the subject.
	Datasets map[string]models.FriendDataset
}

// Resolver builds Graphs. Safe for concurrent use.
type Resolver struct {
	site  *crawl.Site
	users cache.UserStore
	opts  Options
}

// NewResolver creates a Resolver.
func NewResolver(site *crawl.Site, users cache.UserStore, opts Options) *Resolver {
	return &Resolver{site: site, users: users, opts: opts}
}

// Resolve fetches the subject's contacts in group and a dataset for each of
// them and for the subject. Contacts that cannot be crawled or have too little
// history are left out; the subject falling short fails the resolution with
// crawl.ErrInsufficientHistory.
func (r *Resolver) Resolve(ctx context.Context, username string, group models.Group) (g *Graph, err error) {
	start := time.Now()
	ctx = logging.ContextWithSubject(ctx, username)
	log := logging.Ctx(ctx)
	defer func() { metrics.RecordCrawl("social", time.Since(start), err) }()

	profile, err := r.site.Profile(ctx, username)
	if err != nil {
		return nil, err
	}

	// A short subject history fails before any contact is crawled.
	subject, err := r.Dataset(ctx, username)
	if err != nil {
		return nil, err
	}
	if n := subject.Len(); n < r.opts.MinItems {
		return nil, fmt.Errorf("%w: %s has %d titles, need %d", crawl.ErrInsufficientHistory, username, n, r.opts.MinItems)
	}

	contacts := r.contacts(ctx, username, group, profile)
	log.Info().Str("group", string(group)).Int("contacts", len(contacts)).Msg("Resolving social graph")

	users := make([]string, 0, len(contacts))
	for _, c := range contacts {
		users = append(users, c.Username)
	}

	results, err := scheduler.Run(ctx, users, scheduler.Options[models.FriendDataset]{
		Name:      "user_sets",
		BatchSize: r.opts.UserBatchSize,
	}, r.Dataset)
	if err != nil {
		return nil, err
	}

	g = &Graph{
		Subject: models.Contact{
			Username:    username,
			DisplayName: profile.DisplayName,
			AvatarURL:   profile.AvatarURL,
		},
		Contacts: make([]models.Contact, 0, len(contacts)),
		Datasets: map[string]models.FriendDataset{username: subject},
	}
	for i, c := range contacts {
		res := results[i]
		switch {
		case res.Err != nil:
			log.Warn().Err(res.Err).Str("contact", c.Username).Msg("Excluding unresolvable contact")
		case res.Value.Len() < r.opts.MinItems:
			log.Debug().Str("contact", c.Username).Int("titles", res.Value.Len()).Msg("Excluding contact with short history")
		default:
			g.Contacts = append(g.Contacts, c)
			g.Datasets[c.Username] = res.Value
		}
	}
	log.Info().Int("contacts", len(g.Contacts)).Dur("duration", time.Since(start)).Msg("Social graph resolved")
	return g, nil
}

// contacts lists the people in group. For both, followers come first and
// anyone on both lists appears once.
func (r *Resolver) contacts(ctx context.Context, username string, group models.Group, p models.Profile) []models.Contact {
	var out []models.Contact
	switch group {
	case models.GroupFollowers:
		out = r.contactPages(ctx, username, "followers", p.FollowerPages())
	case models.GroupFollowing:
		out = r.contactPages(ctx, username, "following", p.FollowingPages())
	case models.GroupBoth:
		out = mergeContacts(
			r.contactPages(ctx, username, "followers", p.FollowerPages()),
			r.contactPages(ctx, username, "following", p.FollowingPages()),
		)
	}

	// A member never counts as their own contact.
	filtered := out[:0]
	for _, c := range out {
		if c.Username != username {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// contactPages fetches every page of one contact list at once; the social
// fetcher's host cap bounds how many are in flight.
func (r *Resolver) contactPages(ctx context.Context, username, kind string, pages int) []models.Contact {
	nums := make([]int, pages)
	for i := range nums {
		nums[i] = i + 1
	}
	results := scheduler.RunBatches(ctx, nums, len(nums), func(ctx context.Context, page int) ([]models.Contact, error) {
		doc, err := r.site.Document(ctx, r.site.URL(username, kind, "page", strconv.Itoa(page)))
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("list", kind).Int("page", page).Msg("Skipping contact page")
			return nil, err
		}
		return parse.Contacts(doc), nil
	})

	var out []models.Contact
	for _, page := range scheduler.Successful(results) {
		out = append(out, page...)
	}
	return out
}

// mergeContacts concatenates lists, keeping the first occurrence of each
// username and the first non-empty avatar seen for it.
func mergeContacts(lists ...[]models.Contact) []models.Contact {
	var out []models.Contact
	index := make(map[string]int)
	for _, list := range lists {
		for _, c := range list {
			i, seen := index[c.Username]
			if !seen {
				index[c.Username] = len(out)
				out = append(out, c)
				continue
			}
			if out[i].AvatarURL == "" {
				out[i].AvatarURL = c.AvatarURL
			}
		}
	}
	return out
}
