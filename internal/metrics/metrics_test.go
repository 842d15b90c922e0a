// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordDBQuery(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("INSERT", "static_data"))

	RecordDBQuery("INSERT", "static_data", 5*time.Millisecond, nil)
	RecordDBQuery("INSERT", "static_data", 5*time.Millisecond, errors.New("boom"))

	after := testutil.ToFloat64(DBQueryErrors.WithLabelValues("INSERT", "static_data"))
	if after-before != 1 {
		t.Errorf("error counter delta = %v, want 1", after-before)
	}
}

func TestRecordCacheLookup(t *testing.T) {
	before := testutil.ToFloat64(CacheLookups.WithLabelValues("semi_static", "stale"))
	RecordCacheLookup("semi_static", "stale")
	RecordCacheLookup("semi_static", "stale")
	after := testutil.ToFloat64(CacheLookups.WithLabelValues("semi_static", "stale"))
	if after-before != 2 {
		t.Errorf("lookup counter delta = %v, want 2", after-before)
	}
}

func TestRecordCrawl_Outcome(t *testing.T) {
	RecordCrawl("movies", time.Second, errors.New("insufficient history"))

	m := &dto.Metric{}
	observer, err := CrawlDuration.GetMetricWithLabelValues("movies", "failed")
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues: %v", err)
	}
	if err := observer.(interface{ Write(*dto.Metric) error }).Write(m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if m.GetHistogram().GetSampleCount() < 1 {
		t.Error("expected at least one failed crawl observation")
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("after inc = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("after dec = %v, want %v", got, before)
	}
}
