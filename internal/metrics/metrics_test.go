// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type testErr string

func (e testErr) Error() string { return string(e) }

func TestRecordFlush(t *testing.T) {
	before := testutil.ToFloat64(FlushEventsTotal)
	RecordFlush(5*time.Millisecond, 42, nil)
	after := testutil.ToFloat64(FlushEventsTotal)

	if after-before != 42 {
		t.Errorf("expected FlushEventsTotal to increase by 42, got delta %v", after-before)
	}
}

func TestRecordFlushError(t *testing.T) {
	before := testutil.ToFloat64(FlushErrorsTotal)
	RecordFlush(time.Millisecond, 10, testErr("synthetic flush failure"))
	after := testutil.ToFloat64(FlushErrorsTotal)

	if after-before != 1 {
		t.Errorf("expected FlushErrorsTotal to increase by 1, got delta %v", after-before)
	}
}

func TestRecordGetReadersSLA(t *testing.T) {
	before := testutil.ToFloat64(GetReadersSLAExceeded)
	RecordGetReaders(50*time.Millisecond, 10)
	after := testutil.ToFloat64(GetReadersSLAExceeded)

	if after-before != 1 {
		t.Errorf("expected SLA-exceeded counter to increase by 1, got delta %v", after-before)
	}
}

func TestRecordGetReadersWithinSLA(t *testing.T) {
	before := testutil.ToFloat64(GetReadersSLAExceeded)
	RecordGetReaders(time.Millisecond, 50)
	after := testutil.ToFloat64(GetReadersSLAExceeded)

	if after != before {
		t.Errorf("expected SLA-exceeded counter unchanged, got delta %v", after-before)
	}
}
