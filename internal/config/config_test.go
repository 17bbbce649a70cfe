// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package config

import "testing"

func TestDefaultConfigValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestValidateRejectsZeroBatchSize(t *testing.T) {
	cfg := Default()
	cfg.Loader.BatchSize = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for zero BatchSize")
	}
}

func TestValidateRejectsMaxBatchSizeBelowBatchSize(t *testing.T) {
	cfg := Default()
	cfg.Loader.BatchSize = 1000
	cfg.Loader.MaxBatchSize = 500
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error when MaxBatchSize < BatchSize")
	}
}

func TestValidateRejectsUnknownVersionComparator(t *testing.T) {
	cfg := Default()
	cfg.Loader.VersionComparator = "bogus"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown version comparator")
	}
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown log level")
	}
}

func TestValidateRejectsZeroSLA(t *testing.T) {
	cfg := Default()
	cfg.Cache.SLA = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for zero SLA")
	}
}
