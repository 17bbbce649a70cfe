// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package admin

import "syscall"

// freeBytes reports free space on the filesystem backing path. No library
// in the example pack addresses raw filesystem statistics, and pulling in
// a full OS-stats dependency for one admin getter would be disproportionate,
// so this stays on the standard library (see DESIGN.md).
func freeBytes(path string) (int64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return int64(stat.Bavail) * int64(stat.Bsize), nil
}
