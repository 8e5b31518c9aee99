// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	// envDocketBin points the integration suite at a prebuilt binary.
	envDocketBin    = "DOCKET_BIN"
	integrationPkgs = "./tests/integration/..."
	coverProfile    = "coverage.out"
)

// unitPkgs holds every package with in-process tests.
var unitPkgs = []string{"./pkg/...", "./internal/..."}

// Test groups test targets (all, unit, integration, cover).
type Test mg.Namespace

// All runs the unit tests, then the integration tests against bin/docket.
func (Test) All() {
	mg.SerialDeps(Test.Unit, Test.Integration)
}

// Unit runs the package tests under the race detector, uncached.
func (Test) Unit() error {
	return sh.RunV(binGo, append([]string{"test", "-race", "-count=1"}, unitPkgs...)...)
}

// Integration builds bin/docket with the release ldflags and runs the
// end-to-end suite against that binary instead of a fresh test build.
func (Test) Integration() error {
	mg.Deps(Build)
	bin, err := filepath.Abs(filepath.Join(binaryDir, binaryName))
	if err != nil {
		return err
	}
	return sh.RunWithV(map[string]string{envDocketBin: bin},
		binGo, "test", "-count=1", "-v", integrationPkgs)
}

// Cover writes a coverage profile for the package tests to coverage.out
// and prints the per-function summary.
func (Test) Cover() error {
	args := append([]string{"test", "-count=1", "-coverprofile", coverProfile}, unitPkgs...)
	if err := sh.RunV(binGo, args...); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func", coverProfile)
}
