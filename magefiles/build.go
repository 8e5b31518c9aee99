// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build mage

// Package main provides build targets for the docket project using Mage.
//
// Usage:
//
//	mage build             Compile docket binary to bin/
//	mage test:all          Run unit tests, then integration tests
//	mage test:unit         Run pkg/ and internal/ tests with -race
//	mage test:integration  Build bin/docket and run tests/integration against it
//	mage test:cover        Write coverage.out for pkg/ and internal/
//	mage fmt               Fail if any file needs gofmt
//	mage lint              Run fmt, go vet and golangci-lint
//	mage clean             Remove build artifacts and coverage.out
//	mage install           Install docket to GOPATH/bin
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "docket"
	binaryDir  = "bin"
	cmdDir     = "./cmd/docket"
	versionVar = "github.com/mesh-intelligence/docket/internal/cli.Version"
)

// Build compiles the docket binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-ldflags", ldflags(), "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	for _, p := range []string{binaryDir, coverProfile} {
		if err := os.RemoveAll(p); err != nil {
			return err
		}
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}

// ldflags stamps the version from the nearest git tag when there is one.
func ldflags() string {
	tag, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || tag == "" {
		return ""
	}
	return "-X " + versionVar + "=" + strings.TrimPrefix(tag, "v")
}
