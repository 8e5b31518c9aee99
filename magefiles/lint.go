// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build mage

package main

import (
	"fmt"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binLint = "golangci-lint"

// sourceDirs are the trees gofmt checks.
var sourceDirs = []string{"cmd", "internal", "pkg", "tests", "magefiles"}

// Fmt fails when any Go file in the source trees needs gofmt.
func Fmt() error {
	out, err := sh.Output("gofmt", append([]string{"-l"}, sourceDirs...)...)
	if err != nil {
		return err
	}
	if files := strings.Fields(out); len(files) > 0 {
		return fmt.Errorf("gofmt needed on %d files:\n%s", len(files), strings.Join(files, "\n"))
	}
	return nil
}

// Lint checks formatting, runs go vet, then golangci-lint.
func Lint() error {
	mg.Deps(Fmt)
	if err := sh.RunV(binGo, "vet", "./..."); err != nil {
		return err
	}
	return sh.RunV(binLint, "run", "./...")
}
