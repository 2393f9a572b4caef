// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build mage

// Package main provides build targets for the worldwise project using Mage.
//
// Usage:
//
//	mage build          Compile the worldwise binary to bin/
//	mage install        Install worldwise to GOPATH/bin
//	mage clean          Remove build artifacts
//	mage serve          Build and run the cities API
//	mage test:all       Run all tests
//	mage test:short     Run tests in -short mode
//	mage test:race      Run all tests with the race detector
//	mage test:cover     Write coverage to bin/coverage.out and print a summary
//	mage lint           Run golangci-lint
//	mage vet            Run go vet
package main

const (
	binGo      = "go"
	binaryName = "worldwise"
	binaryDir  = "bin"
	cmdDir     = "./cmd/worldwise"
)
