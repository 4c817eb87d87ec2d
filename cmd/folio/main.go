// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

// Package main is the folio command.
//
// Folio recommends books that readers rated similarly to a given book. It
// builds an item-by-user rating matrix from Book-Crossing style data, fits a
// nearest-neighbor index over the item rows, and serves the neighbors of a
// title over HTTP and on the command line.
//
// # Commands
//
//	folio serve                       run the HTTP API and the scheduled trainer
//	folio import --books B --ratings R  load Book-Crossing CSV dumps
//	folio train                       build and publish a new generation
//	folio recommend --title "Dune"    print the closest books
//	folio titles --prefix du          list or complete known titles
//	folio generations                 list stored generations
//	folio token --subject ops         mint an admin token for POST /api/v1/train
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (FOLIO_*, see internal/config)
//   - Config file (--config, CONFIG_PATH, or config.yaml)
//   - Built-in defaults
//
// # Exit Codes
//
//	0  success
//	1  any other failure
//	2  the requested book is not in the served generation
//	3  no generation has been trained yet
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/tomtom215/folio/internal/recommend"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitUnknownItem = 2
	exitNotTrained  = 3
)

func main() {
	root := newRootCmd(defaultRootOptions())
	err := root.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps command errors to process exit codes.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var unknown *recommend.UnknownItemError
	switch {
	case errors.As(err, &unknown):
		return exitUnknownItem
	case recommend.Kind(err) == recommend.KindNotTrained:
		return exitNotTrained
	default:
		return exitFailure
	}
}
