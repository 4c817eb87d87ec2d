// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/goccy/go-json"

	"github.com/tomtom215/folio/internal/recommend"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResult writes a recommendation result as an aligned table.
func printResult(w io.Writer, res *recommend.Result) error {
	if _, err := fmt.Fprintf(w, "Books similar to %q (%s)\n\n", res.Item.Title, res.Item.ItemID); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTITLE\tITEM\tDISTANCE\tIMAGE")
	for i, item := range res.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.4f\t%s\n", i+1, item.Title, item.ItemID, item.Distance, item.ImageURL)
	}
	return tw.Flush()
}

func printManifests(w io.Writer, manifests []recommend.Manifest, current string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tMETRIC\tROWS\tCOLS\tSIZE\t")
	for i := range manifests {
		m := &manifests[i]
		marker := ""
		if m.ID == current {
			marker = "current"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			m.ID, m.CreatedAt.Format("2006-01-02 15:04:05"), m.Metric, m.Rows, m.Cols, m.SizeBytes, marker)
	}
	return tw.Flush()
}
