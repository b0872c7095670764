package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"backend-storymap/internal/adventure"

	"github.com/spf13/cobra"
)

// emit writes v as indented JSON in json mode and runs text otherwise.
func (a *cli) emit(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	if a.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(out)
	return nil
}

func writeList(w io.Writer, adventures []adventure.Adventure) {
	if len(adventures) == 0 {
		fmt.Fprintln(w, "no adventures yet")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tLAT\tLNG")
	for _, a := range adventures {
		fmt.Fprintf(tw, "%s\t%s\t%.5f\t%.5f\n", a.ID, a.Title, a.Latitude, a.Longitude)
	}
	_ = tw.Flush()
}

func writeDetail(w io.Writer, view adventure.DetailView) {
	a := view.Adventure
	fmt.Fprintf(w, "%s\n", a.Title)
	fmt.Fprintf(w, "  id:       %s\n", a.ID)
	fmt.Fprintf(w, "  location: %.5f, %.5f\n", a.Latitude, a.Longitude)
	fmt.Fprintf(w, "  created:  %s\n", a.CreatedAt.Format("2006-01-02 15:04"))
	if a.Description != "" {
		fmt.Fprintf(w, "\n%s\n", a.Description)
	}
	if len(view.Gallery) > 0 {
		fmt.Fprintln(w, "\nphotos:")
		for _, url := range view.Gallery {
			fmt.Fprintf(w, "  %s\n", url)
		}
	}
	if view.CanEdit {
		fmt.Fprintf(w, "\nyou own this adventure: storymap edit %s | delete %s | attach %s <file>\n", a.ID, a.ID, a.ID)
	}
}
