package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"backend-storymap/internal/adventure"

	"github.com/spf13/cobra"
)

func newListCmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all adventures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.showList(cmd)
		},
	}
}

func (a *cli) showList(cmd *cobra.Command) error {
	adventures, err := a.lifecycle().List(cmd.Context())
	if err != nil {
		return report(cmd, err)
	}
	return a.emit(cmd, adventures, func(w io.Writer) { writeList(w, adventures) })
}

func newShowCmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one adventure with its photos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.showDetail(cmd, args[0])
		},
	}
}

func (a *cli) showDetail(cmd *cobra.Command, id string) error {
	view, err := a.lifecycle().Detail(cmd.Context(), a.client().Viewer(), id)
	if err != nil {
		return report(cmd, err)
	}
	return a.emit(cmd, view, func(w io.Writer) { writeDetail(w, view) })
}

func newCreateCmd(app *cli) *cobra.Command {
	var (
		title, description, cover string
		lat, lng                  float64
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Post a new adventure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := adventure.CreateInput{Title: title, Description: description, CoverImage: cover}
			if cmd.Flags().Changed("lat") {
				in.Latitude = &lat
			}
			if cmd.Flags().Changed("lng") {
				in.Longitude = &lng
			}
			created, err := app.lifecycle().Create(cmd.Context(), app.client().Viewer(), in)
			if err != nil {
				return report(cmd, err)
			}
			return app.showDetail(cmd, created.ID)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "adventure title")
	cmd.Flags().StringVar(&description, "description", "", "adventure description")
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude")
	cmd.Flags().StringVar(&cover, "cover", "", "cover image url")
	return cmd
}

func newEditCmd(app *cli) *cobra.Command {
	var title, description, lat, lng, cover string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an adventure you own",
		Long:  "Edit an adventure you own. Fields without a flag keep their current value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lc := app.lifecycle()
			viewer := app.client().Viewer()

			form, err := lc.LoadForEdit(cmd.Context(), viewer, args[0])
			if err != nil {
				return report(cmd, err)
			}

			in := adventure.EditInput{
				Title:       pick(cmd, "title", title, form.Title),
				Description: pick(cmd, "description", description, form.Description),
				Latitude:    adventure.CoordinateText(pick(cmd, "lat", lat, form.Latitude)),
				Longitude:   adventure.CoordinateText(pick(cmd, "lng", lng, form.Longitude)),
			}
			if cmd.Flags().Changed("cover") {
				in.CoverImage = &cover
			}

			updated, err := lc.SubmitEdit(cmd.Context(), viewer, form.ID, in)
			if err != nil {
				return report(cmd, err)
			}
			return app.showDetail(cmd, updated.ID)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&lat, "lat", "", "new latitude")
	cmd.Flags().StringVar(&lng, "lng", "", "new longitude")
	cmd.Flags().StringVar(&cover, "cover", "", "new cover image url")
	return cmd
}

func pick(cmd *cobra.Command, flag, value, current string) string {
	if cmd.Flags().Changed(flag) {
		return value
	}
	return current
}

func newDeleteCmd(app *cli) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an adventure you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lc := app.lifecycle()
			viewer := app.client().Viewer()

			target, err := lc.Get(cmd.Context(), args[0])
			if err != nil {
				return report(cmd, err)
			}
			if !adventure.IsOwner(viewer, target.OwnerID) {
				return report(cmd, adventure.ErrNotOwner)
			}

			confirmed := yes
			if !confirmed {
				fmt.Fprintf(cmd.ErrOrStderr(), "Delete %q? This cannot be undone. [y/N] ", target.Title)
				answer, err := readLine(cmd.InOrStdin())
				if err != nil {
					return report(cmd, err)
				}
				answer = strings.ToLower(answer)
				confirmed = answer == "y" || answer == "yes"
			}

			err = lc.Delete(cmd.Context(), viewer, target.ID, confirmed)
			if errors.Is(err, adventure.ErrNotConfirmed) {
				fmt.Fprintln(cmd.OutOrStdout(), "delete cancelled")
				return nil
			}
			if err != nil {
				return report(cmd, err)
			}
			return app.showList(cmd)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newAttachCmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <id> <image>",
		Short: "Upload a photo to an adventure you own",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return report(cmd, err)
			}
			photo, err := app.lifecycle().AttachPhoto(cmd.Context(), app.client().Viewer(), args[0], adventure.Upload{
				Name: filepath.Base(args[1]),
				Data: data,
			})
			if err != nil {
				return report(cmd, err)
			}
			return app.emit(cmd, photo, func(w io.Writer) {
				fmt.Fprintf(w, "added %s\n", photo.ImageURL)
			})
		},
	}
}
