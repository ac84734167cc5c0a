package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipforge/internal/renderspec"
)

type formatListing struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Resolution  string  `json:"resolution"`
	AspectRatio string  `json:"aspectRatio"`
	MaxDuration float64 `json:"maxDuration"`
}

type stylePackListing struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	TitleStyle string `json:"titleStyle"`
	Overlay    bool   `json:"overlay"`
	Default    bool   `json:"default"`
}

func newFormatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "formats",
		Short:       "List export formats and style packs",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := make([]formatListing, 0, len(renderspec.FormatKeys()))
			for _, key := range renderspec.FormatKeys() {
				format, err := renderspec.ResolveFormat(key)
				if err != nil {
					return err
				}
				formats = append(formats, formatListing{
					Key:         format.Key,
					Name:        format.Name,
					Resolution:  fmt.Sprintf("%dx%d", format.Width, format.Height),
					AspectRatio: format.AspectRatio,
					MaxDuration: format.MaxDuration,
				})
			}

			packs := make([]stylePackListing, 0, len(renderspec.StylePackKeys()))
			for _, key := range renderspec.StylePackKeys() {
				pack, err := renderspec.ResolveStylePack(key)
				if err != nil {
					return err
				}
				packs = append(packs, stylePackListing{
					Key:        pack.Key,
					Name:       pack.Name,
					TitleStyle: pack.TitleStyle,
					Overlay:    pack.OverlayImage != "",
					Default:    pack.Key == renderspec.DefaultStylePackKey,
				})
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, struct {
					Formats    []formatListing    `json:"formats"`
					StylePacks []stylePackListing `json:"stylePacks"`
				}{Formats: formats, StylePacks: packs})
			}

			out := cmd.OutOrStdout()

			formatRows := make([][]string, 0, len(formats))
			for _, listing := range formats {
				formatRows = append(formatRows, []string{
					listing.Key,
					listing.Name,
					listing.Resolution,
					listing.AspectRatio,
					formatSeconds(listing.MaxDuration),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Key", "Platform", "Resolution", "Aspect", "Max Length"},
				formatRows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			))

			packRows := make([][]string, 0, len(packs))
			for _, listing := range packs {
				name := listing.Name
				if listing.Default {
					name += " (default)"
				}
				packRows = append(packRows, []string{
					listing.Key,
					name,
					listing.TitleStyle,
					yesNo(listing.Overlay),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Style Pack", "Name", "Title Style", "Overlay"},
				packRows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
