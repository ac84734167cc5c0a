package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"clipforge/internal/highlights"
)

type profileListing struct {
	Key          string  `json:"key"`
	Name         string  `json:"name"`
	ClipDuration float64 `json:"clipDuration"`
	Keywords     int     `json:"keywords"`
}

func newProfilesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "profiles",
		Short:       "List known game detection profiles",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := highlights.ProfileNames()
			sort.Strings(keys)

			listings := make([]profileListing, 0, len(keys))
			for _, key := range keys {
				profile := highlights.ResolveProfile(key)
				listings = append(listings, profileListing{
					Key:          key,
					Name:         profile.Name,
					ClipDuration: profile.ClipDuration,
					Keywords:     keywordCount(profile.Keywords),
				})
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, listings)
			}

			rows := make([][]string, 0, len(listings))
			for _, listing := range listings {
				rows = append(rows, []string{
					listing.Key,
					listing.Name,
					formatSeconds(listing.ClipDuration),
					strconv.Itoa(listing.Keywords),
				})
			}
			table := renderTable(
				[]string{"Key", "Game", "Clip Length", "Keywords"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			fmt.Fprintf(cmd.OutOrStdout(), "Unknown game titles fall back to the %q profile.\n", highlights.DefaultProfileKey)
			return nil
		},
	}
}

func keywordCount(keywords highlights.Keywords) int {
	return len(keywords.Kill) + len(keywords.Death) + len(keywords.Victory) + len(keywords.Clutch)
}
