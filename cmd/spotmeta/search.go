package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"spotmeta/internal/provider/spotify"
)

func newSearchCmd(a *app) *cobra.Command {
	var artist string

	cmd := &cobra.Command{
		Use:   "search <artist|album|track> <query>",
		Short: "Print the Spotify ID of the best match",
		Long: `Search the Spotify catalog and print the ID of the top result.

Track searches are scoped to --artist when given. Album searches match on the
album title only.`,
		Example: `  spotmeta search artist "Radiohead"
  spotmeta search track "Karma Police" --artist Radiohead`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := spotify.ParseKind(args[0])
			if err != nil {
				return err
			}

			client, secrets, err := a.newClient(cmd.Context())
			if err != nil {
				return err
			}
			defer secrets.Close()

			id, err := client.SearchEntity(cmd.Context(), kind, args[1], artist)
			if errors.Is(err, spotify.ErrNotFound) {
				return fmt.Errorf("no %s found for %q", kind, args[1])
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(stdout(cmd), id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&artist, "artist", "a", "", "artist name to scope a track search")
	return cmd
}

func newDetailsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "details <artist|album|track> <id>",
		Short:   "Print the catalog object for a Spotify ID as JSON",
		Example: `  spotmeta details album 6dVIqQ8qmQ5GBnJ9shOYGE`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := spotify.ParseKind(args[0])
			if err != nil {
				return err
			}

			client, secrets, err := a.newClient(cmd.Context())
			if err != nil {
				return err
			}
			defer secrets.Close()

			details, err := client.EntityDetails(cmd.Context(), kind, args[1])
			if errors.Is(err, spotify.ErrNotFound) {
				return fmt.Errorf("no %s with id %q", kind, args[1])
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(stdout(cmd))
			enc.SetIndent("", "  ")
			return enc.Encode(details)
		},
	}
}
