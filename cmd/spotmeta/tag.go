package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spotmeta/internal/config"
	"spotmeta/internal/metadata"
	"spotmeta/internal/progress"
	"spotmeta/internal/provider/spotify"
	"spotmeta/internal/shutdown"
	"spotmeta/pkg/utils"
)

func newTagCmd(a *app) *cobra.Command {
	var (
		organize  bool
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "tag <dir>",
		Short: "Tag audio files in a directory from Spotify matches",
		Long: `Read the title and artist of every audio file under <dir>, look the track
up on Spotify and rewrite the tags (and cover art) when the match is
confident enough.

With --organize, tagged files are moved to <output>/<Album Artist>/<Album>.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.setupFileLog("spotmeta")

			files, err := utils.FindAudioFiles(args[0])
			if err != nil {
				return err
			}
			if len(files) == 0 {
				a.log.Info("No audio files found in %s", args[0])
				return nil
			}

			sh := shutdown.New(cmd.Context())
			sh.Listen()
			defer sh.Shutdown()

			client, secrets, err := a.newClient(sh.Context())
			if err != nil {
				return err
			}
			sh.AddCleanup(func() {
				if err := secrets.Close(); err != nil {
					a.log.Warn("Failed to close secret provider: %v", err)
				}
			})

			resolver := metadata.NewResolver(client, a.log, a.cfg.ConfidenceThreshold)
			resolver.Abort = spotify.IsConfigurationError

			var bar *progress.Bar
			if !a.cfg.Verbose {
				bar = progress.NewWriter(cmd.ErrOrStderr(), len(files))
				a.log.SetProgressBar(true)
				resolver.OnFile = bar.Increment
			}

			stats, err := resolver.Resolve(sh.Context(), files)

			if bar != nil {
				bar.Finish()
				a.log.SetProgressBar(false)
			}
			if err != nil {
				return err
			}

			a.log.Info("Tagged %d of %d files (%d unmatched, %d failed)",
				stats.Tagged, stats.Total, stats.Unmatched, stats.Failed)

			if organize && len(stats.TaggedFiles) > 0 {
				dst := config.ExpandHome(outputDir)
				if dst == "" {
					dst = a.cfg.OutputDir
				}
				moved, failed, err := utils.MoveFiles(stats.TaggedFiles, dst, metadata.SubDirFromTags)
				if err != nil {
					return fmt.Errorf("failed to organize files: %w", err)
				}
				a.log.Info("Moved %d files to %s", moved, dst)
				if failed > 0 {
					a.log.Warn("%d files could not be moved", failed)
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&organize, "organize", false, "move tagged files into <output>/<Album Artist>/<Album>")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "library directory for --organize (default: output_dir from config)")
	return cmd
}
