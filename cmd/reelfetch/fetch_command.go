package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"reelfetch/internal/errlog"
	"reelfetch/internal/fileutil"
	"reelfetch/internal/flow"
	"reelfetch/internal/media"
	"reelfetch/internal/services"
)

const localUserID = "cli"

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var qualityFlag string
	var userFlag string
	var outputFlag string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "fetch <platform> <url>",
		Short: "Download one video through the local request flow",
		Long: "Run a single request through admission, cache and download exactly as the bot would.\n" +
			"The cached copy stays in cache_dir; use --output to also copy it elsewhere.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			platform, err := media.ParsePlatform(args[0])
			if err != nil {
				return err
			}
			quality, err := media.ParseQuality(qualityFlag)
			if err != nil {
				return err
			}
			req, err := media.NewRequest(userFlag, platform, args[1], quality)
			if err != nil {
				return err
			}

			logger, err := ctx.cliLogger(verbose)
			if err != nil {
				return err
			}
			errs, err := errlog.Open(cfg.ErrorLogPath(), cfg.Logging.ErrorLogMaxMB, cfg.Logging.ErrorLogBackups)
			if err != nil {
				return fmt.Errorf("open error log: %w", err)
			}
			defer errs.Close()

			svc, err := flow.NewFromConfig(cfg, logger, errs, nil)
			if err != nil {
				return err
			}

			res, err := svc.Flow.Handle(cmd.Context(), req)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Outcome: %s\n", res.Outcome)
			if err != nil {
				return fmt.Errorf("request %s (%s): %w", res.Outcome, services.Reason(err), err)
			}
			defer res.Close()

			fmt.Fprintf(out, "Size:    %s\n", humanBytes(res.Size))
			fmt.Fprintf(out, "Cached:  %s\n", yesNo(res.Cached))
			target := res.Path
			if dest := strings.TrimSpace(outputFlag); dest != "" {
				if err := fileutil.CopyFileVerified(res.Path, dest); err != nil {
					return fmt.Errorf("copy to %s: %w", dest, err)
				}
				target = dest
			}
			if abs, err := filepath.Abs(target); err == nil {
				target = abs
			}
			fmt.Fprintf(out, "Path:    %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&qualityFlag, "quality", "q", string(media.QualityMedium), "Resolution tier: low, medium, high (or 360p, 720p, 1080p)")
	cmd.Flags().StringVarP(&userFlag, "user", "u", localUserID, "User id charged for the request")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Copy the delivered file to this path")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log request progress to stderr")
	return cmd
}
