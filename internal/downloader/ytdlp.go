package downloader

import (
	"context"

	"github.com/lrstanley/go-ytdlp"
)

// runYTDLP invokes the yt-dlp binary through go-ytdlp. Output is merged into
// mp4 and playlists are never expanded.
func runYTDLP(ctx context.Context, url string, args ytdlpArgs) (string, error) {
	cmd := ytdlp.New().
		Format(args.Format).
		MergeOutputFormat("mp4").
		NoPlaylist().
		ForceOverwrites().
		Output(args.Output)
	if args.Binary != "" {
		cmd.SetExecutable(args.Binary)
	}
	if args.CookiesFile != "" {
		cmd.Cookies(args.CookiesFile)
	}
	if args.UserAgent != "" {
		cmd.AddHeaders("User-Agent:" + args.UserAgent)
	}
	if args.SocketTimeout > 0 {
		cmd.SocketTimeout(args.SocketTimeout.Seconds())
	}

	result, err := cmd.Run(ctx, url)
	var stderr string
	if result != nil {
		stderr = result.Stderr
	}
	return stderr, err
}
