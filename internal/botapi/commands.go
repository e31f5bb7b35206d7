package botapi

import (
	"fmt"
	"strings"

	"reelfetch/internal/media"
	"reelfetch/internal/services"
)

// CommandKind classifies a chat message.
type CommandKind string

const (
	CommandStart    CommandKind = "start"
	CommandHelp     CommandKind = "help"
	CommandStats    CommandKind = "stats"
	CommandDownload CommandKind = "download"
)

// Command is a parsed chat message. Platform and URL are set for downloads;
// Quality is set only when the user typed one after the link.
type Command struct {
	Kind     CommandKind
	Platform media.Platform
	URL      string
	Quality  media.Quality
}

// ParseCommand reads messages such as "/youtube https://youtu.be/x 720p".
// A "@botname" suffix on the command is ignored.
func ParseCommand(text string) (Command, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return Command{}, services.Wrap(services.ErrUnknownCommand, "botapi", "parse", "not a command", nil)
	}
	name := strings.ToLower(fields[0])
	if at := strings.IndexByte(name, '@'); at > 0 {
		name = name[:at]
	}

	switch name {
	case "/start":
		return Command{Kind: CommandStart}, nil
	case "/help":
		return Command{Kind: CommandHelp}, nil
	case "/stats":
		return Command{Kind: CommandStats}, nil
	}

	platform, err := media.ParsePlatform(name)
	if err != nil {
		return Command{}, services.Wrap(services.ErrUnknownCommand, "botapi", "parse", name, nil)
	}
	if len(fields) < 2 {
		return Command{}, services.Wrap(services.ErrInvalidURL, "botapi", "parse", "missing link", nil)
	}
	normalized, err := media.NormalizeURL(fields[1])
	if err != nil {
		return Command{}, services.Wrap(services.ErrInvalidURL, "botapi", "parse", "", err)
	}
	if !media.MatchesPlatform(platform, normalized) {
		return Command{}, services.Wrap(services.ErrInvalidURL, "botapi", "parse",
			fmt.Sprintf("link is not a %s link", platform), nil)
	}
	cmd := Command{Kind: CommandDownload, Platform: platform, URL: normalized}
	if len(fields) > 2 {
		quality, err := media.ParseQuality(fields[2])
		if err != nil {
			return Command{}, services.Wrap(services.ErrUnknownCommand, "botapi", "parse", "", err)
		}
		cmd.Quality = quality
	}
	return cmd, nil
}
