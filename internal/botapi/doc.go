// Package botapi is the HTTP surface a chat transport forwards user messages
// to. It parses bot commands, offers the quality follow-up, runs downloads
// through the request flow and answers with either the media file or one
// fixed, localized message.
//
// Every route except /healthz requires the bot token as a bearer credential.
package botapi
