// Package services defines shared utilities consumed by the request flow,
// the downloader adapters, and the command surface.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers, user ids, and the
//     command being served for logging and the error log.
//   - Structured error markers plus the Wrap helper so failures keep their
//     classification (queue full, rate limited, download failed) while
//     carrying component detail.
//
// Use these helpers when wiring new components so error handling and
// observability stay uniform.
package services
