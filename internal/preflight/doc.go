// Package preflight provides readiness checks for the external binaries and
// filesystem paths reelfetch depends on.
//
// The server runs RunAll at startup and logs every result; required
// failures are logged as warnings rather than aborting, since a missing
// yt-dlp only breaks one platform. The CLI "config validate" command renders
// the same results as a table.
package preflight
