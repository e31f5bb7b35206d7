// Package errlog keeps the operator-facing failure log: one text block per
// failed request with a timestamp, the requesting user, the command, the
// error chain, and a stack trace. The file rotates by size.
package errlog
