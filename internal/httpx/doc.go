// Package httpx builds the HTTP client shared by the direct-fetch
// downloaders: bounded timeouts, proxy from the environment, and a rotating
// browser User-Agent.
package httpx
