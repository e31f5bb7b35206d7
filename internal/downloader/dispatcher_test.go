package downloader

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelfetch/internal/errlog"
	"reelfetch/internal/media"
	"reelfetch/internal/services"
)

type fetchFunc func(ctx context.Context, req media.Request, dest string) error

func (f fetchFunc) Fetch(ctx context.Context, req media.Request, dest string) error {
	return f(ctx, req, dest)
}

type memLog struct{ bytes.Buffer }

func (m *memLog) Close() error { return nil }

func newTestDispatcher(t *testing.T, yt, ig, tt Fetcher) (*Dispatcher, *memLog) {
	t.Helper()
	d, err := New(Options{ScratchDir: t.TempDir()}, nil, nil, nil)
	require.NoError(t, err)
	buf := &memLog{}
	d.errs = errlog.New(buf)
	if yt != nil {
		d.youtube = yt
	}
	if ig != nil {
		d.instagram = ig
	}
	if tt != nil {
		d.tiktok = tt
	}
	return d, buf
}

func writeFetch(content string) fetchFunc {
	return func(ctx context.Context, req media.Request, dest string) error {
		return os.WriteFile(dest, []byte(content), 0o644)
	}
}

func TestDispatcherRoutesByPlatform(t *testing.T) {
	var routed []media.Platform
	record := func(p media.Platform) fetchFunc {
		return func(ctx context.Context, req media.Request, dest string) error {
			routed = append(routed, p)
			return os.WriteFile(dest, []byte("ok"), 0o644)
		}
	}
	d, _ := newTestDispatcher(t, record(media.PlatformYouTube), record(media.PlatformInstagram), record(media.PlatformTikTok))

	for _, p := range media.Platforms() {
		path, err := d.Fetch(context.Background(), rawRequest(p, "https://example.com/x"))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(filepath.Base(path), p.String()+"-"), path)
		assert.Equal(t, d.ScratchDir(), filepath.Dir(path))
		assert.FileExists(t, path)
	}
	assert.Equal(t, media.Platforms(), routed)
}

func TestDispatcherCollapsesFailures(t *testing.T) {
	adapterErr := &Error{Platform: "tiktok", Stage: "media", Err: &StatusError{URL: "https://x", StatusCode: 500}}
	d, log := newTestDispatcher(t, nil, nil, fetchFunc(func(ctx context.Context, req media.Request, dest string) error {
		_ = os.WriteFile(dest, []byte("partial"), 0o644)
		return adapterErr
	}))

	ctx := services.WithUserID(context.Background(), "42")
	path, err := d.Fetch(ctx, rawRequest(media.PlatformTikTok, "https://www.tiktok.com/v.mp4"))
	require.Error(t, err)
	assert.Empty(t, path)
	assert.ErrorIs(t, err, services.ErrDownloadFailed)

	var leaked *StatusError
	assert.False(t, errors.As(err, &leaked), "adapter detail must not escape the dispatcher")

	entries, readErr := os.ReadDir(d.ScratchDir())
	require.NoError(t, readErr)
	assert.Empty(t, entries, "partial download should be removed")

	assert.Contains(t, log.String(), "user=42")
	assert.Contains(t, log.String(), "HTTP 500")
}

func TestDispatcherRejectsEmptyDownload(t *testing.T) {
	d, _ := newTestDispatcher(t, writeFetch(""), nil, nil)
	_, err := d.Fetch(context.Background(), rawRequest(media.PlatformYouTube, "https://youtu.be/x"))
	assert.ErrorIs(t, err, services.ErrDownloadFailed)
}

func TestDispatcherRejectsUnknownPlatform(t *testing.T) {
	d, _ := newTestDispatcher(t, nil, nil, nil)
	_, err := d.Fetch(context.Background(), rawRequest(media.Platform("vimeo"), "https://vimeo.com/1"))
	assert.ErrorIs(t, err, services.ErrDownloadFailed)
}

func TestNewRequiresScratchDir(t *testing.T) {
	_, err := New(Options{}, nil, nil, nil)
	assert.Error(t, err)
}
