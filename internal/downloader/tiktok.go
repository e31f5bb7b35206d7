package downloader

import (
	"context"
	"net/http"

	pkgerrors "github.com/pkg/errors"

	"reelfetch/internal/media"
)

// TikTok treats the link as a direct media URL: one GET, and anything but
// 200 is a failure.
type TikTok struct {
	client    *http.Client
	onAttempt func()
}

// NewTikTok builds the adapter around client. onAttempt may be nil.
func NewTikTok(client *http.Client, onAttempt func()) *TikTok {
	if client == nil {
		client = http.DefaultClient
	}
	return &TikTok{client: client, onAttempt: onAttempt}
}

func (tt *TikTok) Fetch(ctx context.Context, req media.Request, dest string) error {
	if tt.onAttempt != nil {
		tt.onAttempt()
	}
	if err := download(ctx, tt.client, req.URL, dest); err != nil {
		return &Error{Platform: media.PlatformTikTok.String(), Stage: "media", Err: err}
	}
	return nil
}

// download performs a single GET of mediaURL into dest.
func download(ctx context.Context, client *http.Client, mediaURL, dest string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return pkgerrors.Wrap(err, "build media request")
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(err, "fetch media")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return pkgerrors.WithStack(&StatusError{URL: mediaURL, StatusCode: resp.StatusCode})
	}
	if _, err := copyChunks(dest, resp.Body); err != nil {
		return pkgerrors.Wrap(err, "store media")
	}
	return nil
}
