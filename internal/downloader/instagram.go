package downloader

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	pkgerrors "github.com/pkg/errors"

	"reelfetch/internal/media"
)

// ogVideoSelectors lists the Open Graph tags that carry the post's video URL,
// most specific first.
var ogVideoSelectors = []string{
	`meta[property="og:video:secure_url"]`,
	`meta[property="og:video:url"]`,
	`meta[property="og:video"]`,
}

// Instagram resolves a post page to its media URL with one metadata fetch and
// then streams the media to disk. There is no retry.
type Instagram struct {
	client    *http.Client
	onAttempt func()
}

// NewInstagram builds the adapter around client. onAttempt may be nil.
func NewInstagram(client *http.Client, onAttempt func()) *Instagram {
	if client == nil {
		client = http.DefaultClient
	}
	return &Instagram{client: client, onAttempt: onAttempt}
}

func (ig *Instagram) Fetch(ctx context.Context, req media.Request, dest string) error {
	if ig.onAttempt != nil {
		ig.onAttempt()
	}
	mediaURL, err := ig.resolve(ctx, req.URL)
	if err != nil {
		return &Error{Platform: media.PlatformInstagram.String(), Stage: "metadata", Err: err}
	}
	if err := download(ctx, ig.client, mediaURL, dest); err != nil {
		return &Error{Platform: media.PlatformInstagram.String(), Stage: "media", Err: err}
	}
	return nil
}

func (ig *Instagram) resolve(ctx context.Context, postURL string) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, postURL, nil)
	if err != nil {
		return "", pkgerrors.Wrap(err, "build metadata request")
	}
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml")
	resp, err := ig.client.Do(httpReq)
	if err != nil {
		return "", pkgerrors.Wrap(err, "fetch post page")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", pkgerrors.WithStack(&StatusError{URL: postURL, StatusCode: resp.StatusCode})
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", pkgerrors.Wrap(err, "parse post page")
	}
	for _, selector := range ogVideoSelectors {
		content, ok := doc.Find(selector).First().Attr("content")
		content = strings.TrimSpace(content)
		if !ok || content == "" {
			continue
		}
		return absoluteURL(resp.Request.URL, content)
	}
	return "", pkgerrors.Wrapf(ErrNoMedia, "post %s", postURL)
}

func absoluteURL(base *url.URL, ref string) (string, error) {
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", pkgerrors.Wrapf(err, "parse media url %q", ref)
	}
	if base != nil {
		parsed = base.ResolveReference(parsed)
	}
	return parsed.String(), nil
}
