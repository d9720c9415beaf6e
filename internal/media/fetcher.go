package media

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/storage"
)

const maxMediaBytes = 64 << 20

// SiteFetcher reads site-relative refs from the site directory and absolute
// http(s) refs over the network.
type SiteFetcher struct {
	store  storage.Provider
	client *http.Client
}

// NewSiteFetcher creates a SiteFetcher. A nil client gets a 30s timeout.
func NewSiteFetcher(store storage.Provider, client *http.Client) *SiteFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &SiteFetcher{store: store, client: client}
}

// Fetch implements Fetcher.
func (f *SiteFetcher) Fetch(ctx context.Context, ref string) (Resource, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return f.fetchRemote(ctx, ref)
	}
	return f.fetchLocal(ref)
}

func (f *SiteFetcher) fetchLocal(ref string) (Resource, error) {
	rel := strings.TrimPrefix(ref, "/")
	data, err := f.store.Read(rel)
	if err != nil {
		return Resource{}, err
	}
	ct := mime.TypeByExtension(strings.ToLower(path.Ext(rel)))
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return Resource{
		Ref:         ref,
		ContentType: ct,
		Size:        int64(len(data)),
		Checksum:    checksum.Sum(data),
	}, nil
}

func (f *SiteFetcher) fetchRemote(ctx context.Context, ref string) (Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return Resource{}, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Resource{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Resource{}, fmt.Errorf("get %s: status %d", ref, resp.StatusCode)
	}
	sum, n, err := checksum.SumReader(io.LimitReader(resp.Body, maxMediaBytes))
	if err != nil {
		return Resource{}, fmt.Errorf("read %s: %w", ref, err)
	}
	return Resource{
		Ref:         ref,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        n,
		Checksum:    sum,
	}, nil
}
