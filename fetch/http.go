package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pitabwire/util"
	"golang.org/x/time/rate"
)

const (
	httpStatusOKClass = 2
	acceptDocuments   = "application/json,application/yaml;q=0.9,application/toml;q=0.9,*/*;q=0.5"
)

// HTTPReader reads documents over http and https.
type HTTPReader struct {
	client  *http.Client
	limiter *rate.Limiter
}

// HTTPOption configures an HTTPReader.
type HTTPOption func(*HTTPReader)

// WithRateLimit caps requests to perSecond with the given burst. A non
// positive rate leaves requests unthrottled.
func WithRateLimit(perSecond float64, burst int) HTTPOption {
	return func(r *HTTPReader) {
		if perSecond <= 0 {
			r.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewHTTPReader creates an HTTPReader. A nil client uses http.DefaultClient.
func NewHTTPReader(client *http.Client, opts ...HTTPOption) *HTTPReader {
	if client == nil {
		client = http.DefaultClient
	}
	r := &HTTPReader{client: client}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *HTTPReader) Read(ctx context.Context, rawURL string) ([]byte, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting to request %q: %w", rawURL, err)
		}
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	hreq.Header.Set("Accept", acceptDocuments)

	//nolint:bodyclose // closed by util.CloseAndLogOnError below
	hresp, err := r.client.Do(hreq)
	if err != nil {
		return nil, fmt.Errorf("requesting %q: %w", rawURL, err)
	}
	defer util.CloseAndLogOnError(ctx, hresp.Body)

	if hresp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, rawURL)
	}
	if hresp.StatusCode/100 != httpStatusOKClass {
		return nil, fmt.Errorf("dictionary request %q failed: %d %s", rawURL, hresp.StatusCode, hresp.Status)
	}

	data, err := io.ReadAll(hresp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %q: %w", rawURL, err)
	}
	return data, nil
}
