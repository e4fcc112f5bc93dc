package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"unibox-backend/internal/errs"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// apiClient holds what every Google API call needs besides the token.
// endpoint is empty in production and points at a test server otherwise.
type apiClient struct {
	timeout  time.Duration
	endpoint string
}

// options builds client options that authenticate with a caller-supplied
// access token. No refresh happens here; that is the token broker's job.
func (c apiClient) options(ctx context.Context, accessToken string) []option.ClientOption {
	src := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	})
	httpClient := oauth2.NewClient(ctx, src)
	httpClient.Timeout = c.timeout

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	return opts
}

// wrapErr maps a Google API failure onto the error taxonomy. A 404 means the
// item does not exist; anything else makes the provider unavailable for this call.
func wrapErr(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", op, errs.ErrProviderUnavailable, err)
}

func clampMax(requested, providerMax int) int {
	if requested <= 0 || requested > providerMax {
		return providerMax
	}
	return requested
}
