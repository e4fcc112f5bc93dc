package google

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"
)

// OAuth talks to Google's OAuth endpoints: code exchange when an account is
// linked and refresh-token grants for the token broker.
type OAuth struct {
	config *oauth2.Config
	api    apiClient
}

func NewOAuth(clientID, clientSecret, redirectURL string, timeout time.Duration) *OAuth {
	return &OAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				calendar.CalendarEventsScope,
				gmail.GmailReadonlyScope,
				"openid",
				"email",
			},
		},
		api: apiClient{timeout: timeout},
	}
}

// AuthCodeURL asks for offline access so the callback yields a refresh token.
func (o *OAuth) AuthCodeURL(state string) string {
	return o.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (o *OAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := o.config.Exchange(o.withHTTPClient(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return token, nil
}

// Refresh performs a refresh-token grant. The returned token keeps the old
// refresh token when the provider does not rotate it.
func (o *OAuth) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	src := o.config.TokenSource(o.withHTTPClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh access token: %w", err)
	}
	return token, nil
}

// ProfileEmail resolves the mailbox address behind an access token.
func (o *OAuth) ProfileEmail(ctx context.Context, accessToken string) (string, error) {
	srv, err := gmail.NewService(ctx, o.api.options(ctx, accessToken)...)
	if err != nil {
		return "", fmt.Errorf("unable to create Gmail service: %w", err)
	}
	profile, err := srv.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return "", wrapErr("get gmail profile", err)
	}
	return strings.ToLower(profile.EmailAddress), nil
}

func (o *OAuth) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: o.api.timeout})
}
