package google

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	recorddomain "unibox-backend/internal/record/domain"

	"google.golang.org/api/gmail/v1"
)

const (
	// GmailMaxResults is the Gmail API maximum for messages.list.
	GmailMaxResults = 500

	gmailFetchConcurrency = 10
)

var metadataHeaders = []string{"Subject", "From", "To", "Cc"}

// GmailProvider lists and reads messages of a linked mailbox. It is read-only.
type GmailProvider struct {
	api apiClient
}

func NewGmailProvider(timeout time.Duration) *GmailProvider {
	return &GmailProvider{api: apiClient{timeout: timeout}}
}

func (p *GmailProvider) Kind() recorddomain.Kind { return recorddomain.KindEmail }

func (p *GmailProvider) MaxResults() int { return GmailMaxResults }

func (p *GmailProvider) service(ctx context.Context, accessToken string) (*gmail.Service, error) {
	srv, err := gmail.NewService(ctx, p.api.options(ctx, accessToken)...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return srv, nil
}

// List returns messages newest first. Total is Gmail's result size estimate.
func (p *GmailProvider) List(ctx context.Context, accessToken string, q recorddomain.ProviderQuery) (*recorddomain.ProviderPage, error) {
	srv, err := p.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	user := "me"
	want := clampMax(q.MaxResults, GmailMaxResults)
	listQuery := srv.Users.Messages.List(user).Context(ctx).MaxResults(int64(want))
	if query := buildGmailQuery(q); query != "" {
		listQuery = listQuery.Q(query)
	}

	var ids []string
	estimate := 0
	pageToken := ""
	for {
		if pageToken != "" {
			listQuery = listQuery.PageToken(pageToken)
		}
		resp, err := listQuery.Do()
		if err != nil {
			return nil, wrapErr("list gmail messages", err)
		}
		if estimate == 0 {
			estimate = int(resp.ResultSizeEstimate)
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}
		pageToken = resp.NextPageToken
		if pageToken == "" || len(ids) >= want {
			break
		}
		listQuery = listQuery.MaxResults(int64(want - len(ids)))
	}
	if len(ids) > want {
		ids = ids[:want]
	}

	items, err := p.fetchMetadata(ctx, srv, ids)
	if err != nil {
		return nil, err
	}

	// Parallel fetching returns messages in random order
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp().After(items[j].Timestamp())
	})

	total := estimate
	if total < len(items) {
		total = len(items)
	}
	return &recorddomain.ProviderPage{Items: items, Total: total}, nil
}

// fetchMetadata loads headers for each message with bounded concurrency.
// Messages that fail individually are skipped unless every fetch failed.
func (p *GmailProvider) fetchMetadata(ctx context.Context, srv *gmail.Service, ids []string) ([]*recorddomain.Item, error) {
	type result struct {
		item *recorddomain.Item
		err  error
	}

	results := make(chan result, len(ids))
	semaphore := make(chan struct{}, gmailFetchConcurrency)

	for _, id := range ids {
		go func(msgID string) {
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			msg, err := srv.Users.Messages.Get("me", msgID).
				Context(ctx).
				Format("metadata").
				MetadataHeaders(metadataHeaders...).
				Do()
			if err != nil {
				results <- result{err: err}
				return
			}
			results <- result{item: messageToItem(msg)}
		}(id)
	}

	items := make([]*recorddomain.Item, 0, len(ids))
	var firstErr error
	for range ids {
		r := <-results
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		items = append(items, r.item)
	}
	if len(items) == 0 && firstErr != nil {
		return nil, wrapErr("get gmail message", firstErr)
	}
	return items, nil
}

func (p *GmailProvider) Get(ctx context.Context, accessToken, externalID string) (*recorddomain.Item, error) {
	srv, err := p.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	msg, err := srv.Users.Messages.Get("me", externalID).
		Context(ctx).
		Format("metadata").
		MetadataHeaders(metadataHeaders...).
		Do()
	if err != nil {
		return nil, wrapErr("get gmail message", err)
	}
	return messageToItem(msg), nil
}

// buildGmailQuery appends the time window as after:/before: epoch filters.
func buildGmailQuery(q recorddomain.ProviderQuery) string {
	parts := make([]string, 0, 3)
	if q.Search != "" {
		parts = append(parts, q.Search)
	}
	if !q.TimeMin.IsZero() {
		parts = append(parts, fmt.Sprintf("after:%d", q.TimeMin.Unix()))
	}
	if q.TimeMax != nil {
		parts = append(parts, fmt.Sprintf("before:%d", q.TimeMax.Unix()))
	}
	return strings.Join(parts, " ")
}

func messageToItem(msg *gmail.Message) *recorddomain.Item {
	received := time.UnixMilli(msg.InternalDate).UTC()
	item := &recorddomain.Item{
		ExternalID:  msg.Id,
		Kind:        recorddomain.KindEmail,
		Description: msg.Snippet,
		ReceivedAt:  &received,
		Link:        "https://mail.google.com/mail/u/0/#all/" + msg.Id,
	}
	if msg.Payload == nil {
		return item
	}
	item.Subject = getHeader(msg.Payload.Headers, "Subject")
	for _, name := range []string{"From", "To", "Cc"} {
		item.Participants = append(item.Participants, splitAddresses(getHeader(msg.Payload.Headers, name))...)
	}
	return item
}

func getHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}
	return ""
}

func splitAddresses(header string) []string {
	var out []string
	for _, addr := range strings.Split(header, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
