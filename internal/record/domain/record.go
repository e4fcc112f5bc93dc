package domain

import (
	"time"
)

// Kind tells which remote provider a record comes from.
type Kind string

const (
	KindEvent Kind = "event"
	KindEmail Kind = "email"
)

// NewestFirst reports the provider's natural ordering for single-account pages.
// Mail is listed newest first, calendars list upcoming events in start order.
func (k Kind) NewestFirst() bool {
	return k == KindEmail
}

// Item is the provider-neutral projection of a calendar event or an email.
type Item struct {
	ExternalID   string     `json:"id"`
	Kind         Kind       `json:"kind"`
	Subject      string     `json:"subject"`
	Description  string     `json:"description,omitempty"`
	Location     string     `json:"location,omitempty"`
	StartTime    *time.Time `json:"startTime,omitempty"`
	EndTime      *time.Time `json:"endTime,omitempty"`
	ReceivedAt   *time.Time `json:"receivedDate,omitempty"`
	Participants []string   `json:"participants,omitempty"`
	Link         string     `json:"link,omitempty"`
}

// Timestamp is the temporal field used for ordering: start time for events,
// received date for mail.
func (i *Item) Timestamp() time.Time {
	if i.StartTime != nil {
		return *i.StartTime
	}
	if i.ReceivedAt != nil {
		return *i.ReceivedAt
	}
	return time.Time{}
}

// SyncedRecord is the mirror row of an Item. (LinkedAccountID, ExternalID) is unique.
type SyncedRecord struct {
	ID              string     `gorm:"primaryKey"`
	LinkedAccountID string     `gorm:"not null;uniqueIndex:idx_account_external;index:idx_account_kind_time,priority:1"`
	ExternalID      string     `gorm:"not null;uniqueIndex:idx_account_external"`
	Kind            Kind       `gorm:"not null;index:idx_account_kind_time,priority:2"`
	Subject         string
	Description     string
	Location        string
	StartTime       *time.Time `gorm:"index:idx_account_kind_time,priority:3"`
	EndTime         *time.Time
	ReceivedAt      *time.Time
	Participants    []string `gorm:"serializer:json"`
	Link            string
	SyncedAt        time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewSyncedRecord(accountID string, item *Item) *SyncedRecord {
	return &SyncedRecord{
		LinkedAccountID: accountID,
		ExternalID:      item.ExternalID,
		Kind:            item.Kind,
		Subject:         item.Subject,
		Description:     item.Description,
		Location:        item.Location,
		StartTime:       utcPtr(item.StartTime),
		EndTime:         utcPtr(item.EndTime),
		ReceivedAt:      utcPtr(item.ReceivedAt),
		Participants:    item.Participants,
		Link:            item.Link,
	}
}

func (r *SyncedRecord) ToItem() *Item {
	return &Item{
		ExternalID:   r.ExternalID,
		Kind:         r.Kind,
		Subject:      r.Subject,
		Description:  r.Description,
		Location:     r.Location,
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		ReceivedAt:   r.ReceivedAt,
		Participants: r.Participants,
		Link:         r.Link,
	}
}

// AggregatedItem is an Item tagged with the linked account it came from. It
// only lives inside one aggregate response.
type AggregatedItem struct {
	Item
	SourceAccountID    string `json:"sourceAccountId"`
	SourceAccountLabel string `json:"sourceAccountLabel"`
}

// SyncOutcome reports what one Sync run did to the mirror.
type SyncOutcome struct {
	RecordsInserted int   `json:"recordsInserted"`
	RecordsUpdated  int   `json:"recordsUpdated"`
	TotalProcessed  int   `json:"totalProcessed"`
	ElapsedMs       int64 `json:"elapsedMs"`
}

// AccountStats summarizes the mirror for one linked account.
type AccountStats struct {
	AccountID    string     `json:"accountId"`
	AccountLabel string     `json:"accountLabel"`
	Records      int64      `json:"records"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
