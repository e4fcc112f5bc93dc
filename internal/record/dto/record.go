package dto

import (
	"fmt"
	"strings"
	"time"

	"unibox-backend/internal/errs"
	recorddomain "unibox-backend/internal/record/domain"
)

// QueryParams is bound from the query string of list, search and aggregate requests.
type QueryParams struct {
	TimeMin string `form:"timeMin"`
	TimeMax string `form:"timeMax"`
	Q       string `form:"q"`
	Page    int    `form:"page"`
	Limit   int    `form:"limit"`
}

// ToQuery parses RFC 3339 timestamps. Defaults and range checks happen in the usecase.
func (p QueryParams) ToQuery() (recorddomain.Query, error) {
	q := recorddomain.Query{
		Search: strings.TrimSpace(p.Q),
		Page:   p.Page,
		Limit:  p.Limit,
	}
	if p.TimeMin != "" {
		t, err := time.Parse(time.RFC3339, p.TimeMin)
		if err != nil {
			return q, fmt.Errorf("%w: timeMin must be RFC 3339", errs.ErrValidation)
		}
		q.TimeMin = t
	}
	if p.TimeMax != "" {
		t, err := time.Parse(time.RFC3339, p.TimeMax)
		if err != nil {
			return q, fmt.Errorf("%w: timeMax must be RFC 3339", errs.ErrValidation)
		}
		q.TimeMax = &t
	}
	return q, nil
}

type SyncRequest struct {
	MaxItems int `json:"maxItems"`
}

type ItemRequest struct {
	Subject      string    `json:"subject" binding:"required"`
	Description  string    `json:"description"`
	Location     string    `json:"location"`
	StartTime    time.Time `json:"startTime" binding:"required"`
	EndTime      time.Time `json:"endTime" binding:"required"`
	Participants []string  `json:"participants"`
}

func (r *ItemRequest) ToInput() *recorddomain.ItemInput {
	return &recorddomain.ItemInput{
		Subject:      r.Subject,
		Description:  r.Description,
		Location:     r.Location,
		StartTime:    r.StartTime.UTC(),
		EndTime:      r.EndTime.UTC(),
		Participants: r.Participants,
	}
}

type StatsResponse struct {
	Accounts []*recorddomain.AccountStats `json:"accounts"`
}
