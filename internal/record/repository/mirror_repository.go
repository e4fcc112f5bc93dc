package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	recorddomain "unibox-backend/internal/record/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultBatchSize = 100

var mutableColumns = []string{
	"kind", "subject", "description", "location",
	"start_time", "end_time", "received_at", "participants",
	"link", "synced_at", "updated_at",
}

// mirrorRepository implements MirrorRepository interface
type mirrorRepository struct {
	db *gorm.DB
}

// NewMirrorRepository creates a new instance of mirrorRepository
func NewMirrorRepository(db *gorm.DB) MirrorRepository {
	return &mirrorRepository{
		db: db,
	}
}

func (r *mirrorRepository) UpsertBatch(ctx context.Context, accountID string, items []*recorddomain.Item, batchSize int, syncedAt time.Time) (*UpsertResult, error) {
	result := &UpsertResult{}
	records := dedupeRecords(accountID, items)
	if len(records) == 0 {
		return result, nil
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	syncedAt = syncedAt.UTC()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing := make(map[string]struct{}, len(records))
		for start := 0; start < len(records); start += batchSize {
			end := min(start+batchSize, len(records))
			ids := make([]string, 0, end-start)
			for _, rec := range records[start:end] {
				ids = append(ids, rec.ExternalID)
			}
			var found []string
			if err := tx.Model(&recorddomain.SyncedRecord{}).
				Where("linked_account_id = ? AND external_id IN ?", accountID, ids).
				Pluck("external_id", &found).Error; err != nil {
				return err
			}
			for _, id := range found {
				existing[id] = struct{}{}
			}
		}

		for _, rec := range records {
			rec.ID = uuid.New().String()
			rec.SyncedAt = syncedAt
			rec.CreatedAt = syncedAt
			rec.UpdatedAt = syncedAt
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "linked_account_id"}, {Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns(mutableColumns),
		}).CreateInBatches(records, batchSize).Error; err != nil {
			return err
		}

		result.Updated = len(existing)
		result.Inserted = len(records) - len(existing)
		return nil
	})
	if err != nil {
		return &UpsertResult{}, fmt.Errorf("upsert synced records: %w", err)
	}
	return result, nil
}

// dedupeRecords keeps one record per external id. The last occurrence wins
// while the position of the first is kept.
func dedupeRecords(accountID string, items []*recorddomain.Item) []*recorddomain.SyncedRecord {
	index := make(map[string]int, len(items))
	records := make([]*recorddomain.SyncedRecord, 0, len(items))
	for _, item := range items {
		if item == nil || item.ExternalID == "" {
			continue
		}
		rec := recorddomain.NewSyncedRecord(accountID, item)
		if i, ok := index[item.ExternalID]; ok {
			records[i] = rec
			continue
		}
		index[item.ExternalID] = len(records)
		records = append(records, rec)
	}
	return records
}

func (r *mirrorRepository) List(ctx context.Context, accountID string, q MirrorQuery) ([]*recorddomain.Item, int64, error) {
	timeCol := timeColumn(q.Kind)

	query := r.db.WithContext(ctx).Model(&recorddomain.SyncedRecord{}).
		Where("linked_account_id = ? AND kind = ?", accountID, q.Kind)
	if !q.TimeMin.IsZero() {
		query = query.Where(timeCol+" >= ?", q.TimeMin.UTC())
	}
	if q.TimeMax != nil {
		query = query.Where(timeCol+" < ?", q.TimeMax.UTC())
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		like := "%" + escapeLike(strings.ToLower(term)) + "%"
		query = query.Where(
			"(LOWER(subject) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\' OR LOWER(location) LIKE ? ESCAPE '\\')",
			like, like, like,
		)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := timeCol + " ASC"
	if q.Kind.NewestFirst() {
		order = timeCol + " DESC"
	}
	query = query.Order(order).Order("external_id ASC")
	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var records []*recorddomain.SyncedRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, err
	}

	items := make([]*recorddomain.Item, 0, len(records))
	for _, rec := range records {
		items = append(items, rec.ToItem())
	}
	return items, total, nil
}

func (r *mirrorRepository) FindByExternalID(ctx context.Context, accountID, externalID string) (*recorddomain.SyncedRecord, error) {
	var record recorddomain.SyncedRecord
	err := r.db.WithContext(ctx).
		Where("linked_account_id = ? AND external_id = ?", accountID, externalID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *mirrorRepository) DeleteByExternalID(ctx context.Context, accountID, externalID string) error {
	return r.db.WithContext(ctx).
		Where("linked_account_id = ? AND external_id = ?", accountID, externalID).
		Delete(&recorddomain.SyncedRecord{}).Error
}

func (r *mirrorRepository) Stats(ctx context.Context, kind recorddomain.Kind, accountIDs []string) ([]MirrorStat, error) {
	if len(accountIDs) == 0 {
		return []MirrorStat{}, nil
	}

	var rows []struct {
		LinkedAccountID string
		Records         int64
		LastSyncedAt    string
	}
	err := r.db.WithContext(ctx).Model(&recorddomain.SyncedRecord{}).
		Select("linked_account_id, COUNT(*) AS records, MAX(synced_at) AS last_synced_at").
		Where("kind = ? AND linked_account_id IN ?", kind, accountIDs).
		Group("linked_account_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := make([]MirrorStat, 0, len(rows))
	for _, row := range rows {
		stat := MirrorStat{LinkedAccountID: row.LinkedAccountID, Records: row.Records}
		if t, ok := parseAggregateTime(row.LastSyncedAt); ok {
			stat.LastSyncedAt = &t
		}
		stats = append(stats, stat)
	}
	return stats, nil
}

func timeColumn(kind recorddomain.Kind) string {
	if kind == recorddomain.KindEmail {
		return "received_at"
	}
	return "start_time"
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// parseAggregateTime reads MAX(timestamp) results, which drivers return as text
// in differing layouts.
func parseAggregateTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02 15:04:05.999999999",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
