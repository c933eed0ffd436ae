package store

import (
	"context"
	"errors"
	"log/slog"

	slogGorm "github.com/orandin/slog-gorm"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/harborchat/harbor/moderation/group"
	"github.com/harborchat/harbor/moderation/whitelist"
)

type blacklistRow struct {
	gorm.Model
	Pattern string `gorm:"uniqueIndex;not null"`
	AddedBy string
}

func (blacklistRow) TableName() string { return "blacklist_entries" }

type whitelistRow struct {
	gorm.Model
	SubjectID string `gorm:"uniqueIndex:idx_whitelist_subject;not null"`
	Kind      string `gorm:"uniqueIndex:idx_whitelist_subject;not null"`
	AddedBy   string
}

func (whitelistRow) TableName() string { return "whitelist_entries" }

type thresholdRow struct {
	gorm.Model
	Action       string `gorm:"uniqueIndex;not null"`
	MessageCount int
	ChannelCount int
	Extra        int64
	SetBy        string
}

func (thresholdRow) TableName() string { return "thresholds" }

// GormStore persists configuration in a relational database.
type GormStore struct {
	db *gorm.DB
}

// OpenSQLite opens (and migrates) a sqlite-backed store at path.
func OpenSQLite(path string, logger *slog.Logger) (*GormStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         slogGorm.New(slogGorm.WithHandler(logger.Handler())),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	return NewGormStore(db)
}

// NewGormStore migrates the schema on an already-open handle.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&blacklistRow{}, &whitelistRow{}, &thresholdRow{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

var _ Store = (*GormStore)(nil)

func (s *GormStore) ListBlacklist(ctx context.Context) ([]BlacklistEntry, error) {
	var rows []blacklistRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]BlacklistEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, BlacklistEntry{
			Pattern:   r.Pattern,
			AddedBy:   r.AddedBy,
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

func (s *GormStore) ListBlacklistPatterns(ctx context.Context) ([]string, error) {
	var patterns []string
	err := s.db.WithContext(ctx).Model(&blacklistRow{}).Order("id").Pluck("pattern", &patterns).Error
	if err != nil {
		return nil, err
	}
	return patterns, nil
}

func (s *GormStore) AddBlacklistEntry(ctx context.Context, pattern, addedBy string) error {
	res := s.db.WithContext(ctx).Create(&blacklistRow{Pattern: pattern, AddedBy: addedBy})
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return res.Error
}

func (s *GormStore) RemoveBlacklistEntry(ctx context.Context, pattern string) error {
	// hard delete; a soft-deleted row would still hold the unique index slot
	res := s.db.WithContext(ctx).Unscoped().Where("pattern = ?", pattern).Delete(&blacklistRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListWhitelistEntries(ctx context.Context) ([]whitelist.Entry, error) {
	var rows []whitelistRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]whitelist.Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, whitelist.Entry{ID: r.SubjectID, Kind: whitelist.Kind(r.Kind)})
	}
	return out, nil
}

func (s *GormStore) AddWhitelistEntry(ctx context.Context, id string, kind whitelist.Kind, addedBy string) error {
	res := s.db.WithContext(ctx).Create(&whitelistRow{SubjectID: id, Kind: string(kind), AddedBy: addedBy})
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return res.Error
}

func (s *GormStore) RemoveWhitelistEntry(ctx context.Context, id string, kind whitelist.Kind) error {
	res := s.db.WithContext(ctx).Unscoped().
		Where("subject_id = ? AND kind = ?", id, string(kind)).
		Delete(&whitelistRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListThresholds(ctx context.Context) ([]group.Threshold, error) {
	var rows []thresholdRow
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]group.Threshold, 0, len(rows))
	for _, r := range rows {
		out = append(out, group.Threshold{
			Action:       group.ActionKind(r.Action),
			MessageCount: r.MessageCount,
			ChannelCount: r.ChannelCount,
			Extra:        r.Extra,
			SetBy:        r.SetBy,
		})
	}
	return out, nil
}

func (s *GormStore) UpsertThreshold(ctx context.Context, t group.Threshold) error {
	row := thresholdRow{
		Action:       string(t.Action),
		MessageCount: t.MessageCount,
		ChannelCount: t.ChannelCount,
		Extra:        t.Extra,
		SetBy:        t.SetBy,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "action"}},
		DoUpdates: clause.AssignmentColumns([]string{"message_count", "channel_count", "extra", "set_by", "updated_at"}),
	}).Create(&row).Error
}

func (s *GormStore) RemoveThreshold(ctx context.Context, action group.ActionKind) error {
	res := s.db.WithContext(ctx).Unscoped().Where("action = ?", string(action)).Delete(&thresholdRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
