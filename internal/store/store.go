// Package store is the record-store gateway used by the pipeline: voice
// notes and their context, the prompt registry, and the derived entity
// tables, over gorm and SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	"sitevoice-go/internal/logger"
	"sitevoice-go/internal/types"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open connects to the SQLite database at path, creating its directory if
// needed. ":memory:" gives a private in-memory database.
func Open(path string, log *logger.Logger) (*Store, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
		path += "?_busy_timeout=5000&_foreign_keys=off"
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	// SQLite allows one writer; a single connection serializes the parallel
	// write batches instead of failing them with SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)

	return New(db, log), nil
}

func New(db *gorm.DB, log *logger.Logger) *Store {
	if log == nil {
		log = logger.New()
	}
	return &Store{db: db, log: log.With("component", "store")}
}

// DB exposes the underlying handle for callers that need ad-hoc queries.
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates or updates every table.
func (s *Store) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&types.Account{},
		&types.User{},
		&types.Project{},
		&types.VoiceNote{},
		&types.AIAnalysis{},
		&types.MaterialRequest{},
		&types.LaborRequest{},
		&types.ApprovalRequest{},
		&types.ProjectEvent{},
		&types.ActionItem{},
		&types.Notification{},
		&types.Prompt{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// LoadVoiceNote reads a voice note with its account, submitting user and
// project.
func (s *Store) LoadVoiceNote(ctx context.Context, id string) (*types.VoiceNote, error) {
	var note types.VoiceNote
	err := s.db.WithContext(ctx).
		Preload("Account").
		Preload("User").
		Preload("Project").
		First(&note, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("voice note %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load voice note %s: %w", id, err)
	}
	return &note, nil
}

// ActivePrompt returns the highest active version for purpose. A prompt
// registered for the provider wins over a shared one (empty provider).
// Take keeps the ordering expression; First would replace it with the
// primary key.
func (s *Store) ActivePrompt(ctx context.Context, provider, purpose string) (*types.Prompt, error) {
	var p types.Prompt
	err := s.db.WithContext(ctx).
		Where("purpose = ? AND active = ? AND (provider = ? OR provider = '')", purpose, true, provider).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN provider = ? THEN 0 ELSE 1 END, version DESC",
			Vars:               []interface{}{provider},
			WithoutParentheses: true,
		}}).
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s prompt for %s: %w", purpose, provider, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s prompt: %w", purpose, err)
	}
	return &p, nil
}

// AccountStaff lists the users of an account in creation order.
func (s *Store) AccountStaff(ctx context.Context, accountID string) ([]types.User, error) {
	var users []types.User
	if err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at ASC, id ASC").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list account users: %w", err)
	}
	return users, nil
}

// NextAnalysisVersion returns 1 + the highest analysis version stored for a
// voice note.
func (s *Store) NextAnalysisVersion(ctx context.Context, voiceNoteID string) (int, error) {
	var max sql.NullInt64
	if err := s.db.WithContext(ctx).
		Model(&types.AIAnalysis{}).
		Where("voice_note_id = ?", voiceNoteID).
		Select("MAX(version)").
		Scan(&max).Error; err != nil {
		return 0, fmt.Errorf("max analysis version: %w", err)
	}
	return int(max.Int64) + 1, nil
}

// InsertBatch writes all rows of one entity type in a single statement.
// rows must be a non-empty slice of a model type.
func (s *Store) InsertBatch(ctx context.Context, table string, rows interface{}) error {
	if err := s.db.WithContext(ctx).Table(table).Omit(clause.Associations).Create(rows).Error; err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

// InsertOne writes a single row.
func (s *Store) InsertOne(ctx context.Context, table string, row interface{}) error {
	if err := s.db.WithContext(ctx).Table(table).Omit(clause.Associations).Create(row).Error; err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

// VoiceNoteIDs lists up to limit voice note ids in the given status, oldest
// first. A limit of zero or less means no limit.
func (s *Store) VoiceNoteIDs(ctx context.Context, status types.Status, limit int) ([]string, error) {
	q := s.db.WithContext(ctx).
		Model(&types.VoiceNote{}).
		Where("status = ?", string(status)).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var ids []string
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list %s voice notes: %w", status, err)
	}
	return ids, nil
}

// ActionItemFor returns the action item created for a voice note, if any.
func (s *Store) ActionItemFor(ctx context.Context, voiceNoteID string) (*types.ActionItem, error) {
	var item types.ActionItem
	err := s.db.WithContext(ctx).
		Where("voice_note_id = ?", voiceNoteID).
		Order("created_at ASC").
		Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("action item for %s: %w", voiceNoteID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load action item for %s: %w", voiceNoteID, err)
	}
	return &item, nil
}

// Notified reports whether a notification exists for an action item.
func (s *Store) Notified(ctx context.Context, actionItemID string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).
		Model(&types.Notification{}).
		Where("action_item_id = ?", actionItemID).
		Count(&n).Error; err != nil {
		return false, fmt.Errorf("count notifications: %w", err)
	}
	return n > 0, nil
}

// LatestAnalysis returns the highest analysis version stored for a voice note.
func (s *Store) LatestAnalysis(ctx context.Context, voiceNoteID string) (*types.AIAnalysis, error) {
	var a types.AIAnalysis
	err := s.db.WithContext(ctx).
		Where("voice_note_id = ?", voiceNoteID).
		Order("version DESC").
		Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("analysis for %s: %w", voiceNoteID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load analysis for %s: %w", voiceNoteID, err)
	}
	return &a, nil
}
