// Package archive persists marketplace events to a SQL database for audit
// and inspection. It consumes the notification stream asynchronously so a
// slow database never blocks a marketplace operation.
package archive

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/blockmart/blockmart/pkg/models"
)

// EventRecord is the persisted form of a marketplace event.
type EventRecord struct {
	ID           string          `gorm:"primaryKey;size:36"`
	Type         string          `gorm:"size:32;index"`
	TokenID      uint64          `gorm:"index"`
	Actor        string          `gorm:"size:64;index"`
	Counterparty string          `gorm:"size:64"`
	Amount       decimal.Decimal `gorm:"type:numeric(32,12)"`
	BidCount     int
	OccurredAt   time.Time
	CreatedAt    time.Time
}

// TableName keeps the table name stable across gorm naming strategies.
func (EventRecord) TableName() string { return "marketplace_events" }

const queueSize = 1024

// Archive journals events through a buffered queue into the database.
type Archive struct {
	db     *gorm.DB
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
	queue  chan models.Event
	done   chan struct{}
}

// Open connects to PostgreSQL with the given pool limits.
func Open(dsn string, maxOpen, maxIdle int) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:      gormlogger.Default.LogMode(gormlogger.Warn),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		sqlDB.SetMaxIdleConns(maxIdle)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// New migrates the schema and starts the background writer.
func New(db *gorm.DB, logger *zap.Logger) (*Archive, error) {
	if err := db.AutoMigrate(&EventRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate archive schema: %w", err)
	}

	a := &Archive{
		db:     db,
		logger: logger,
		queue:  make(chan models.Event, queueSize),
		done:   make(chan struct{}),
	}
	go a.run()
	return a, nil
}

// Publish enqueues the event for persistence. When the queue is full the
// event is dropped and logged rather than blocking the operation that
// produced it.
func (a *Archive) Publish(_ context.Context, ev models.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	select {
	case a.queue <- ev:
	default:
		a.logger.Warn("archive queue full, dropping event",
			zap.String("event_id", ev.ID.String()),
			zap.String("type", string(ev.Type)),
		)
	}
}

// Close drains the queue and stops the writer.
func (a *Archive) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	<-a.done
}

func (a *Archive) run() {
	defer close(a.done)
	for ev := range a.queue {
		rec := EventRecord{
			ID:           ev.ID.String(),
			Type:         string(ev.Type),
			TokenID:      ev.TokenID,
			Actor:        ev.Actor,
			Counterparty: ev.Counterparty,
			Amount:       ev.Amount,
			BidCount:     ev.BidCount,
			OccurredAt:   ev.Time,
		}
		if err := a.db.Create(&rec).Error; err != nil {
			a.logger.Error("failed to archive event",
				zap.String("event_id", rec.ID),
				zap.Error(err),
			)
		}
	}
}

// EventsForToken returns the newest events for a token, newest first.
func (a *Archive) EventsForToken(ctx context.Context, tokenID uint64, limit int) ([]EventRecord, error) {
	var out []EventRecord
	err := a.db.WithContext(ctx).
		Where("token_id = ?", tokenID).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// Recent returns the newest events across all tokens, newest first.
func (a *Archive) Recent(ctx context.Context, limit int) ([]EventRecord, error) {
	var out []EventRecord
	err := a.db.WithContext(ctx).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
