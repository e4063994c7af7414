package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/talgya/tribesim/internal/engine"
)

type runModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	Seed       int64     `gorm:"column:seed;not null"`
	ParamsJSON string    `gorm:"column:params_json;type:jsonb;not null"`
	StartedAt  time.Time `gorm:"column:started_at;not null"`
}

func (runModel) TableName() string { return "runs" }

type eventModel struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	RunID       string `gorm:"column:run_id;not null;index:idx_events_run_day"`
	Day         int    `gorm:"column:day;not null;index:idx_events_run_day"`
	Kind        string `gorm:"column:kind;not null"`
	Category    string `gorm:"column:category;not null"`
	Description string `gorm:"column:description;not null"`
	MetaJSON    string `gorm:"column:meta_json;type:jsonb;not null"`
}

func (eventModel) TableName() string { return "events" }

type snapshotModel struct {
	RunID       string  `gorm:"column:run_id;primaryKey"`
	Day         int     `gorm:"column:day;primaryKey"`
	Humans      int     `gorm:"column:humans;not null"`
	Animals     int     `gorm:"column:animals;not null"`
	Plants      int     `gorm:"column:plants;not null"`
	Rainfall    int     `gorm:"column:rainfall;not null"`
	FoodStorage float64 `gorm:"column:food_storage;not null"`
}

func (snapshotModel) TableName() string { return "snapshots" }

// PGJournal is the Postgres journal.
type PGJournal struct {
	db *gorm.DB
}

// OpenPostgres connects to dsn and migrates the journal tables.
func OpenPostgres(dsn string) (*PGJournal, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&runModel{}, &eventModel{}, &snapshotModel{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &PGJournal{db: db}, nil
}

// Close releases the underlying connection pool.
func (j *PGJournal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// StartRun records a new run and returns its id.
func (j *PGJournal) StartRun(ctx context.Context, seed int64, params engine.Params) (string, error) {
	paramsJSON, err := encodeParams(params)
	if err != nil {
		return "", err
	}
	row := runModel{ID: newRunID(), Seed: seed, ParamsJSON: paramsJSON, StartedAt: time.Now().UTC()}
	if err := j.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return row.ID, nil
}

// SaveEvents appends events in one batch insert.
func (j *PGJournal) SaveEvents(ctx context.Context, runID string, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]eventModel, 0, len(events))
	for _, e := range events {
		rows = append(rows, eventModel{
			RunID:       runID,
			Day:         e.Day,
			Kind:        e.Kind,
			Category:    e.Category,
			Description: e.Description,
			MetaJSON:    encodeMeta(e.Meta),
		})
	}
	return j.db.WithContext(ctx).Create(&rows).Error
}

// SaveSnapshot stores one day's snapshot, replacing an existing row.
func (j *PGJournal) SaveSnapshot(ctx context.Context, runID string, snap engine.DaySnapshot) error {
	row := snapshotModel{
		RunID:       runID,
		Day:         snap.Day,
		Humans:      snap.Humans,
		Animals:     snap.Animals,
		Plants:      snap.Plants,
		Rainfall:    snap.Rainfall,
		FoodStorage: snap.FoodStorage,
	}
	return j.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

// RecentEvents returns the most recent N events of a run, oldest first.
func (j *PGJournal) RecentEvents(ctx context.Context, runID string, limit int) ([]engine.Event, error) {
	rows := []eventModel{}
	query := j.db.WithContext(ctx).
		Where(&eventModel{RunID: runID}).
		Clauses(clause.OrderBy{
			Columns: []clause.OrderByColumn{{Column: clause.Column{Name: "id"}, Desc: true}},
		})
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	events := make([]engine.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, engine.Event{
			Day:         r.Day,
			Kind:        r.Kind,
			Category:    r.Category,
			Description: r.Description,
			Meta:        decodeMeta(r.MetaJSON),
		})
	}
	reverse(events)
	return events, nil
}

// History returns every snapshot of a run in day order.
func (j *PGJournal) History(ctx context.Context, runID string) ([]engine.DaySnapshot, error) {
	rows := []snapshotModel{}
	if err := j.db.WithContext(ctx).Where(&snapshotModel{RunID: runID}).Order("day").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]engine.DaySnapshot, 0, len(rows))
	for _, r := range rows {
		out = append(out, engine.DaySnapshot{
			Day:         r.Day,
			Humans:      r.Humans,
			Animals:     r.Animals,
			Plants:      r.Plants,
			Rainfall:    r.Rainfall,
			FoodStorage: r.FoodStorage,
		})
	}
	return out, nil
}
