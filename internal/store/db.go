package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gather/internal/config"
	"gather/internal/observability"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// recordRow is the single table backing every DB-stored collection.
// Seq preserves insertion order so LoadAll returns records as written.
type recordRow struct {
	Seq        uint   `gorm:"primaryKey;autoIncrement"`
	Collection string `gorm:"size:64;not null;index:idx_records_collection"`
	EntityID   string `gorm:"size:64;not null"`
	Data       []byte `gorm:"not null"`
}

func (recordRow) TableName() string {
	return "records"
}

// slogGormLogger bridges GORM logging to slog.
type slogGormLogger struct {
	logger *slog.Logger
	Config logger.Config
}

// LogMode sets the logging level and returns a new interface instance.
func (l *slogGormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newlogger := *l
	newlogger.Config.LogLevel = level
	return &newlogger
}

// Info logs an informational message with context.
func (l *slogGormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Info {
		l.logger.InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

// Warn logs a warning message with context.
func (l *slogGormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Warn {
		l.logger.WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *slogGormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Error {
		l.logger.ErrorContext(ctx, fmt.Sprintf(msg, data...))
	}
}

// Trace logs trace-level information including SQL queries and execution time.
func (l *slogGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Config.LogLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && l.Config.LogLevel >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		l.logger.ErrorContext(ctx, "GORM query error",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
	case elapsed > l.Config.SlowThreshold && l.Config.SlowThreshold != 0 && l.Config.LogLevel >= logger.Warn:
		l.logger.WarnContext(ctx, "GORM slow query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	case l.Config.LogLevel >= logger.Info:
		l.logger.InfoContext(ctx, "GORM query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	}
}

// Connect opens the records database using the configured driver and runs
// the schema migration for the records table.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	gormLogger := &slogGormLogger{
		logger: observability.Logger,
		Config: logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	}

	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode,
		)
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&recordRow{}); err != nil {
		return nil, fmt.Errorf("migrate records table: %w", err)
	}

	return db, nil
}

// DBGateway persists one collection as rows in the shared records table.
type DBGateway struct {
	db         *gorm.DB
	collection string
}

// NewDBGateway returns a gateway storing the named collection in db.
func NewDBGateway(db *gorm.DB, collection string) *DBGateway {
	return &DBGateway{db: db, collection: collection}
}

// LoadAll reads the collection's records in insertion order.
func (g *DBGateway) LoadAll(ctx context.Context) ([]Record, error) {
	var rows []recordRow
	if err := g.db.WithContext(ctx).
		Where("collection = ?", g.collection).
		Order("seq").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load collection %s: %w", g.collection, err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, Record{ID: row.EntityID, Data: row.Data})
	}
	return records, nil
}

// SaveAll replaces the collection's rows in one transaction.
func (g *DBGateway) SaveAll(ctx context.Context, records []Record) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection = ?", g.collection).Delete(&recordRow{}).Error; err != nil {
			return err
		}
		for _, r := range records {
			row := recordRow{Collection: g.collection, EntityID: r.ID, Data: r.Data}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		observability.PersistenceWrites.WithLabelValues(g.collection, "error").Inc()
		return fmt.Errorf("save collection %s: %w", g.collection, err)
	}

	observability.PersistenceWrites.WithLabelValues(g.collection, "ok").Inc()
	return nil
}
