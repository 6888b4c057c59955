// Package database persists transaction receipts and engine progress in
// Postgres. The store is advisory: the in-memory engine is the source of
// truth for sequencing, and running without a database is fully supported.
package database

import (
	"context"
	"fmt"
	"net/url"

	"github.com/flare-foundation/go-flare-common/pkg/logger"
	"github.com/pkg/errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"gitlab.com/flarenetwork/fdc/transaction-sequencer/pkg/config"
)

const (
	receiptBatchSize = 1000
	globalStateID    = 1
)

type DB struct {
	g *gorm.DB
}

func New(cfg *config.DB) (*DB, error) {
	db, err := Connect(cfg)
	if err != nil {
		return nil, err
	}

	logger.Debug("connected to the DB")

	if cfg.DropTableAtStart {
		logger.Info("DB tables dropped at start")

		if err := db.Migrator().DropTable(Receipt{}, EngineState{}); err != nil {
			return nil, err
		}
	}

	if err := db.AutoMigrate(Receipt{}, EngineState{}); err != nil {
		return nil, err
	}

	logger.Debug("migrated DB entities")

	return &DB{g: db}, nil
}

func Connect(cfg *config.DB) (*gorm.DB, error) {
	dsn := formatDSN(cfg)

	gormLogLevel := getGormLogLevel(cfg)
	gormCfg := gorm.Config{
		Logger:          gormlogger.Default.LogMode(gormLogLevel),
		CreateBatchSize: receiptBatchSize,
	}

	return gorm.Open(postgres.Open(dsn), &gormCfg)
}

func getGormLogLevel(cfg *config.DB) gormlogger.LogLevel {
	if cfg.LogQueries {
		return gormlogger.Info
	}

	return gormlogger.Silent
}

func formatDSN(cfg *config.DB) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.Username, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   cfg.DBName,
	}

	return u.String()
}

func initState() *EngineState {
	return &EngineState{ID: globalStateID}
}

func (db *DB) GetState(ctx context.Context) (*EngineState, error) {
	state := new(EngineState)

	if err := db.g.WithContext(ctx).First(state, globalStateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return initState(), nil
		}

		return nil, err
	}

	return state, nil
}

// SaveReceipts stores a batch of receipts and the engine state in a single
// DB transaction. Re-saving an already stored receipt is a no-op.
func (db *DB) SaveReceipts(ctx context.Context, receipts []*Receipt, state *EngineState) error {
	return db.g.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(receipts) != 0 {
			err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(receipts).
				Error
			if err != nil {
				return err
			}
		}

		if state != nil {
			if err := tx.Save(state).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (db *DB) GetReceipt(ctx context.Context, sender string, sequence uint64) (*Receipt, error) {
	receipt := new(Receipt)

	err := db.g.WithContext(ctx).
		Where(&Receipt{Sender: sender, Sequence: sequence}).
		First(receipt).
		Error
	if err != nil {
		return nil, errors.Wrapf(err, "receipt for sender %s sequence %d", sender, sequence)
	}

	return receipt, nil
}
