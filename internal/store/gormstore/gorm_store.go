package gormstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mt5bot/internal/store"
	storemodel "mt5bot/internal/store/model"
	"mt5bot/internal/types"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type positionModel = storemodel.PositionModel
type orderModel = storemodel.OrderModel
type tradeModel = storemodel.TradeModel
type operationLogModel = storemodel.OperationLogModel

// GormStore implements the ledger on Gorm + SQLite.
type GormStore struct {
	db    *gorm.DB
	nowFn func() time.Time
}

var _ store.Ledger = (*GormStore)(nil)

func New(path string) (*GormStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("gorm store: database path cannot be empty")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	models := []interface{}{
		&positionModel{},
		&orderModel{},
		&tradeModel{},
		&operationLogModel{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: the trading loop is the single writer, keep the pool tiny.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &GormStore{db: db, nowFn: time.Now}, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *GormStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Apply mutates the ledger with one confirmed transition. NewTrade is the
// only compound change: the position row is removed and the trade row
// inserted inside a single transaction.
func (s *GormStore) Apply(ctx context.Context, t store.Transition) error {
	switch tr := t.(type) {
	case store.NewPosition:
		return s.withLog(ctx, t, tr.Ticket, func(tx *gorm.DB) error {
			return tx.Create(positionFromRecord(store.PositionRecord(tr))).Error
		})
	case store.NewTrade:
		return s.withLog(ctx, t, tr.Ticket, func(tx *gorm.DB) error {
			if err := tx.Where("ticket = ?", tr.Ticket).Delete(&positionModel{}).Error; err != nil {
				return err
			}
			return tx.Create(tradeFromRecord(store.TradeRecord(tr))).Error
		})
	case store.NewPendingOrder:
		return s.withLog(ctx, t, tr.Ticket, func(tx *gorm.DB) error {
			return tx.Create(orderFromRecord(store.OrderRecord(tr))).Error
		})
	case store.CancelPendingOrder:
		return s.withLog(ctx, t, tr.Ticket, func(tx *gorm.DB) error {
			return tx.Where("ticket = ?", tr.Ticket).Delete(&orderModel{}).Error
		})
	case store.DeletePosition:
		return s.withLog(ctx, t, tr.Ticket, func(tx *gorm.DB) error {
			return tx.Where("ticket = ?", tr.Ticket).Delete(&positionModel{}).Error
		})
	default:
		return fmt.Errorf("gorm store: unknown transition %T", t)
	}
}

func (s *GormStore) withLog(ctx context.Context, t store.Transition, ticket int64, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(tx); err != nil {
			return err
		}
		details, err := json.Marshal(t)
		if err != nil {
			details = []byte("{}")
		}
		row := operationLogModel{
			Kind:      transitionKind(t),
			Ticket:    ticket,
			Details:   datatypes.JSON(details),
			Timestamp: s.nowFn().Unix(),
		}
		return tx.Create(&row).Error
	})
}

func transitionKind(t store.Transition) string {
	switch t.(type) {
	case store.NewPosition:
		return "new_position"
	case store.NewTrade:
		return "new_trade"
	case store.NewPendingOrder:
		return "new_pending_order"
	case store.CancelPendingOrder:
		return "cancel_pending_order"
	case store.DeletePosition:
		return "delete_position"
	}
	return "unknown"
}

func (s *GormStore) Positions(ctx context.Context) ([]store.PositionRecord, error) {
	var rows []positionModel
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	return positionsToRecords(rows), nil
}

func (s *GormStore) Orders(ctx context.Context) ([]store.OrderRecord, error) {
	var rows []orderModel
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	return ordersToRecords(rows), nil
}

func (s *GormStore) PositionsFor(ctx context.Context, key types.StrategyKey) ([]store.PositionRecord, error) {
	var rows []positionModel
	err := s.db.WithContext(ctx).
		Where("symbol = ? AND timeframe = ? AND strategy = ?", key.Symbol, string(key.Timeframe), key.Strategy).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return positionsToRecords(rows), nil
}

func (s *GormStore) OrdersFor(ctx context.Context, key types.StrategyKey) ([]store.OrderRecord, error) {
	var rows []orderModel
	err := s.db.WithContext(ctx).
		Where("symbol = ? AND timeframe = ? AND strategy = ?", key.Symbol, string(key.Timeframe), key.Strategy).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return ordersToRecords(rows), nil
}

// TradesOpenedOn filters in Go rather than SQL: open_time is stored as a
// local-clock string and the day boundary is a local-calendar rule.
func (s *GormStore) TradesOpenedOn(ctx context.Context, day time.Time) ([]store.TradeRecord, error) {
	var rows []tradeModel
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]store.TradeRecord, 0, len(rows))
	for _, row := range rows {
		opened := types.ParseTime(row.OpenTime)
		if opened.IsZero() || !types.SameLocalDay(opened, day) {
			continue
		}
		out = append(out, tradeToRecord(row))
	}
	return out, nil
}
