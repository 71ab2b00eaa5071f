package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// StockLedger keeps an append-only history of stock movements in MySQL.
type StockLedger struct {
	db *gorm.DB
}

func NewStockLedger(cfg *config.MySQLConfig) (*StockLedger, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.StockMovement{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return &StockLedger{db: db}, nil
}

// Record writes all movements in one transaction.
func (l *StockLedger) Record(ctx context.Context, movements []models.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&movements).Error; err != nil {
			return fmt.Errorf("record stock movements: %w", err)
		}
		return nil
	})
}

// ListByProduct returns the newest movements of one product first.
func (l *StockLedger) ListByProduct(ctx context.Context, productID string, limit int) ([]models.StockMovement, error) {
	if limit <= 0 {
		limit = 50
	}
	movements := make([]models.StockMovement, 0)
	err := l.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&movements).Error
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	return movements, nil
}

func (l *StockLedger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
