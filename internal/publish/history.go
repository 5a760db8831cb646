package publish

import (
	"context"

	"github.com/chainms/internal/db"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// Recorder receives every settled publish.
type Recorder interface {
	Record(ctx context.Context, owner common.Address, identifier string, status Status, chainID uint64) error
}

// History 把已结束的发布结果写入 publish_records 表。
type History struct {
	db *gorm.DB
}

// NewHistory returns a History backed by gdb.
func NewHistory(gdb *gorm.DB) *History {
	return &History{db: gdb}
}

func (h *History) Record(ctx context.Context, owner common.Address, identifier string, status Status, chainID uint64) error {
	record := db.PublishRecord{
		Owner:      owner.Hex(),
		Identifier: identifier,
		State:      string(status.State),
		Category:   string(status.Category),
		Message:    status.Message,
		TxHash:     status.TxHashHex(),
		ChainID:    chainID,
	}
	return h.db.WithContext(ctx).Create(&record).Error
}

// Recent returns up to limit records for the page, newest first.
func (h *History) Recent(ctx context.Context, owner common.Address, identifier string, limit int) ([]db.PublishRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	var records []db.PublishRecord
	err := h.db.WithContext(ctx).
		Where("owner = ? AND identifier = ?", owner.Hex(), identifier).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
