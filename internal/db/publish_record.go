package db

import "gorm.io/gorm"

// PublishRecord keeps the outcome of each settled publish for the editor history panel.
type PublishRecord struct {
	gorm.Model
	Owner      string `gorm:"size:42;not null;index:idx_publish_records_page"`
	Identifier string `gorm:"not null;index:idx_publish_records_page"`
	State      string `gorm:"size:16;not null"`
	Category   string `gorm:"size:32"`
	Message    string
	TxHash     string `gorm:"size:66"`
	ChainID    uint64
}
