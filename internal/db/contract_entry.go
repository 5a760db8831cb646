package db

import "gorm.io/gorm"

// ContractEntry 是本地开发模式下页面合约映射的一行：owner + identifier -> data。
type ContractEntry struct {
	gorm.Model
	Owner      string `gorm:"size:42;not null;uniqueIndex:idx_contract_entries_owner_identifier"`
	Identifier string `gorm:"not null;uniqueIndex:idx_contract_entries_owner_identifier"`
	Data       string `gorm:"type:text"`
	TxHash     string `gorm:"size:66"`
}

// LocalTransaction records a transaction applied by the local contract backend. The per-sender
// row count doubles as the next nonce.
type LocalTransaction struct {
	gorm.Model
	Hash   string `gorm:"size:66;uniqueIndex;not null"`
	Sender string `gorm:"size:42;index;not null"`
	Nonce  uint64
	Method string
}
