package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/chainms/internal/db"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LocalBackend 在 sqlite 中模拟页面合约的 (owner, identifier) -> data 映射，
// 用于本地开发和测试。写入方始终取自签名交易恢复出的发送者地址。
type LocalBackend struct {
	db       *gorm.DB
	contract common.Address
	chainID  *big.Int
	abi      abi.ABI
}

// NewLocalBackend emulates the page contract at contract on chainID.
func NewLocalBackend(gdb *gorm.DB, contract common.Address, chainID uint64) *LocalBackend {
	return &LocalBackend{
		db:       gdb,
		contract: contract,
		chainID:  new(big.Int).SetUint64(chainID),
		abi:      PageContractABI,
	}
}

func (b *LocalBackend) CallContract(ctx context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	method, args, err := b.decode(call.To, call.Data)
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "retrieve", "addressesData":
		owner := args[0].(common.Address)
		identifier := args[1].(string)

		var entry db.ContractEntry
		err := b.db.WithContext(ctx).
			Where("owner = ? AND identifier = ?", owner.Hex(), identifier).
			First(&entry).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return method.Outputs.Pack(entry.Data)
	default:
		return nil, fmt.Errorf("%w: %s is not a view function", ErrUnsupportedCall, method.Name)
	}
}

// Transact signs the call with wallet and applies it as the recovered sender.
func (b *LocalBackend) Transact(ctx context.Context, wallet Wallet, to common.Address, data []byte) (common.Hash, error) {
	method, args, err := b.decode(&to, data)
	if err != nil {
		return common.Hash{}, err
	}
	if method.Name != "store" {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrUnsupportedCall, method.Name)
	}

	from := wallet.Address()
	var nonce int64
	if err := b.db.WithContext(ctx).Model(&db.LocalTransaction{}).Where("sender = ?", from.Hex()).Count(&nonce).Error; err != nil {
		return common.Hash{}, err
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   b.chainID,
		Nonce:     uint64(nonce),
		GasTipCap: big.NewInt(0),
		GasFeeCap: big.NewInt(0),
		Gas:       100_000,
		To:        &to,
		Data:      data,
	})
	signed, err := wallet.SignTx(ctx, tx, b.chainID)
	if err != nil {
		return common.Hash{}, err
	}
	if signed.ChainId().Cmp(b.chainID) != 0 {
		return common.Hash{}, fmt.Errorf("%w: signed for chain %s", ErrWrongNetwork, signed.ChainId())
	}
	sender, err := types.Sender(types.LatestSignerForChainID(b.chainID), signed)
	if err != nil {
		return common.Hash{}, fmt.Errorf("recover sender: %w", err)
	}

	identifier := args[0].(string)
	payload := args[1].(string)
	hash := signed.Hash()

	err = b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := db.ContractEntry{
			Owner:      sender.Hex(),
			Identifier: identifier,
			Data:       payload,
			TxHash:     hash.Hex(),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner"}, {Name: "identifier"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "tx_hash", "updated_at"}),
		}).Create(&entry).Error; err != nil {
			return err
		}
		return tx.Create(&db.LocalTransaction{
			Hash:   hash.Hex(),
			Sender: sender.Hex(),
			Nonce:  uint64(nonce),
			Method: method.Name,
		}).Error
	})
	if err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

func (b *LocalBackend) decode(to *common.Address, data []byte) (*abi.Method, []interface{}, error) {
	if to == nil || *to != b.contract {
		return nil, nil, fmt.Errorf("%w: only the page contract is emulated", ErrUnsupportedCall)
	}
	if len(data) < 4 {
		return nil, nil, fmt.Errorf("%w: missing method selector", ErrUnsupportedCall)
	}
	method, err := b.abi.MethodById(data[:4])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnsupportedCall, err)
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, err
	}
	return method, args, nil
}
