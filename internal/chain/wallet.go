package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet is a connected account able to sign transactions. The chain id is the network the
// wallet is currently switched to, which may differ from the contract's network.
type Wallet interface {
	Address() common.Address
	ChainID() uint64
	SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// Mode 表示钱包的连接方式。
type Mode string

const (
	// ModeKeystore 使用本地 keystore 账户，可以签名交易。
	ModeKeystore Mode = "keystore"
	// ModeSignature 仅通过 personal_sign 证明地址所有权，不具备签名交易能力。
	ModeSignature Mode = "signature"
)

// Connection is the wallet state of one browser session. It is rebuilt from the session on
// every request and passed explicitly to whoever needs it.
type Connection struct {
	Address common.Address
	ChainID uint64
	Mode    Mode
}

// CanSign reports whether the connection can produce a signing wallet.
func (c *Connection) CanSign() bool {
	return c != nil && c.Mode == ModeKeystore
}

// ShortAddress renders 0x1234...abcd.
func ShortAddress(addr common.Address) string {
	hex := addr.Hex()
	return hex[:6] + "..." + hex[len(hex)-4:]
}

// KeyWallet signs with an in-memory private key.
type KeyWallet struct {
	key     *ecdsa.PrivateKey
	chainID uint64
}

// NewKeyWallet wraps key as a Wallet switched to chainID.
func NewKeyWallet(key *ecdsa.PrivateKey, chainID uint64) *KeyWallet {
	return &KeyWallet{key: key, chainID: chainID}
}

func (w *KeyWallet) Address() common.Address { return crypto.PubkeyToAddress(w.key.PublicKey) }

func (w *KeyWallet) ChainID() uint64 { return w.chainID }

func (w *KeyWallet) SignTx(_ context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), w.key)
}

// Keystore exposes the accounts of a go-ethereum keystore directory.
type Keystore struct {
	ks *keystore.KeyStore
}

// OpenKeystore opens (or creates) the keystore directory.
func OpenKeystore(dir string) *Keystore {
	return openKeystore(dir, keystore.StandardScryptN, keystore.StandardScryptP)
}

func openKeystore(dir string, scryptN, scryptP int) *Keystore {
	return &Keystore{ks: keystore.NewKeyStore(dir, scryptN, scryptP)}
}

// NewAccount creates a new encrypted account and returns its address.
func (k *Keystore) NewAccount(passphrase string) (common.Address, error) {
	account, err := k.ks.NewAccount(passphrase)
	if err != nil {
		return common.Address{}, err
	}
	return account.Address, nil
}

// Accounts lists the addresses stored in the keystore.
func (k *Keystore) Accounts() []common.Address {
	list := k.ks.Accounts()
	out := make([]common.Address, 0, len(list))
	for _, a := range list {
		out = append(out, a.Address)
	}
	return out
}

// Verify checks passphrase against the stored key for addr. The key is decrypted once and
// never left unlocked.
func (k *Keystore) Verify(addr common.Address, passphrase string) error {
	account, err := k.ks.Find(accounts.Account{Address: addr})
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, addr.Hex())
	}
	_, err = k.ks.SignHashWithPassphrase(account, passphrase, crypto.Keccak256([]byte(addr.Hex())))
	return err
}

// Wallet returns a signing wallet for addr. The passphrase is the user's confirmation of the
// signing request; an empty passphrase is treated as a rejection when signing.
func (k *Keystore) Wallet(addr common.Address, chainID uint64, passphrase string) (Wallet, error) {
	account, err := k.ks.Find(accounts.Account{Address: addr})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, addr.Hex())
	}
	return &keystoreWallet{ks: k.ks, account: account, chainID: chainID, passphrase: passphrase}, nil
}

type keystoreWallet struct {
	ks         *keystore.KeyStore
	account    accounts.Account
	chainID    uint64
	passphrase string
}

func (w *keystoreWallet) Address() common.Address { return w.account.Address }

func (w *keystoreWallet) ChainID() uint64 { return w.chainID }

func (w *keystoreWallet) SignTx(_ context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if w.passphrase == "" {
		return nil, ErrUserRejected
	}
	signed, err := w.ks.SignTxWithPassphrase(w.account, w.passphrase, tx, chainID)
	if err != nil {
		if errors.Is(err, keystore.ErrDecrypt) {
			return nil, fmt.Errorf("%w: %w", ErrUserRejected, err)
		}
		return nil, err
	}
	return signed, nil
}

// RecoverPersonalSigner returns the address that produced an EIP-191 personal_sign
// signature over message.
func RecoverPersonalSigner(message, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(strings.TrimSpace(signature))
	if err != nil {
		return common.Address{}, fmt.Errorf("decode signature: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
