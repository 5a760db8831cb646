package publish

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/chainms/internal/db"
	"github.com/chainms/internal/page"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestManagerReusesAndEvicts(t *testing.T) {
	store := newFakeStore()
	manager := NewManager(func() *Session { return NewSession(store, "Optimism", 10, nil) }, time.Minute)
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return clock }

	first := manager.Begin("browser-a", page.NewIdentity("owner.eth", "home"))
	assert.Same(t, first, manager.Acquire("browser-a"))
	manager.Acquire("browser-b")
	assert.Equal(t, 2, manager.Len())

	clock = clock.Add(2 * time.Minute)
	manager.Acquire("browser-b")
	_, ok := manager.Lookup("browser-a")
	assert.False(t, ok)
	assert.Equal(t, 1, manager.Len())

	manager.End("browser-b")
	assert.Zero(t, manager.Len())
}

func TestManagerKeepsPublishingSessions(t *testing.T) {
	store := newFakeStore()
	store.release = make(chan struct{})
	manager := NewManager(func() *Session { return NewSession(store, "Optimism", 10, nil) }, time.Minute)
	clock := time.Now()
	manager.now = func() time.Time { return clock }

	session := manager.Begin("browser-a", page.NewIdentity("owner.eth", "home"))
	require.NoError(t, session.Publish(context.Background(), newWallet(t), page.EmptyDocument()))

	clock = clock.Add(time.Hour)
	manager.Acquire("browser-b")
	_, ok := manager.Lookup("browser-a")
	assert.True(t, ok)

	close(store.release)
	require.NoError(t, session.Wait(context.Background()))
}

func TestNewEditorIDIsUnique(t *testing.T) {
	assert.NotEqual(t, NewEditorID(), NewEditorID())
}

func TestHistoryRecent(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "history.db")), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	history := NewHistory(gdb)
	owner := common.HexToAddress("0x66F01B8aCF9850774946CeA885f607BA8Af995e6")
	ctx := context.Background()

	require.NoError(t, history.Record(ctx, owner, "home", Status{State: StateError, Category: CategoryCancelled}, 10))
	require.NoError(t, history.Record(ctx, owner, "home", Status{State: StateSuccess, TxHash: common.HexToHash("0x01")}, 10))
	require.NoError(t, history.Record(ctx, owner, "other", Status{State: StateSuccess}, 10))

	records, err := history.Recent(ctx, owner, "home", 5)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "success", records[0].State)
	assert.Equal(t, common.HexToHash("0x01").Hex(), records[0].TxHash)
	assert.Equal(t, "cancelled", records[1].Category)
}
