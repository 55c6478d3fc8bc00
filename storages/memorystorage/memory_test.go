package memorystorage_test

import (
	"context"
	"sync"
	"testing"

	"github.com/adamluzsi/persistroute/iterators"
	"github.com/adamluzsi/persistroute/storages"
	"github.com/adamluzsi/persistroute/storages/memorystorage"
	"github.com/adamluzsi/persistroute/storages/storagecontracts"
	uuid "github.com/satori/go.uuid"
	"go.llib.dev/testcase/assert"
)

var _ storages.Store = &memorystorage.Memory{}

func TestMemory(t *testing.T) {
	storagecontracts.Store{
		Subject: func(tb testing.TB) storages.Store { return memorystorage.NewMemory() },
	}.Test(t)
}

func TestMemory_identifiersAreUUIDs(t *testing.T) {
	m := memorystorage.NewMemory()
	note := storagecontracts.NewNote()
	assert.NoError(t, m.Save(context.Background(), storagecontracts.Notes, note))
	_, err := uuid.FromString(note.ID)
	assert.NoError(t, err)
}

func TestMemory_concurrentSaves(t *testing.T) {
	var (
		m   = memorystorage.NewMemory()
		ctx = context.Background()
		wg  sync.WaitGroup
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.Save(ctx, storagecontracts.Notes, storagecontracts.NewNote()))
		}()
	}
	wg.Wait()

	all, err := iterators.Collect(m.FindAll(ctx, storagecontracts.Notes))
	assert.NoError(t, err)
	assert.Equal(t, 32, len(all))
}
