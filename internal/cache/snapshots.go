package cache

import (
	"fmt"
	"time"

	"github.com/starford/orgtasks/internal/apperr"
	"github.com/starford/orgtasks/internal/models"
)

// Snapshots maps a session key to its most recent listing.
type Snapshots struct {
	store *Store[[]models.IndexedTask]
}

// NewSnapshots creates an empty snapshot cache.
func NewSnapshots(ttl time.Duration, now func() time.Time) *Snapshots {
	return &Snapshots{store: NewStore[[]models.IndexedTask](ttl, now)}
}

// Store replaces key's listing. Display indexes are position+1.
func (c *Snapshots) Store(key string, tasks []models.Task) []models.IndexedTask {
	indexed := make([]models.IndexedTask, len(tasks))
	for i, t := range tasks {
		indexed[i] = models.IndexedTask{Index: i + 1, Task: t}
	}
	c.store.Put(key, indexed)
	return indexed
}

// Resolve returns the task shown at display index n in key's last listing.
func (c *Snapshots) Resolve(key string, n int) (models.Task, error) {
	list, ok := c.store.Get(key)
	if !ok {
		return models.Task{}, fmt.Errorf("%w: no listing for this session", apperr.ErrSnapshotNotFound)
	}
	if n < 1 || n > len(list) {
		return models.Task{}, fmt.Errorf("%w: %d (listing has %d)", apperr.ErrSnapshotNotFound, n, len(list))
	}
	return list[n-1].Task, nil
}

// Clear forgets key's listing.
func (c *Snapshots) Clear(key string) { c.store.Delete(key) }

// Sweep evicts stale listings.
func (c *Snapshots) Sweep() int { return c.store.Sweep() }
