package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/events"
)

// Reader keeps the normalized menu in memory and patches single items when
// the store reports that a menu row changed.
type Reader struct {
	repo    Repository
	logger  *log.Logger
	timeout time.Duration

	mu    sync.RWMutex
	items []MenuItem
	index map[string]int
}

// NewReader builds an empty reader. storeTimeout bounds each refetch made
// for a change notification.
func NewReader(repo Repository, logger *log.Logger, storeTimeout time.Duration) *Reader {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &Reader{repo: repo, logger: logger, timeout: storeTimeout, index: map[string]int{}}
}

// Load replaces the in-memory menu with a fresh read of the store.
func (r *Reader) Load(ctx context.Context) error {
	items, err := r.repo.ListMenuItems(ctx)
	if err != nil {
		return fmt.Errorf("load menu: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = items
	r.reindex()
	return nil
}

// Menu returns a copy of the current menu, by category and then name.
func (r *Reader) Menu() []MenuItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MenuItem, len(r.items))
	copy(out, r.items)
	return out
}

func (r *Reader) Item(id string) (MenuItem, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[id]
	if !ok {
		return MenuItem{}, false
	}
	return r.items[i], true
}

// Refresh reloads one item after a live update notification. A row that no
// longer exists is dropped from the menu; any other row lands at its
// category and name position.
func (r *Reader) Refresh(ctx context.Context, id string) error {
	item, err := r.repo.GetMenuItem(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("refresh menu item %s: %w", id, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if i, exists := r.index[id]; exists {
		r.items = append(r.items[:i], r.items[i+1:]...)
	}
	if err == nil {
		at := sort.Search(len(r.items), func(j int) bool { return !menuLess(r.items[j], item) })
		r.items = append(r.items, MenuItem{})
		copy(r.items[at+1:], r.items[at:])
		r.items[at] = item
	}
	r.reindex()
	return nil
}

// menuLess matches the store's listing order.
func menuLess(a, b MenuItem) bool {
	if a.Category != b.Category {
		return a.Category < b.Category
	}
	return a.Name < b.Name
}

// Crusts lists the crusts currently offered, cheapest first.
func (r *Reader) Crusts(ctx context.Context) ([]CrustOption, error) {
	return r.repo.ListActiveCrusts(ctx)
}

func (r *Reader) Crust(ctx context.Context, id string) (CrustOption, error) {
	return r.repo.GetCrust(ctx, id)
}

// Watch applies menu change notifications until ctx is done or changes closes.
func (r *Reader) Watch(ctx context.Context, changes <-chan events.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case ch, ok := <-changes:
			if !ok {
				return
			}
			if ch.Table != events.TableMenuItems || ch.RowID == "" {
				continue
			}
			refreshCtx, cancel := context.WithTimeout(ctx, r.timeout)
			if err := r.Refresh(refreshCtx, ch.RowID); err != nil {
				r.logger.Printf("catalog: %v", err)
			}
			cancel()
		}
	}
}

func (r *Reader) reindex() {
	r.index = make(map[string]int, len(r.items))
	for i, it := range r.items {
		r.index[it.ID] = i
	}
}
