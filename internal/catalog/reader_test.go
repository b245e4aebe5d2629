package catalog

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/events"
)

type fakeRepository struct {
	items   map[string]MenuItem
	order   []string
	listErr error
	getErr  error
	gets    int
	// hang makes GetMenuItem wait for its context.
	hang bool
}

func newFakeRepository(items ...MenuItem) *fakeRepository {
	f := &fakeRepository{items: map[string]MenuItem{}}
	for _, it := range items {
		f.items[it.ID] = it
		f.order = append(f.order, it.ID)
	}
	return f
}

func (f *fakeRepository) ListMenuItems(ctx context.Context) ([]MenuItem, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []MenuItem{}
	for _, id := range f.order {
		if it, ok := f.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeRepository) GetMenuItem(ctx context.Context, id string) (MenuItem, error) {
	f.gets++
	if f.hang {
		<-ctx.Done()
		return MenuItem{}, ctx.Err()
	}
	if f.getErr != nil {
		return MenuItem{}, f.getErr
	}
	it, ok := f.items[id]
	if !ok {
		return MenuItem{}, ErrNotFound
	}
	return it, nil
}

func (f *fakeRepository) ListActiveCrusts(ctx context.Context) ([]CrustOption, error) {
	return []CrustOption{{ID: "catupiry", Name: "Catupiry", Price: decimal.NewFromInt(6), IsActive: true}}, nil
}

func (f *fakeRepository) GetCrust(ctx context.Context, id string) (CrustOption, error) {
	if id == "catupiry" {
		return CrustOption{ID: "catupiry", Name: "Catupiry", Price: decimal.NewFromInt(6), IsActive: true}, nil
	}
	return CrustOption{}, ErrNotFound
}

func item(id string, price string) MenuItem {
	return MenuItem{ID: id, Name: id, Price: decimal.RequireFromString(price), Category: "Tradicionais", Available: true}
}

func newTestReader(t *testing.T, repo Repository) *Reader {
	t.Helper()
	r := NewReader(repo, log.New(io.Discard, "", 0), time.Second)
	require.NoError(t, r.Load(context.Background()))
	return r
}

func TestReaderLoad(t *testing.T) {
	repo := newFakeRepository(item("calabresa", "45.90"), item("margherita", "49.90"))
	r := newTestReader(t, repo)

	menu := r.Menu()
	require.Len(t, menu, 2)
	got, ok := r.Item("margherita")
	require.True(t, ok)
	require.Equal(t, "margherita", got.ID)

	_, ok = r.Item("missing")
	require.False(t, ok)
}

func TestReaderLoadError(t *testing.T) {
	repo := newFakeRepository()
	repo.listErr = errors.New("db down")

	r := NewReader(repo, log.New(io.Discard, "", 0), time.Second)
	require.Error(t, r.Load(context.Background()))
}

func TestReaderRefresh(t *testing.T) {
	tests := map[string]struct {
		mutate   func(f *fakeRepository)
		id       string
		wantLen  int
		wantItem *MenuItem
		wantErr  bool
	}{
		"price change replaces in place": {
			mutate:   func(f *fakeRepository) { f.items["calabresa"] = item("calabresa", "47.90") },
			id:       "calabresa",
			wantLen:  2,
			wantItem: ptr(item("calabresa", "47.90")),
		},
		"deleted row is dropped": {
			mutate:  func(f *fakeRepository) { delete(f.items, "calabresa") },
			id:      "calabresa",
			wantLen: 1,
		},
		"new row is added": {
			mutate: func(f *fakeRepository) {
				f.items["portuguesa"] = item("portuguesa", "52.90")
			},
			id:       "portuguesa",
			wantLen:  3,
			wantItem: ptr(item("portuguesa", "52.90")),
		},
		"unknown and missing is a no-op": {
			mutate:  func(f *fakeRepository) {},
			id:      "ghost",
			wantLen: 2,
		},
		"store failure keeps menu": {
			mutate:  func(f *fakeRepository) { f.getErr = errors.New("timeout") },
			id:      "calabresa",
			wantLen: 2,
			wantErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			repo := newFakeRepository(item("calabresa", "45.90"), item("margherita", "49.90"))
			r := newTestReader(t, repo)
			tt.mutate(repo)

			err := r.Refresh(context.Background(), tt.id)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			require.Len(t, r.Menu(), tt.wantLen)
			if tt.wantItem != nil {
				got, ok := r.Item(tt.id)
				require.True(t, ok)
				require.True(t, tt.wantItem.Price.Equal(got.Price))
			}
			_, ok := r.Item("margherita")
			require.True(t, ok, "index must stay consistent")
		})
	}
}

func TestReaderWatchAppliesMenuChangesOnly(t *testing.T) {
	repo := newFakeRepository(item("calabresa", "45.90"))
	r := newTestReader(t, repo)
	repo.items["calabresa"] = item("calabresa", "50.00")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan events.Change, 3)
	changes <- events.Change{Table: events.TableOrders, Op: events.OpInsert, RowID: "calabresa"}
	changes <- events.Change{Table: events.TableMenuItems, Op: events.OpUpdate}
	changes <- events.Change{Table: events.TableMenuItems, Op: events.OpUpdate, RowID: "calabresa"}
	close(changes)

	done := make(chan struct{})
	go func() {
		r.Watch(ctx, changes)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watch did not return after feed closed")
	}

	require.Equal(t, 1, repo.gets)
	got, _ := r.Item("calabresa")
	require.True(t, decimal.NewFromInt(50).Equal(got.Price))
}

func TestReaderRefreshKeepsMenuOrder(t *testing.T) {
	tests := map[string]struct {
		change MenuItem
		want   []string
	}{
		"new pizza between existing ones": {
			change: item("frango", "48.90"),
			want:   []string{"calabresa", "frango", "margherita"},
		},
		"new category sorts first": {
			change: MenuItem{ID: "guarana", Name: "Guaraná 2L", Category: "Bebidas", Price: decimal.NewFromInt(12), Available: true},
			want:   []string{"guarana", "calabresa", "margherita"},
		},
		"renamed item moves": {
			change: MenuItem{ID: "calabresa", Name: "napolitana", Category: "Tradicionais", Price: decimal.NewFromInt(46), Available: true},
			want:   []string{"margherita", "calabresa"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			repo := newFakeRepository(item("calabresa", "45.90"), item("margherita", "49.90"))
			r := newTestReader(t, repo)
			repo.items[tt.change.ID] = tt.change

			require.NoError(t, r.Refresh(context.Background(), tt.change.ID))

			var got []string
			for _, it := range r.Menu() {
				got = append(got, it.ID)
			}
			require.Equal(t, tt.want, got)
			for _, id := range tt.want {
				it, ok := r.Item(id)
				require.True(t, ok)
				require.Equal(t, id, it.ID)
			}
		})
	}
}

func TestReaderWatchBoundsEachRefetch(t *testing.T) {
	repo := newFakeRepository(item("calabresa", "45.90"))
	r := NewReader(repo, log.New(io.Discard, "", 0), 20*time.Millisecond)
	require.NoError(t, r.Load(context.Background()))
	repo.hang = true

	changes := make(chan events.Change, 1)
	changes <- events.Change{Table: events.TableMenuItems, Op: events.OpUpdate, RowID: "calabresa"}
	close(changes)

	done := make(chan struct{})
	go func() {
		r.Watch(context.Background(), changes)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refetch was not bounded by the store timeout")
	}
	_, ok := r.Item("calabresa")
	require.True(t, ok)
}

func TestReaderCrusts(t *testing.T) {
	r := newTestReader(t, newFakeRepository())

	crusts, err := r.Crusts(context.Background())
	require.NoError(t, err)
	require.Len(t, crusts, 1)

	_, err = r.Crust(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}
