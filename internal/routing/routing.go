// Package routing maps partition key hashes to partitions.
package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/epkroute/epkroute-go/hashrange"
	"github.com/epkroute/epkroute-go/pkhash"
)

var (
	// ErrPartitionNotFound is returned when no partition matches an id or hash.
	ErrPartitionNotFound = errors.New("routing: partition not found")

	// ErrDuplicatePartition is returned when two partitions share an id.
	ErrDuplicatePartition = errors.New("routing: duplicate partition id")

	// ErrNoProvider is returned by Refresh when the map has no Provider.
	ErrNoProvider = errors.New("routing: no partition provider")
)

// Partition is a named range of the hash space.
type Partition struct {
	ID    string
	Range hashrange.Range
}

// Provider supplies the authoritative partition layout, typically from the
// service that owns the partitions.
type Provider interface {
	Partitions(ctx context.Context) ([]Partition, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) ([]Partition, error)

// Partitions calls f.
func (f ProviderFunc) Partitions(ctx context.Context) ([]Partition, error) { return f(ctx) }

// ChangeFunc is called after the layout changes, outside any lock.
type ChangeFunc func(epoch uint64, added, removed []string)

// Options configures a Map.
type Options struct {
	Provider Provider
	Logger   *slog.Logger
	OnChange ChangeFunc
}

// Map holds the current routing snapshot. Readers share immutable
// snapshots; every change swaps in a new one and bumps the epoch.
type Map struct {
	mu       sync.RWMutex
	current  *Snapshot
	provider Provider
	onChange ChangeFunc
	logger   *slog.Logger

	// Single-flight for refreshes
	refreshGroup singleflight.Group
}

// NewMap validates partitions and builds a map at epoch 1.
func NewMap(partitions []Partition, opts Options) (*Map, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	snap, err := newSnapshot(1, partitions)
	if err != nil {
		return nil, err
	}
	logger.Debug("routing map created", "epoch", snap.epoch, "partitions", snap.Len())
	return &Map{
		current:  snap,
		provider: opts.Provider,
		onChange: opts.OnChange,
		logger:   logger,
	}, nil
}

// Snapshot returns the current snapshot.
func (m *Map) Snapshot() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Epoch returns the current epoch.
func (m *Map) Epoch() uint64 {
	return m.Snapshot().epoch
}

// Lookup returns the partition that owns h.
func (m *Map) Lookup(h pkhash.Hash) (Partition, error) {
	return m.Snapshot().Lookup(h)
}

// Overlapping returns the partitions that intersect r, in range order.
func (m *Map) Overlapping(r hashrange.Range) []Partition {
	return m.Snapshot().Overlapping(r)
}

// Split replaces partition id with n partitions named id.0 to id.(n-1).
func (m *Map) Split(id string, n int) ([]Partition, error) {
	m.mu.Lock()
	cur := m.current
	idx, ok := cur.index[id]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrPartitionNotFound, id)
	}

	pieces, outcome := hashrange.TrySplit(cur.ranges.At(idx), n)
	if outcome != hashrange.SplitSuccess {
		m.mu.Unlock()
		return nil, fmt.Errorf("split %s into %d: %w: %s", id, n, hashrange.ErrInvalidRange, outcome)
	}
	children := make([]Partition, pieces.Len())
	for i := range children {
		children[i] = Partition{ID: id + "." + strconv.Itoa(i), Range: pieces.At(i)}
	}

	next, err := cur.replace([]string{id}, children)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.current = next
	m.mu.Unlock()

	added := ids(children)
	m.logger.Info("partition split", "partition", id, "pieces", n, "epoch", next.epoch)
	m.notify(next.epoch, added, []string{id})
	return children, nil
}

// Merge replaces contiguous partitions with one partition whose id joins
// theirs with "+" in range order.
func (m *Map) Merge(partitionIDs ...string) (Partition, error) {
	if len(partitionIDs) < 2 {
		return Partition{}, fmt.Errorf("%w: merge needs at least two partitions", hashrange.ErrInvalidRanges)
	}

	m.mu.Lock()
	cur := m.current
	ranges := make([]hashrange.Range, 0, len(partitionIDs))
	for _, id := range partitionIDs {
		idx, ok := cur.index[id]
		if !ok {
			m.mu.Unlock()
			return Partition{}, fmt.Errorf("%w: %s", ErrPartitionNotFound, id)
		}
		ranges = append(ranges, cur.ranges.At(idx))
	}
	set, err := hashrange.Create(ranges)
	if err != nil {
		m.mu.Unlock()
		return Partition{}, fmt.Errorf("merge %s: %w", strings.Join(partitionIDs, ","), err)
	}

	// Name the result in range order, independent of argument order.
	members := make([]Partition, len(partitionIDs))
	for i, id := range partitionIDs {
		members[i] = Partition{ID: id, Range: ranges[i]}
	}
	sortByRange(members)
	ordered := ids(members)
	merged := Partition{ID: strings.Join(ordered, "+"), Range: hashrange.Merge(set)}

	next, err := cur.replace(partitionIDs, []Partition{merged})
	if err != nil {
		m.mu.Unlock()
		return Partition{}, err
	}
	m.current = next
	m.mu.Unlock()

	m.logger.Info("partitions merged", "partitions", ordered, "partition", merged.ID, "epoch", next.epoch)
	m.notify(next.epoch, []string{merged.ID}, ordered)
	return merged, nil
}

// Refresh loads the layout from the Provider. Concurrent calls share one
// load. The epoch only moves when the layout actually changed.
func (m *Map) Refresh(ctx context.Context) (*Snapshot, error) {
	if m.provider == nil {
		return nil, ErrNoProvider
	}

	result, err, shared := m.refreshGroup.Do("refresh", func() (interface{}, error) {
		return m.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		m.logger.Debug("routing refresh shared")
	}
	return result.(*Snapshot), nil
}

func (m *Map) refresh(ctx context.Context) (*Snapshot, error) {
	partitions, err := m.provider.Partitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh partitions: %w", err)
	}

	m.mu.Lock()
	cur := m.current
	next, err := newSnapshot(cur.epoch+1, partitions)
	if err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("refresh partitions: %w", err)
	}
	if next.fingerprint == cur.fingerprint {
		m.mu.Unlock()
		m.logger.Debug("routing unchanged", "epoch", cur.epoch)
		return cur, nil
	}
	m.current = next
	m.mu.Unlock()

	added, removed := diff(cur, next)
	m.logger.Info("routing refreshed", "epoch", next.epoch, "partitions", next.Len(), "added", len(added), "removed", len(removed))
	m.notify(next.epoch, added, removed)
	return next, nil
}

func (m *Map) notify(epoch uint64, added, removed []string) {
	if m.onChange != nil {
		m.onChange(epoch, added, removed)
	}
}

func sortByRange(partitions []Partition) {
	sort.SliceStable(partitions, func(i, j int) bool {
		return partitions[i].Range.Compare(partitions[j].Range) < 0
	})
}

func ids(partitions []Partition) []string {
	out := make([]string, len(partitions))
	for i, p := range partitions {
		out[i] = p.ID
	}
	return out
}

// diff returns the partitions whose id or range differ between snapshots.
func diff(prev, next *Snapshot) (added, removed []string) {
	for _, p := range next.Partitions() {
		if i, ok := prev.index[p.ID]; !ok || !prev.ranges.At(i).Equal(p.Range) {
			added = append(added, p.ID)
		}
	}
	for _, p := range prev.Partitions() {
		if i, ok := next.index[p.ID]; !ok || !next.ranges.At(i).Equal(p.Range) {
			removed = append(removed, p.ID)
		}
	}
	return added, removed
}

// Snapshot is an immutable routing layout.
type Snapshot struct {
	epoch       uint64
	ranges      hashrange.Ranges
	ids         []string // parallel to ranges
	index       map[string]int
	fingerprint uint64
}

func newSnapshot(epoch uint64, partitions []Partition) (*Snapshot, error) {
	sorted := make([]Partition, len(partitions))
	copy(sorted, partitions)
	sortByRange(sorted)

	byRange := make([]hashrange.Range, len(sorted))
	index := make(map[string]int, len(sorted))
	ids := make([]string, len(sorted))
	for i, p := range sorted {
		if _, dup := index[p.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePartition, p.ID)
		}
		index[p.ID] = i
		ids[i] = p.ID
		byRange[i] = p.Range
	}
	ranges, err := hashrange.Create(byRange)
	if err != nil {
		return nil, err
	}

	s := &Snapshot{
		epoch:  epoch,
		ranges: ranges,
		ids:    ids,
		index:  index,
	}

	d := xxhash.New()
	for i := 0; i < ranges.Len(); i++ {
		_, _ = d.WriteString(s.ids[i])
		_, _ = d.WriteString("=")
		_, _ = d.WriteString(ranges.At(i).String())
		_, _ = d.WriteString(";")
	}
	s.fingerprint = d.Sum64()
	return s, nil
}

// replace builds the next snapshot with removed partitions swapped for added.
func (s *Snapshot) replace(removed []string, added []Partition) (*Snapshot, error) {
	drop := make(map[string]bool, len(removed))
	for _, id := range removed {
		drop[id] = true
	}
	partitions := make([]Partition, 0, len(s.ids)+len(added))
	for _, p := range s.Partitions() {
		if !drop[p.ID] {
			partitions = append(partitions, p)
		}
	}
	partitions = append(partitions, added...)
	return newSnapshot(s.epoch+1, partitions)
}

// Epoch returns the snapshot's epoch.
func (s *Snapshot) Epoch() uint64 { return s.epoch }

// Fingerprint is an xxhash over partition ids and ranges. Equal layouts
// have equal fingerprints.
func (s *Snapshot) Fingerprint() uint64 { return s.fingerprint }

// Len returns the number of partitions.
func (s *Snapshot) Len() int { return len(s.ids) }

// Ranges returns the validated range set.
func (s *Snapshot) Ranges() hashrange.Ranges { return s.ranges }

// Partitions returns the partitions in range order.
func (s *Snapshot) Partitions() []Partition {
	out := make([]Partition, len(s.ids))
	for i, id := range s.ids {
		out[i] = Partition{ID: id, Range: s.ranges.At(i)}
	}
	return out
}

// Get returns the partition with the given id.
func (s *Snapshot) Get(id string) (Partition, bool) {
	i, ok := s.index[id]
	if !ok {
		return Partition{}, false
	}
	return Partition{ID: id, Range: s.ranges.At(i)}, true
}

// Lookup returns the partition that owns h.
func (s *Snapshot) Lookup(h pkhash.Hash) (Partition, error) {
	i, ok := s.ranges.Find(h)
	if !ok {
		return Partition{}, fmt.Errorf("%w: hash %s", ErrPartitionNotFound, h)
	}
	return Partition{ID: s.ids[i], Range: s.ranges.At(i)}, nil
}

// Overlapping returns the partitions that intersect r, in range order.
func (s *Snapshot) Overlapping(r hashrange.Range) []Partition {
	idx := s.ranges.Overlapping(r)
	out := make([]Partition, len(idx))
	for j, i := range idx {
		out[j] = Partition{ID: s.ids[i], Range: s.ranges.At(i)}
	}
	return out
}
