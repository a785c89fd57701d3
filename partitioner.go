package epkroute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/epkroute/epkroute-go/distinct"
	"github.com/epkroute/epkroute-go/element"
	"github.com/epkroute/epkroute-go/hashrange"
	"github.com/epkroute/epkroute-go/internal/routing"
	"github.com/epkroute/epkroute-go/internal/topology"
	"github.com/epkroute/epkroute-go/pkhash"
	"github.com/epkroute/epkroute-go/wide"
)

// LayoutEvent describes one change to the partition layout.
type LayoutEvent = topology.Event

// Partitioner hashes partition keys for one container definition and
// routes them to partitions. Safe for concurrent use.
type Partitioner struct {
	config   *Config
	scheme   pkhash.Scheme
	routes   *routing.Map
	topology *topology.Manager
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a Partitioner. The hashing scheme is chosen once from the
// partition key version, and the hash range is split into
// InitialPartitions partitions named p0, p1, ...
func New(ctx context.Context, config *Config) (*Partitioner, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	scheme, err := pkhash.SchemeFor(config.PartitionKey.Version)
	if err != nil {
		return nil, FromError(err)
	}
	logger := newLogger(config, os.Stderr)

	pieces, outcome := initialRanges(config.PartitionKey.Version, config.InitialPartitions)
	if outcome != hashrange.SplitSuccess {
		return nil, NewInvalidArgumentError(fmt.Sprintf("cannot create %d partitions: %s", config.InitialPartitions, outcome))
	}
	partitions := make([]Partition, pieces.Len())
	ids := make([]string, pieces.Len())
	for i := range partitions {
		ids[i] = "p" + strconv.Itoa(i)
		partitions[i] = Partition{ID: ids[i], Range: pieces.At(i)}
	}

	topoMgr := topology.NewManager(ctx, topology.ManagerOptions{
		InitialPartitions: ids,
		InitialEpoch:      1,
		Logger:            logger,
	})

	routes, err := routing.NewMap(partitions, routing.Options{
		Provider: config.Provider,
		Logger:   logger,
		OnChange: topoMgr.Publish,
	})
	if err != nil {
		topoMgr.Close()
		return nil, FromError(err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p := &Partitioner{
		config:   config,
		scheme:   scheme,
		routes:   routes,
		topology: topoMgr,
		logger:   logger,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	// Start topology delivery if layout watching is enabled
	if config.WatchTopology {
		if err := topoMgr.Start(); err != nil {
			cancel()
			topoMgr.Close()
			return nil, fmt.Errorf("failed to start topology manager: %w", err)
		}
		go p.watchTopology(watchCtx, topoMgr.Subscribe())
	} else {
		close(p.done)
	}

	logger.Info("partitioner ready",
		"kind", config.PartitionKey.Kind,
		"version", config.PartitionKey.Version.String(),
		"paths", config.PartitionKey.Paths,
		"partitions", len(partitions))
	return p, nil
}

// initialRanges splits the space the scheme's hashes occupy into n pieces.
// V1 hashes are 32-bit, so V1 layouts split [0, 2^32) and then open the
// outer bounds so the pieces still cover the whole line.
func initialRanges(version pkhash.Version, n int) (hashrange.Ranges, hashrange.SplitOutcome) {
	if version != pkhash.V1 {
		return hashrange.TrySplit(hashrange.Full(), n)
	}

	space, err := hashrange.Between(pkhash.New(wide.Zero128), pkhash.New(wide.New128(1<<32, 0)))
	if err != nil {
		return hashrange.Ranges{}, hashrange.SplitRangeNotWideEnough
	}
	pieces, outcome := hashrange.TrySplit(space, n)
	if outcome != hashrange.SplitSuccess {
		return pieces, outcome
	}

	opened := pieces.All()
	last := len(opened) - 1
	for i, piece := range opened {
		var start, end *pkhash.Hash
		if lo, ok := piece.Start(); ok && i > 0 {
			start = &lo
		}
		if hi, ok := piece.End(); ok && i < last {
			end = &hi
		}
		opened[i] = hashrange.MustNew(start, end)
	}
	layout, create := hashrange.TryCreate(opened)
	if create != hashrange.CreateSuccess {
		return hashrange.Ranges{}, hashrange.SplitRangeNotWideEnough
	}
	return layout, hashrange.SplitSuccess
}

// watchTopology logs layout changes as they are delivered.
func (p *Partitioner) watchTopology(ctx context.Context, events <-chan LayoutEvent) {
	defer close(p.done)
	defer p.topology.Unsubscribe(events)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			p.logger.Debug("partition layout changed",
				"epoch", event.Epoch,
				"added", event.Added,
				"removed", event.Removed)
		}
	}
}

// Definition returns the partition key definition in use.
func (p *Partitioner) Definition() PartitionKeyDefinition {
	return p.config.PartitionKey
}

// Scheme returns the hashing scheme selected for the definition.
func (p *Partitioner) Scheme() pkhash.Scheme {
	return p.scheme
}

// HashPartitionKey hashes key components in path order. Fewer components
// than paths hash a prefix of a hierarchical key.
func (p *Partitioner) HashPartitionKey(values ...element.Element) (pkhash.Hash, error) {
	if err := p.checkComponents(values); err != nil {
		return pkhash.Hash{}, err
	}
	h, err := p.scheme.HashComponents(values...)
	if err != nil {
		return pkhash.Hash{}, FromError(err)
	}
	return h, nil
}

// EffectivePartitionKey renders key components as the server's hex key.
func (p *Partitioner) EffectivePartitionKey(values ...element.Element) (string, error) {
	if err := p.checkComponents(values); err != nil {
		return "", err
	}
	pk := p.config.PartitionKey
	epk, err := pkhash.EffectivePartitionKey(pk.Kind, pk.Version, values...)
	if err != nil {
		return "", FromError(err)
	}
	return epk, nil
}

func (p *Partitioner) checkComponents(values []element.Element) error {
	if len(values) == 0 {
		return NewInvalidArgumentError("at least one partition key component is required")
	}
	if n := len(p.config.PartitionKey.Paths); len(values) > n {
		return NewInvalidArgumentError(fmt.Sprintf("got %d partition key components for %d paths", len(values), n))
	}
	return nil
}

// ExtractPartitionKey reads each partition key path from doc. Missing paths
// yield Undefined.
func (p *Partitioner) ExtractPartitionKey(doc element.Element) ([]element.Element, error) {
	paths := p.config.PartitionKey.Paths
	values := make([]element.Element, len(paths))
	for i, path := range paths {
		v, ok := doc.Lookup(path)
		if !ok {
			values[i] = element.Undefined()
			continue
		}
		if !v.Kind().IsScalar() {
			return nil, NewInvalidArgumentError(fmt.Sprintf("partition key path %s holds a %s", path, v.Kind()))
		}
		values[i] = v
	}
	return values, nil
}

// PartitionForKey returns the partition that owns the key.
func (p *Partitioner) PartitionForKey(values ...element.Element) (Partition, error) {
	h, err := p.HashPartitionKey(values...)
	if err != nil {
		return Partition{}, err
	}
	part, err := p.routes.Lookup(h)
	if err != nil {
		return Partition{}, FromError(err)
	}
	return part, nil
}

// PartitionForDocument extracts the partition key from doc and routes it.
func (p *Partitioner) PartitionForDocument(doc element.Element) (Partition, error) {
	values, err := p.ExtractPartitionKey(doc)
	if err != nil {
		return Partition{}, err
	}
	return p.PartitionForKey(values...)
}

// PartitionsForRange returns the partitions that intersect r, in range
// order.
func (p *Partitioner) PartitionsForRange(r hashrange.Range) []Partition {
	return p.routes.Overlapping(r)
}

// Partitions returns the current partitions in range order.
func (p *Partitioner) Partitions() []Partition {
	return p.routes.Snapshot().Partitions()
}

// Ranges returns the current validated range set.
func (p *Partitioner) Ranges() hashrange.Ranges {
	return p.routes.Snapshot().Ranges()
}

// Epoch returns the current layout epoch.
func (p *Partitioner) Epoch() uint64 {
	return p.routes.Epoch()
}

// SplitPartition replaces a partition with n near-equal partitions.
func (p *Partitioner) SplitPartition(id string, n int) ([]Partition, error) {
	children, err := p.routes.Split(id, n)
	if err != nil {
		return nil, p.partitionError(id, err)
	}
	return children, nil
}

// MergePartitions replaces contiguous partitions with one.
func (p *Partitioner) MergePartitions(ids ...string) (Partition, error) {
	merged, err := p.routes.Merge(ids...)
	if err != nil {
		return Partition{}, FromError(err)
	}
	return merged, nil
}

func (p *Partitioner) partitionError(id string, err error) error {
	converted := FromError(err)
	if nf, ok := converted.(*PartitionNotFoundError); ok {
		nf.PartitionID = id
	}
	return converted
}

// Refresh reloads the layout from the configured provider.
func (p *Partitioner) Refresh(ctx context.Context) error {
	if _, err := p.routes.Refresh(ctx); err != nil {
		if errors.Is(err, routing.ErrNoProvider) {
			return NewInvalidArgumentError("no partition provider configured")
		}
		return FromError(err)
	}
	return nil
}

// Subscribe returns a channel of layout changes. It is closed by Close.
func (p *Partitioner) Subscribe() <-chan LayoutEvent {
	return p.topology.Subscribe()
}

// Unsubscribe stops delivery to a channel returned by Subscribe.
func (p *Partitioner) Unsubscribe(ch <-chan LayoutEvent) {
	p.topology.Unsubscribe(ch)
}

// WaitForEpoch blocks until layout changes through epoch have been
// published.
func (p *Partitioner) WaitForEpoch(ctx context.Context, epoch uint64) error {
	return p.topology.WaitForEpoch(ctx, epoch)
}

// NewDistinctMap returns a duplicate filter for one distinct query,
// resuming from token when it is not empty.
func (p *Partitioner) NewDistinctMap(queryType distinct.QueryType, token string) (distinct.Map, error) {
	m, err := distinct.NewMap(queryType, token)
	if err != nil {
		return nil, FromError(err)
	}
	return m, nil
}

// Close stops background delivery and closes subscriber channels.
func (p *Partitioner) Close() error {
	p.cancel()
	<-p.done
	if err := p.topology.Close(); err != nil {
		return fmt.Errorf("failed to close topology manager: %w", err)
	}
	p.logger.Debug("partitioner closed")
	return nil
}
