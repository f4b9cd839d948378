package report

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pion/logging"

	"github.com/backkem/matter-appliances/pkg/datamodel"
	"github.com/backkem/matter-appliances/pkg/im"
)

// DefaultInterval is the poll period used when Config.Interval is zero.
const DefaultInterval = time.Second

// ErrNoPublisher is returned by NewReporter without a publisher.
var ErrNoPublisher = errors.New("report: publisher is required")

// ErrNoRouter is returned by NewReporter without a router.
var ErrNoRouter = errors.New("report: router is required")

// Config configures a Reporter.
type Config struct {
	// Router gives access to the node and its clusters.
	Router *datamodel.Router

	// Publisher receives the snapshots.
	Publisher Publisher

	// NodeID identifies this node in snapshots. A random UUID when empty.
	NodeID string

	// Interval between polls. DefaultInterval when zero.
	Interval time.Duration

	// LoggerFactory for logging. Optional.
	LoggerFactory logging.LoggerFactory
}

// Reporter publishes a snapshot of every cluster whose data changed.
type Reporter struct {
	router    *datamodel.Router
	handler   *im.Handler
	publisher Publisher
	nodeID    string
	interval  time.Duration
	log       logging.LeveledLogger

	mu       sync.Mutex
	versions map[datamodel.ConcreteClusterPath]datamodel.DataVersion
	retry    map[datamodel.ConcreteClusterPath]bool
}

// NewReporter creates a reporter.
func NewReporter(config Config) (*Reporter, error) {
	if config.Router == nil {
		return nil, ErrNoRouter
	}
	if config.Publisher == nil {
		return nil, ErrNoPublisher
	}
	r := &Reporter{
		router:    config.Router,
		handler:   im.NewHandler(im.HandlerConfig{Router: config.Router, LoggerFactory: config.LoggerFactory}),
		publisher: config.Publisher,
		nodeID:    config.NodeID,
		interval:  config.Interval,
		versions:  make(map[datamodel.ConcreteClusterPath]datamodel.DataVersion),
		retry:     make(map[datamodel.ConcreteClusterPath]bool),
	}
	if r.nodeID == "" {
		r.nodeID = uuid.NewString()
	}
	if r.interval <= 0 {
		r.interval = DefaultInterval
	}
	if config.LoggerFactory != nil {
		r.log = config.LoggerFactory.NewLogger("report")
	}
	return r, nil
}

// NodeID returns the node identifier carried by snapshots.
func (r *Reporter) NodeID() string {
	return r.nodeID
}

// LastVersion returns the data version of the last snapshot published for p.
func (r *Reporter) LastVersion(p datamodel.ConcreteClusterPath) (datamodel.DataVersion, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.versions[p]
	return v, ok
}

// Run polls until ctx is done. The first poll runs immediately and
// publishes every cluster.
func (r *Reporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if _, err := r.Poll(ctx); err != nil {
			r.warnf("poll: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll runs one reporting pass and returns the number of snapshots
// published. Publish failures are retried on the next pass.
func (r *Reporter) Poll(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		published int
		errs      []error
	)
	for _, c := range datamodel.Clusters(r.router.Node()) {
		if err := ctx.Err(); err != nil {
			return published, err
		}
		p := datamodel.ConcreteClusterPath{Endpoint: c.EndpointID(), Cluster: c.ID()}
		last, known := r.versions[p]

		// Drain before reading so a change racing the read raises again.
		changed := c.ConsumeChange()
		if known && !changed && !r.retry[p] {
			continue
		}

		var lastKnown *datamodel.DataVersion
		if known {
			lastKnown = &last
		}
		snap := r.snapshot(ctx, c, lastKnown)
		if snap == nil {
			delete(r.retry, p)
			continue
		}
		if err := r.publisher.Publish(ctx, snap); err != nil {
			r.retry[p] = true
			errs = append(errs, err)
			continue
		}
		delete(r.retry, p)
		r.versions[p] = snap.DataVersion
		published++
		r.debugf("published %v", snap)
	}
	return published, errors.Join(errs...)
}

// snapshot reads every attribute of c that changed since lastKnown. It
// returns nil when the version filter skipped them all. The snapshot
// carries the version of the first emitted frame; a later frame with a
// newer version means the cluster changed mid-read and the raised
// notifier triggers another pass.
func (r *Reporter) snapshot(ctx context.Context, c datamodel.Cluster, lastKnown *datamodel.DataVersion) *Snapshot {
	var snap *Snapshot
	for _, entry := range c.Metadata().AttributeList() {
		req := datamodel.ReadAttributeRequest{
			Path:           datamodel.ConcreteAttributePath{Endpoint: c.EndpointID(), Cluster: c.ID(), Attribute: entry.ID},
			OperationFlags: datamodel.OpFlagInternal,
			DataVersion:    lastKnown,
		}
		rep := r.handler.ReadAttribute(ctx, req)
		if !rep.Status.IsSuccess() {
			r.warnf("read %v: %v", req.Path, rep.Status)
			continue
		}
		if rep.Data == nil {
			continue
		}
		data, err := datamodel.DecodeAttributeData(rep.Data)
		if err != nil {
			r.warnf("decode %v: %v", req.Path, err)
			continue
		}
		if snap == nil {
			snap = &Snapshot{
				NodeID:      r.nodeID,
				Endpoint:    c.EndpointID(),
				Cluster:     c.ID(),
				DataVersion: data.DataVersion,
				Attributes:  make(map[datamodel.AttributeID]any),
				Timestamp:   time.Now(),
			}
		}
		snap.Attributes[entry.ID] = data.Value
	}
	return snap
}

func (r *Reporter) debugf(format string, args ...interface{}) {
	if r.log != nil {
		r.log.Debugf(format, args...)
	}
}

func (r *Reporter) warnf(format string, args ...interface{}) {
	if r.log != nil {
		r.log.Warnf(format, args...)
	}
}
