package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backkem/matter-appliances/pkg/clusters/ovencavityopstate"
	"github.com/backkem/matter-appliances/pkg/clusters/temperaturemeasurement"
	"github.com/backkem/matter-appliances/pkg/datamodel"
)

type recordingPublisher struct {
	mu        sync.Mutex
	snapshots []*Snapshot
	fail      error
}

func (p *recordingPublisher) Publish(_ context.Context, s *Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.snapshots = append(p.snapshots, s)
	return nil
}

func (p *recordingPublisher) take() []*Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.snapshots
	p.snapshots = nil
	return out
}

type fixture struct {
	reporter *Reporter
	pub      *recordingPublisher
	temp     *temperaturemeasurement.Cluster
	oven     *ovencavityopstate.Cluster
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	v := datamodel.DataVersion(100)
	temp := temperaturemeasurement.New(temperaturemeasurement.Config{EndpointID: 1, DataVersion: &v})
	oven := ovencavityopstate.New(ovencavityopstate.Config{EndpointID: 2, DataVersion: &v})

	node := datamodel.NewNode()
	for _, c := range []datamodel.Cluster{temp, oven} {
		ep := datamodel.NewEndpoint(c.EndpointID())
		require.NoError(t, ep.AddCluster(c))
		require.NoError(t, node.AddEndpoint(ep))
	}

	pub := &recordingPublisher{}
	r, err := NewReporter(Config{
		Router:    datamodel.NewRouter(datamodel.RouterConfig{Node: node}),
		Publisher: pub,
		NodeID:    "node-1",
	})
	require.NoError(t, err)
	return &fixture{reporter: r, pub: pub, temp: temp, oven: oven}
}

func TestNewReporter_Validation(t *testing.T) {
	_, err := NewReporter(Config{Publisher: &recordingPublisher{}})
	assert.ErrorIs(t, err, ErrNoRouter)

	router := datamodel.NewRouter(datamodel.RouterConfig{Node: datamodel.NewNode()})
	_, err = NewReporter(Config{Router: router})
	assert.ErrorIs(t, err, ErrNoPublisher)

	r, err := NewReporter(Config{Router: router, Publisher: &recordingPublisher{}})
	require.NoError(t, err)
	assert.NotEmpty(t, r.NodeID())
	assert.Equal(t, DefaultInterval, r.interval)
}

func TestReporter_InitialPollPublishesEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	n, err := f.reporter.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	snaps := f.pub.take()
	require.Len(t, snaps, 2)
	temp := snaps[0]
	assert.Equal(t, "node-1", temp.NodeID)
	assert.Equal(t, datamodel.EndpointID(1), temp.Endpoint)
	assert.Equal(t, temperaturemeasurement.ClusterID, temp.Cluster)
	assert.Equal(t, datamodel.DataVersion(100), temp.DataVersion)
	assert.Equal(t, int64(0), temp.Attributes[temperaturemeasurement.AttrMeasuredValue])
	assert.Contains(t, temp.Attributes, datamodel.GlobalAttrClusterRevision)
	assert.Len(t, temp.Attributes, len(temperaturemeasurement.Metadata.AttributeList()))

	v, ok := f.reporter.LastVersion(temp.Path())
	assert.True(t, ok)
	assert.Equal(t, datamodel.DataVersion(100), v)
}

func TestReporter_UnchangedPublishesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.reporter.Poll(ctx)
	require.NoError(t, err)
	f.pub.take()

	n, err := f.reporter.Poll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, f.pub.take())

	// An identical set neither raises the notifier nor publishes.
	f.temp.SetMeasuredValue(0)
	n, err = f.reporter.Poll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReporter_ChangePublishesOnlyThatCluster(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.reporter.Poll(ctx)
	require.NoError(t, err)
	f.pub.take()

	require.True(t, f.temp.SetMeasuredValue(250))
	n, err := f.reporter.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	snaps := f.pub.take()
	require.Len(t, snaps, 1)
	assert.Equal(t, temperaturemeasurement.ClusterID, snaps[0].Cluster)
	assert.Equal(t, datamodel.DataVersion(101), snaps[0].DataVersion)
	assert.Equal(t, int64(250), snaps[0].Attributes[temperaturemeasurement.AttrMeasuredValue])
}

func TestReporter_RetriesFailedPublish(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.reporter.Poll(ctx)
	require.NoError(t, err)
	f.pub.take()

	f.oven.SetPhaseList(ovencavityopstate.NewPhaseList("preheat", "bake"))
	f.pub.fail = errors.New("broker down")
	_, err = f.reporter.Poll(ctx)
	assert.Error(t, err)

	f.pub.fail = nil
	n, err := f.reporter.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	snaps := f.pub.take()
	require.Len(t, snaps, 1)
	assert.Equal(t, []any{"preheat", "bake"}, snaps[0].Attributes[ovencavityopstate.AttrPhaseList])
}

func TestReporter_Run(t *testing.T) {
	f := newFixture(t)
	f.reporter.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.reporter.Run(ctx) }()

	f.temp.SetMeasuredValue(-500)
	assert.Eventually(t, func() bool {
		v, ok := f.reporter.LastVersion(datamodel.ConcreteClusterPath{Endpoint: 1, Cluster: temperaturemeasurement.ClusterID})
		return ok && v == 101
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestMultiPublisher(t *testing.T) {
	a, b := &recordingPublisher{}, &recordingPublisher{fail: errors.New("b failed")}
	m := MultiPublisher{a, b}

	err := m.Publish(context.Background(), &Snapshot{NodeID: "n"})
	assert.EqualError(t, err, "b failed")
	assert.Len(t, a.take(), 1)
}
