package feed

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/track.pilot/internal/follower"
	"github.com/banshee-data/track.pilot/internal/teledb"
)

const migrationsDir = "../../data/migrations"

type captureSink struct {
	messages []follower.JoyMessage
}

func (s *captureSink) Publish(msg follower.JoyMessage) error {
	s.messages = append(s.messages, msg)
	return nil
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *captureSink, *teledb.DB) {
	t.Helper()
	db, err := teledb.NewDB(filepath.Join(t.TempDir(), "telemetry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.MigrateUp(migrationsDir))

	sink := &captureSink{}
	ctrl := follower.NewController(sink, follower.DefaultTuning())
	return NewDispatcher(ctrl, db, "run-1"), sink, db
}

// straightFrame is a two-edge frame on a 500px image whose averaged midpoint
// sits 50px left of center, giving turn 0.2.
func straightFrame() []byte {
	line, _ := EncodeEnvelope(TypeEdgeVectors, follower.EdgeVectorSet{
		VectorCount: 2,
		ImageWidth:  500,
		Vector1:     [2]follower.Point2D{{X: 150, Y: 40}, {X: 250, Y: 90}},
		Vector2:     [2]follower.Point2D{{X: 150, Y: 40}, {X: 250, Y: 90}},
	})
	return line
}

// obstacleScan is a 200-sample sweep of an r=10 arc with one close return in
// the front sector of the kept middle half.
func obstacleScan() []byte {
	ranges := make([]float64, 200)
	for i := range ranges {
		ranges[i] = 10
	}
	ranges[100] = 0.5
	line, _ := EncodeEnvelope(TypeRangeScan, follower.RangeScan{
		Ranges:         ranges,
		RangeMin:       0.1,
		RangeMax:       20,
		AngleIncrement: math.Pi / 200,
	})
	return line
}

func TestHandleLineEdgeVectors(t *testing.T) {
	d, sink, db := newTestDispatcher(t)

	require.NoError(t, d.HandleLine(straightFrame()))

	require.Len(t, sink.messages, 1)
	assert.InDelta(t, 0.2, sink.messages[0].Axes[3], 1e-9)

	decisions, err := db.Decisions("run-1", 10)
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, 2, decisions[0].VectorCount)
	assert.InDelta(t, 0.2, decisions[0].Turn, 1e-9)
}

func TestHandleLineScanRecordsSummary(t *testing.T) {
	d, _, db := newTestDispatcher(t)

	require.NoError(t, d.HandleLine(obstacleScan()))

	summaries, err := db.ScanSummaries("run-1", 10)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 100, summaries[0].KeptPoints)
	assert.True(t, summaries[0].Obstacle)
	assert.False(t, summaries[0].Ramp)
}

func TestHandleLineTrafficStatusOverridesNextDecision(t *testing.T) {
	d, sink, _ := newTestDispatcher(t)

	line, err := EncodeEnvelope(TypeTrafficStatus, follower.TrafficStatus{StopSign: true})
	require.NoError(t, err)
	require.NoError(t, d.HandleLine(line))

	require.NoError(t, d.HandleLine(straightFrame()))
	require.Len(t, sink.messages, 1)
	assert.Equal(t, 0.0, sink.messages[0].Axes[1], "stop sign should zero speed")
}

func TestHandleLineInvalidVectorsNotRecorded(t *testing.T) {
	d, sink, db := newTestDispatcher(t)

	line, err := EncodeEnvelope(TypeEdgeVectors, follower.EdgeVectorSet{VectorCount: -1})
	require.NoError(t, err)
	assert.ErrorIs(t, d.HandleLine(line), follower.ErrInvalidInput)

	assert.Empty(t, sink.messages)
	decisions, err := db.Decisions("run-1", 10)
	require.NoError(t, err)
	assert.Empty(t, decisions)
}

func TestHandleLineUnknownType(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	err := d.HandleLine([]byte(`{"type":"imu","payload":{}}`))
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestHandleLineMalformedPayload(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	err := d.HandleLine([]byte(`{"type":"range_scan","payload":{"ranges":"nope"}}`))
	assert.Error(t, err)
}

func TestHandleLineNilDBIsSafe(t *testing.T) {
	sink := &captureSink{}
	ctrl := follower.NewController(sink, follower.DefaultTuning())
	d := NewDispatcher(ctrl, nil, "run-1")

	require.NoError(t, d.HandleLine(straightFrame()))
	require.NoError(t, d.HandleLine(obstacleScan()))
	assert.Len(t, sink.messages, 1)
}
