package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecorderSocketCounters(t *testing.T) {
	assert := assert.New(t)
	rec := NewRecorder()

	rec.RecordReconnect()
	rec.RecordReconnect()
	rec.RecordFrame("score_update", nil)
	rec.RecordFrame("", errors.New("bad frame"))
	rec.RecordCommand("match_start", nil)
	rec.RecordCommand("match_end", errors.New("not connected"))

	snap := rec.Socket()
	assert.Equal(2, snap.Reconnects)
	assert.Equal(1, snap.FramesOK)
	assert.Equal(1, snap.FramesDropped)
	assert.Equal(1, snap.CommandsSent)
	assert.Equal(1, snap.SendFailures)
}

func TestRecorderBackendCounters(t *testing.T) {
	assert := assert.New(t)
	rec := NewRecorder()

	rec.RecordBackendCall("add_point", 12*time.Millisecond, nil)
	rec.RecordBackendCall("add_point", 40*time.Millisecond, errors.New("status 400"))

	snap := rec.Backend("add_point")
	assert.Equal(2, snap.Calls)
	assert.Equal(1, snap.Errors)
	assert.Equal(40*time.Millisecond, snap.LastCallLatency)

	assert.Equal(BackendSnapshot{}, rec.Backend("unknown_op"))
}

func TestNilRecorderIsSafe(t *testing.T) {
	assert := assert.New(t)

	var rec *Recorder
	rec.RecordReconnect()
	rec.RecordFrame("x", nil)
	rec.RecordCommand("x", nil)
	rec.RecordBackendCall("x", time.Millisecond, nil)
	rec.RecordHTTPRequest("GET", "/matches", 200, time.Millisecond)

	assert.Equal(SocketSnapshot{}, rec.Socket())
}

func TestSetupDisabledReturnsWorkingRecorder(t *testing.T) {
	assert := assert.New(t)

	rec, handler, shutdown, err := Setup(context.Background(), TelemetryConfig{Enabled: false})
	assert.NoError(err)
	assert.Nil(handler)
	assert.NotNil(rec)
	assert.NoError(shutdown(context.Background()))

	rec.RecordReconnect()
	assert.Equal(1, rec.Socket().Reconnects)
}
