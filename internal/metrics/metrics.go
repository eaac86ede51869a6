package metrics

import (
	"sync"
	"time"
)

type socketStats struct {
	reconnects    int
	framesOK      int
	framesDropped int
	commandsSent  int
	sendFailures  int
}

type backendStats struct {
	calls           int
	errors          int
	lastCallLatency time.Duration
}

// Recorder captures lightweight in-memory counters for the sync client.
// When otel instruments are attached the same observations are exported.
type Recorder struct {
	mu      sync.Mutex
	socket  socketStats
	backend map[string]*backendStats
	otel    *otelInstruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		backend: make(map[string]*backendStats),
		otel:    otel,
	}
}

// RecordReconnect counts one scheduled reconnection attempt.
func (r *Recorder) RecordReconnect() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.socket.reconnects++
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordReconnect()
	}
}

// RecordFrame counts one inbound frame, decoded or dropped.
func (r *Recorder) RecordFrame(frameType string, err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	if err != nil {
		r.socket.framesDropped++
	} else {
		r.socket.framesOK++
	}
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordFrame(frameType, err)
	}
}

// RecordCommand counts one outbound socket command.
func (r *Recorder) RecordCommand(commandType string, err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	if err != nil {
		r.socket.sendFailures++
	} else {
		r.socket.commandsSent++
	}
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordCommand(commandType, err)
	}
}

// RecordBackendCall counts one REST call against the scoring backend.
func (r *Recorder) RecordBackendCall(operation string, duration time.Duration, err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	stats, ok := r.backend[operation]
	if !ok {
		stats = &backendStats{}
		r.backend[operation] = stats
	}
	stats.calls++
	stats.lastCallLatency = duration
	if err != nil {
		stats.errors++
	}
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordBackendCall(operation, duration, err)
	}
}

// RecordHTTPRequest tracks scoreboard HTTP traffic.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// SocketSnapshot is a copy of the socket counters.
type SocketSnapshot struct {
	Reconnects    int
	FramesOK      int
	FramesDropped int
	CommandsSent  int
	SendFailures  int
}

func (r *Recorder) Socket() SocketSnapshot {
	if r == nil {
		return SocketSnapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return SocketSnapshot{
		Reconnects:    r.socket.reconnects,
		FramesOK:      r.socket.framesOK,
		FramesDropped: r.socket.framesDropped,
		CommandsSent:  r.socket.commandsSent,
		SendFailures:  r.socket.sendFailures,
	}
}

// BackendSnapshot is a copy of one operation's REST counters.
type BackendSnapshot struct {
	Calls           int
	Errors          int
	LastCallLatency time.Duration
}

func (r *Recorder) Backend(operation string) BackendSnapshot {
	if r == nil {
		return BackendSnapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if stats, ok := r.backend[operation]; ok && stats != nil {
		return BackendSnapshot{
			Calls:           stats.calls,
			Errors:          stats.errors,
			LastCallLatency: stats.lastCallLatency,
		}
	}
	return BackendSnapshot{}
}
