package forwarder

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/haukened/rr-dnsfwd/internal/dns/domain"
)

type mockUpstream struct {
	mock.Mock
}

func (m *mockUpstream) Forward(ctx context.Context, msg domain.Message) <-chan domain.Outcome {
	args := m.Called(ctx, msg)
	out := make(chan domain.Outcome, 1)
	out <- args.Get(0).(domain.Outcome)
	return out
}

type logEntry struct {
	level  string
	msg    string
	fields map[string]any
}

// recordingLogger keeps every entry for later assertions.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level string, fields map[string]any, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, fields: fields})
}

func (l *recordingLogger) Info(f map[string]any, m string)  { l.add("info", f, m) }
func (l *recordingLogger) Error(f map[string]any, m string) { l.add("error", f, m) }
func (l *recordingLogger) Debug(f map[string]any, m string) { l.add("debug", f, m) }
func (l *recordingLogger) Warn(f map[string]any, m string)  { l.add("warn", f, m) }
func (l *recordingLogger) Panic(f map[string]any, m string) { l.add("panic", f, m) }
func (l *recordingLogger) Fatal(f map[string]any, m string) { l.add("fatal", f, m) }

func (l *recordingLogger) find(msg string) (logEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.msg == msg {
			return e, true
		}
	}
	return logEntry{}, false
}

func (l *recordingLogger) count(msg string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.msg == msg {
			n++
		}
	}
	return n
}

type fakeBlocklist map[string]domain.BlockDecision

func (f fakeBlocklist) Decide(name string) domain.BlockDecision {
	return f[name]
}

func testQuery(id uint16, name string, t domain.RRType) domain.Message {
	return domain.Message{
		Header:    domain.Header{ID: id, RD: true, QDCount: 1},
		Questions: []domain.Question{{Name: name, Type: t, Class: domain.RRClassIN}},
	}
}

func testReply(req domain.Message, answers ...domain.ResourceRecord) domain.Message {
	out := req.Clone()
	out.Header.QR = true
	out.Header.RA = true
	out.Answers = answers
	return out.SyncCounts()
}
