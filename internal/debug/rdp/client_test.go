package rdp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"github.com/janelledement/debugger/internal/debug/source"
	"github.com/janelledement/debugger/internal/debug/sourcemap"
)

// mockTransport implements Transport for testing.
type mockTransport struct {
	mu        sync.Mutex
	sendQueue []*Message
	recvChan  chan *Message
	closed    bool
	sendErr   error
	onSend    func(*Message)
}

func newMockTransport() *mockTransport {
	return &mockTransport{
		recvChan: make(chan *Message, 10),
	}
}

func (t *mockTransport) Send(msg *Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return io.ErrClosedPipe
	}
	if t.sendErr != nil {
		return t.sendErr
	}

	t.sendQueue = append(t.sendQueue, msg)
	if t.onSend != nil {
		t.onSend(msg)
	}
	return nil
}

func (t *mockTransport) Receive() (*Message, error) {
	msg, ok := <-t.recvChan
	if !ok {
		return nil, io.EOF
	}
	return msg, nil
}

func (t *mockTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.closed {
		t.closed = true
		close(t.recvChan)
	}
	return nil
}

func (t *mockTransport) queueMessage(content []byte) {
	t.recvChan <- &Message{ContentLength: len(content), Content: content}
}

func (t *mockTransport) sentMessages() []*Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*Message{}, t.sendQueue...)
}

// respondWith auto-answers every request with the given success body.
func (t *mockTransport) respondWith(body string) {
	t.onSend = func(msg *Message) {
		var req Request
		json.Unmarshal(msg.Content, &req)

		resp := Response{
			ProtocolMessage: ProtocolMessage{Seq: 1, Type: "response"},
			RequestSeq:      req.Seq,
			Success:         true,
			Command:         req.Command,
			Body:            json.RawMessage(body),
		}
		content, _ := json.Marshal(resp)
		t.queueMessage(content)
	}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestClient_BreakpointPositions(t *testing.T) {
	mt := newMockTransport()
	mt.respondWith(`{"positions":{"10":[2,5],"11":[0]}}`)

	client := NewClient(mt)
	defer client.Close()

	src := &source.Source{ID: "source-1", URL: "bundle.js"}
	table, err := client.BreakpointPositions(testContext(t), src, nil)
	if err != nil {
		t.Fatalf("BreakpointPositions failed: %v", err)
	}

	if got := table.Lines(); !reflect.DeepEqual(got, []int{10, 11}) {
		t.Errorf("unexpected lines %v", got)
	}
	if got := table.Columns(10); !reflect.DeepEqual(got, []int{2, 5}) {
		t.Errorf("unexpected columns for line 10: %v", got)
	}

	// Without a range, the arguments must not carry one.
	sent := mt.sentMessages()
	if len(sent) != 1 {
		t.Fatalf("expected 1 request, got %d", len(sent))
	}
	args := gjson.GetBytes(sent[0].Content, "arguments")
	if args.Get("sourceId").String() != "source-1" {
		t.Errorf("expected sourceId in arguments, got %s", args.Raw)
	}
	if args.Get("range").Exists() {
		t.Errorf("expected no range in arguments, got %s", args.Raw)
	}
}

func TestClient_BreakpointPositions_WithRange(t *testing.T) {
	mt := newMockTransport()
	mt.respondWith(`{"positions":{}}`)

	client := NewClient(mt)
	defer client.Close()

	src := &source.Source{ID: "source-1"}
	rng := &source.Range{
		Start: source.Position{Line: 10, Column: 0},
		End:   source.Position{Line: 13, Column: 0},
	}
	if _, err := client.BreakpointPositions(testContext(t), src, rng); err != nil {
		t.Fatalf("BreakpointPositions failed: %v", err)
	}

	sent := mt.sentMessages()
	args := gjson.GetBytes(sent[0].Content, "arguments")
	if args.Get("range.start.line").Int() != 10 || args.Get("range.end.line").Int() != 13 {
		t.Errorf("range not encoded in arguments: %s", args.Raw)
	}
}

func TestClient_BreakpointPositions_Failure(t *testing.T) {
	mt := newMockTransport()
	mt.onSend = func(msg *Message) {
		var req Request
		json.Unmarshal(msg.Content, &req)

		resp := Response{
			ProtocolMessage: ProtocolMessage{Seq: 1, Type: "response"},
			RequestSeq:      req.Seq,
			Success:         false,
			Command:         req.Command,
			Message:         "unknown source",
		}
		content, _ := json.Marshal(resp)
		mt.queueMessage(content)
	}

	client := NewClient(mt)
	defer client.Close()

	_, err := client.BreakpointPositions(testContext(t), &source.Source{ID: "nope"}, nil)
	if err == nil {
		t.Fatal("expected error for failed response")
	}
}

func TestClient_Sources(t *testing.T) {
	mt := newMockTransport()
	mt.respondWith(`{"sources":[
		{"id":"source-1","url":"bundle.js","sourceMapURL":"bundle.js.map"},
		{"id":"source-2","url":"vendor.js"}
	]}`)

	client := NewClient(mt)
	defer client.Close()

	srcs, err := client.Sources(testContext(t))
	if err != nil {
		t.Fatalf("Sources failed: %v", err)
	}
	if len(srcs) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(srcs))
	}
	if srcs[0].SourceMapURL != "bundle.js.map" {
		t.Errorf("expected sourceMapURL, got %s", srcs[0].SourceMapURL)
	}
}

func TestClient_SourceMap(t *testing.T) {
	mt := newMockTransport()
	mt.respondWith(`{"map":{"version":3,"sources":["foo.src"],"mappings":"AAAA"}}`)

	client := NewClient(mt)
	defer client.Close()

	data, err := client.SourceMap(testContext(t), "source-1")
	if err != nil {
		t.Fatalf("SourceMap failed: %v", err)
	}
	if gjson.GetBytes(data, "version").Int() != 3 {
		t.Errorf("unexpected map payload: %s", data)
	}
}

func TestClient_SourceMap_Missing(t *testing.T) {
	mt := newMockTransport()
	mt.respondWith(`{}`)

	client := NewClient(mt)
	defer client.Close()

	_, err := client.SourceMap(testContext(t), "source-1")
	if !errors.Is(err, sourcemap.ErrNoSourceMap) {
		t.Errorf("expected ErrNoSourceMap, got %v", err)
	}
}

func TestClient_TransportErrorFailsPending(t *testing.T) {
	mt := newMockTransport()

	client := NewClient(mt)
	defer client.Close()

	done := make(chan error, 1)
	go func() {
		_, err := client.Sources(testContext(t))
		done <- err
	}()

	// Let the request register, then kill the transport.
	time.Sleep(20 * time.Millisecond)
	mt.Close()

	if err := <-done; err == nil {
		t.Error("expected pending request to fail on transport error")
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	mt := newMockTransport() // never responds

	client := NewClient(mt)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Sources(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestClient_EventHandler(t *testing.T) {
	mt := newMockTransport()

	client := NewClient(mt)
	defer client.Close()

	events := make(chan Event, 1)
	client.OnEvent(func(evt Event) {
		events <- evt
	})

	evt := Event{
		ProtocolMessage: ProtocolMessage{Type: "event"},
		Event:           EventSourcesCleared,
	}
	content, _ := json.Marshal(evt)
	mt.queueMessage(content)

	select {
	case got := <-events:
		if got.Event != EventSourcesCleared {
			t.Errorf("expected %s, got %s", EventSourcesCleared, got.Event)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}
