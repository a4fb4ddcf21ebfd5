package rdp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/janelledement/debugger/internal/debug/source"
	"github.com/janelledement/debugger/internal/debug/sourcemap"
)

// Client talks to a debug server over a Transport. It is safe for
// concurrent use; requests may be issued from any goroutine.
type Client struct {
	transport Transport
	seq       int64
	pending   map[int]*pendingRequest
	pendingMu sync.Mutex
	onEvent   func(Event)
	handlerMu sync.RWMutex
	done      chan struct{}
	closeOnce sync.Once
	err       error
	errMu     sync.RWMutex
}

// pendingRequest tracks a request awaiting its response.
type pendingRequest struct {
	done      chan struct{}
	closeOnce sync.Once
	response  *Response
	err       error
}

func (p *pendingRequest) close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
}

// NewClient creates a client on the given transport and starts its receive
// loop.
func NewClient(transport Transport) *Client {
	c := &Client{
		transport: transport,
		pending:   make(map[int]*pendingRequest),
		done:      make(chan struct{}),
	}
	go c.receiveLoop()
	return c
}

// Close shuts down the client and the underlying transport.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	return c.transport.Close()
}

// Error returns the error that terminated the receive loop, if any.
func (c *Client) Error() error {
	c.errMu.RLock()
	defer c.errMu.RUnlock()
	return c.err
}

// OnEvent sets the handler invoked for every server event.
func (c *Client) OnEvent(handler func(Event)) {
	c.handlerMu.Lock()
	c.onEvent = handler
	c.handlerMu.Unlock()
}

// receiveLoop reads messages until the transport fails or the client
// closes. A transport failure fails every pending request.
func (c *Client) receiveLoop() {
	for {
		msg, err := c.transport.Receive()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}

			c.errMu.Lock()
			c.err = err
			c.errMu.Unlock()

			c.pendingMu.Lock()
			for _, req := range c.pending {
				req.err = err
				req.close()
			}
			c.pending = make(map[int]*pendingRequest)
			c.pendingMu.Unlock()
			return
		}

		select {
		case <-c.done:
			return
		default:
		}

		c.handleMessage(msg)
	}
}

// handleMessage dispatches a received message by its type field.
func (c *Client) handleMessage(msg *Message) {
	switch gjson.GetBytes(msg.Content, "type").String() {
	case "response":
		c.handleResponse(msg.Content)
	case "event":
		c.handleEvent(msg.Content)
	}
}

func (c *Client) handleResponse(content []byte) {
	var resp Response
	if err := json.Unmarshal(content, &resp); err != nil {
		return
	}

	c.pendingMu.Lock()
	req, ok := c.pending[resp.RequestSeq]
	if ok {
		delete(c.pending, resp.RequestSeq)
	}
	c.pendingMu.Unlock()

	if ok {
		req.response = &resp
		req.close()
	}
}

func (c *Client) handleEvent(content []byte) {
	var evt Event
	if err := json.Unmarshal(content, &evt); err != nil {
		return
	}

	c.handlerMu.RLock()
	handler := c.onEvent
	c.handlerMu.RUnlock()

	if handler != nil {
		handler(evt)
	}
}

// sendRequest sends a command and waits for its response or ctx done.
func (c *Client) sendRequest(ctx context.Context, command string, args json.RawMessage) (*Response, error) {
	seq := int(atomic.AddInt64(&c.seq, 1))

	req := Request{
		ProtocolMessage: ProtocolMessage{
			Seq:  seq,
			Type: "request",
		},
		Command:   command,
		Arguments: args,
	}

	content, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	pending := &pendingRequest{
		done: make(chan struct{}),
	}

	c.pendingMu.Lock()
	c.pending[seq] = pending
	c.pendingMu.Unlock()

	msg := &Message{
		ContentLength: len(content),
		Content:       content,
	}

	if err := c.transport.Send(msg); err != nil {
		c.pendingMu.Lock()
		delete(c.pending, seq)
		c.pendingMu.Unlock()
		return nil, fmt.Errorf("send request: %w", err)
	}

	select {
	case <-ctx.Done():
		c.pendingMu.Lock()
		delete(c.pending, seq)
		c.pendingMu.Unlock()
		return nil, ctx.Err()
	case <-pending.done:
		if pending.err != nil {
			return nil, pending.err
		}
		return pending.response, nil
	}
}

// Protocol commands

// BreakpointPositions asks the server where breakpoints may be set in a
// generated source, optionally restricted to a generated-coordinate range.
func (c *Client) BreakpointPositions(ctx context.Context, src *source.Source, rng *source.Range) (*source.LineColumnTable, error) {
	args, err := sjson.SetBytes([]byte(`{}`), "sourceId", src.ID)
	if err != nil {
		return nil, fmt.Errorf("build arguments: %w", err)
	}
	if rng != nil {
		for path, v := range map[string]int{
			"range.start.line":   rng.Start.Line,
			"range.start.column": rng.Start.Column,
			"range.end.line":     rng.End.Line,
			"range.end.column":   rng.End.Column,
		} {
			if args, err = sjson.SetBytes(args, path, v); err != nil {
				return nil, fmt.Errorf("build arguments: %w", err)
			}
		}
	}

	resp, err := c.sendRequest(ctx, "breakpointPositions", args)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("breakpointPositions failed: %s", resp.Message)
	}

	// The body's positions object is keyed by line number, so its shape is
	// dynamic: {"positions": {"10": [2, 5], "11": [0]}}.
	table := source.NewLineColumnTable()
	var parseErr error
	gjson.GetBytes(resp.Body, "positions").ForEach(func(key, value gjson.Result) bool {
		line, err := strconv.Atoi(key.String())
		if err != nil {
			parseErr = fmt.Errorf("invalid line key %q", key.String())
			return false
		}
		for _, col := range value.Array() {
			table.Add(line, int(col.Int()))
		}
		return true
	})
	if parseErr != nil {
		return nil, fmt.Errorf("breakpointPositions: %w", parseErr)
	}
	return table, nil
}

// Sources lists the sources currently loaded in the debuggee.
func (c *Client) Sources(ctx context.Context) ([]*source.Source, error) {
	resp, err := c.sendRequest(ctx, "sources", nil)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("sources failed: %s", resp.Message)
	}

	var body SourcesResponseBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("unmarshal sources: %w", err)
	}

	out := make([]*source.Source, 0, len(body.Sources))
	for _, info := range body.Sources {
		out = append(out, &source.Source{
			ID:           info.ID,
			URL:          info.URL,
			SourceMapURL: info.SourceMapURL,
		})
	}
	return out, nil
}

// SourceMap fetches the raw source map document for a generated source.
// It returns sourcemap.ErrNoSourceMap when the source has none, making the
// client usable as a sourcemap.Loader.
func (c *Client) SourceMap(ctx context.Context, generatedID string) ([]byte, error) {
	args, err := sjson.SetBytes([]byte(`{}`), "sourceId", generatedID)
	if err != nil {
		return nil, fmt.Errorf("build arguments: %w", err)
	}

	resp, err := c.sendRequest(ctx, "sourceMap", args)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("sourceMap failed: %s", resp.Message)
	}

	doc := gjson.GetBytes(resp.Body, "map")
	if !doc.Exists() || doc.Type == gjson.Null {
		return nil, sourcemap.ErrNoSourceMap
	}
	return []byte(doc.Raw), nil
}
