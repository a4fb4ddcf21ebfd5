// Package rdp implements the client side of the remote debugging protocol
// used to query a running program: framed JSON messages over a stream, with
// sequence-numbered requests matched to responses. It provides the
// position-fetcher and source-map-loader collaborators consumed by the
// breakpoint resolution pipeline.
package rdp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
)

// Transport carries framed protocol messages.
type Transport interface {
	// Send writes a message to the debug server.
	Send(msg *Message) error

	// Receive reads the next message from the debug server.
	Receive() (*Message, error)

	// Close closes the transport.
	Close() error
}

// Message is one framed protocol message.
type Message struct {
	// ContentLength is the length of Content in bytes.
	ContentLength int

	// Content is the JSON payload.
	Content json.RawMessage
}

// MaxContentLength is the largest accepted message payload (10MB).
const MaxContentLength = 10 * 1024 * 1024

// SocketTransport implements Transport over a TCP connection.
type SocketTransport struct {
	conn   net.Conn
	reader *bufio.Reader
	mu     sync.Mutex
}

// NewSocketTransport dials a debug server at the given address.
func NewSocketTransport(address string) (*SocketTransport, error) {
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}
	return &SocketTransport{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}, nil
}

// NewSocketTransportFromConn wraps an existing connection.
func NewSocketTransportFromConn(conn net.Conn) *SocketTransport {
	return &SocketTransport{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}
}

// Send writes a message to the server.
func (t *SocketTransport) Send(msg *Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return writeMessage(t.conn, msg)
}

// Receive reads the next message from the server.
func (t *SocketTransport) Receive() (*Message, error) {
	return readMessage(t.reader)
}

// Close closes the connection.
func (t *SocketTransport) Close() error {
	return t.conn.Close()
}

// RawTransport wraps any io.ReadWriteCloser as a Transport.
type RawTransport struct {
	rwc    io.ReadWriteCloser
	reader *bufio.Reader
	mu     sync.Mutex
}

// NewRawTransport creates a transport from any ReadWriteCloser.
func NewRawTransport(rwc io.ReadWriteCloser) *RawTransport {
	return &RawTransport{
		rwc:    rwc,
		reader: bufio.NewReader(rwc),
	}
}

// Send writes a message.
func (t *RawTransport) Send(msg *Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return writeMessage(t.rwc, msg)
}

// Receive reads the next message.
func (t *RawTransport) Receive() (*Message, error) {
	return readMessage(t.reader)
}

// Close closes the underlying stream.
func (t *RawTransport) Close() error {
	return t.rwc.Close()
}

// writeMessage frames and writes one message.
func writeMessage(w io.Writer, msg *Message) error {
	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(msg.Content))

	if _, err := w.Write([]byte(header)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := w.Write(msg.Content); err != nil {
		return fmt.Errorf("write content: %w", err)
	}
	return nil
}

// readMessage reads one framed message.
func readMessage(r *bufio.Reader) (*Message, error) {
	contentLength := 0

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break // end of headers
		}

		name, value, ok := strings.Cut(line, ": ")
		if !ok {
			return nil, fmt.Errorf("invalid header: %s", line)
		}
		if strings.EqualFold(name, "content-length") {
			length, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid content-length: %w", err)
			}
			if length < 0 || length > MaxContentLength {
				return nil, fmt.Errorf("content-length %d exceeds maximum allowed %d", length, MaxContentLength)
			}
			contentLength = length
		}
	}

	if contentLength == 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	content := make([]byte, contentLength)
	if _, err := io.ReadFull(r, content); err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}

	return &Message{
		ContentLength: contentLength,
		Content:       content,
	}, nil
}
