package rdp

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func TestWriteReadMessage(t *testing.T) {
	var buf bytes.Buffer

	content := []byte(`{"seq":1,"type":"request","command":"sources"}`)
	msg := &Message{ContentLength: len(content), Content: content}

	if err := writeMessage(&buf, msg); err != nil {
		t.Fatalf("writeMessage failed: %v", err)
	}

	got, err := readMessage(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("readMessage failed: %v", err)
	}
	if got.ContentLength != len(content) {
		t.Errorf("expected length %d, got %d", len(content), got.ContentLength)
	}
	if !bytes.Equal(got.Content, content) {
		t.Errorf("content mismatch: %s", got.Content)
	}
}

func TestReadMessage_HeaderCaseInsensitive(t *testing.T) {
	raw := "content-length: 2\r\n\r\n{}"
	got, err := readMessage(bufio.NewReader(strings.NewReader(raw)))
	if err != nil {
		t.Fatalf("readMessage failed: %v", err)
	}
	if string(got.Content) != "{}" {
		t.Errorf("unexpected content %s", got.Content)
	}
}

func TestReadMessage_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing content length", "\r\n"},
		{"invalid header", "Content-Length 5\r\n\r\n{}"},
		{"non-numeric length", "Content-Length: five\r\n\r\n{}"},
		{"negative length", "Content-Length: -1\r\n\r\n{}"},
		{"oversized length", fmt.Sprintf("Content-Length: %d\r\n\r\n", MaxContentLength+1)},
		{"truncated content", "Content-Length: 10\r\n\r\n{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := readMessage(bufio.NewReader(strings.NewReader(tt.raw))); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestReadMessage_MultipleMessages(t *testing.T) {
	var buf bytes.Buffer
	first := []byte(`{"seq":1}`)
	second := []byte(`{"seq":2}`)

	writeMessage(&buf, &Message{Content: first})
	writeMessage(&buf, &Message{Content: second})

	r := bufio.NewReader(&buf)
	got1, err := readMessage(r)
	if err != nil {
		t.Fatalf("first read failed: %v", err)
	}
	got2, err := readMessage(r)
	if err != nil {
		t.Fatalf("second read failed: %v", err)
	}

	if !bytes.Equal(got1.Content, first) || !bytes.Equal(got2.Content, second) {
		t.Error("messages read out of order or corrupted")
	}
}
