package transcribe

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

// pipeWorker wires a Worker's stdio to an in-memory peer that speaks the
// length-prefixed frame protocol, standing in for the subprocess.
func pipeWorker(t *testing.T, respond func(request []byte) []byte) *Worker {
	t.Helper()

	reqR, reqW := io.Pipe()
	respR, respW := io.Pipe()

	go func() {
		defer respW.Close()
		var header [4]byte
		for {
			if _, err := io.ReadFull(reqR, header[:]); err != nil {
				return
			}
			body := make([]byte, binary.LittleEndian.Uint32(header[:]))
			if _, err := io.ReadFull(reqR, body); err != nil {
				return
			}
			resp := respond(body)
			binary.LittleEndian.PutUint32(header[:], uint32(len(resp)))
			if _, err := respW.Write(header[:]); err != nil {
				return
			}
			if _, err := respW.Write(resp); err != nil {
				return
			}
		}
	}()

	t.Cleanup(func() {
		_ = reqW.Close()
		_ = reqR.Close()
		_ = respR.Close()
	})

	return &Worker{
		script: "fake",
		stdin:  reqW,
		stdout: bufio.NewReader(respR),
	}
}

func TestExchangeRoundTrip(t *testing.T) {
	payload := []byte("RIFF-pretend-wav-bytes")
	var received []byte
	w := pipeWorker(t, func(request []byte) []byte {
		received = append([]byte(nil), request...)
		return []byte("hello there")
	})

	text, err := w.exchangeLocked(context.Background(), payload)
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if text != "hello there" {
		t.Errorf("text = %q, want %q", text, "hello there")
	}
	if !bytes.Equal(received, payload) {
		t.Errorf("worker received %q, want %q", received, payload)
	}
}

func TestExchangeSequentialRequests(t *testing.T) {
	var count int
	w := pipeWorker(t, func([]byte) []byte {
		count++
		if count == 1 {
			return []byte("first")
		}
		return []byte("second")
	})

	for _, want := range []string{"first", "second"} {
		text, err := w.exchangeLocked(context.Background(), []byte("audio"))
		if err != nil {
			t.Fatalf("exchange: %v", err)
		}
		if text != want {
			t.Errorf("text = %q, want %q", text, want)
		}
	}
}

func TestExchangeErrorResponse(t *testing.T) {
	w := pipeWorker(t, func([]byte) []byte {
		return []byte("ERROR: model not loaded")
	})

	_, err := w.exchangeLocked(context.Background(), []byte("audio"))
	if err == nil {
		t.Fatal("want error for ERROR: response")
	}
	if !strings.Contains(err.Error(), "model not loaded") {
		t.Errorf("err = %v, want the worker's message", err)
	}
}

func TestExchangeEmptyResponse(t *testing.T) {
	w := pipeWorker(t, func([]byte) []byte { return nil })

	text, err := w.exchangeLocked(context.Background(), []byte("audio"))
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty", text)
	}
}

func TestExchangeHonorsContext(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	// The peer never answers until released, emulating a hung worker.
	w := pipeWorker(t, func([]byte) []byte {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := w.exchangeLocked(ctx, []byte("audio"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestTranscribeRejectsBadPayload(t *testing.T) {
	w := NewWorker("nonexistent.py")
	_, err := w.Transcribe(context.Background(), "not!valid!base64!")
	if err == nil {
		t.Fatal("want error for malformed base64 payload")
	}
	if !strings.Contains(err.Error(), "decode payload") {
		t.Errorf("err = %v, want a decode failure before any subprocess work", err)
	}
}
