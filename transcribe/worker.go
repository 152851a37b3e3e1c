package transcribe

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

// Worker runs a local transcription script as a long-lived subprocess.
//
// Protocol: the script is launched with a "--worker" argument and prints a
// single "ready" line on stdout. Each request is a u32 little-endian length
// followed by raw WAV bytes on stdin; each response is a u32 little-endian
// length followed by UTF-8 text on stdout. A response starting with "ERROR:"
// is a transcription failure. A worker that died is restarted on the next
// call.
type Worker struct {
	script string

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
}

// NewWorker creates a worker engine for the given script path.
func NewWorker(script string) *Worker {
	return &Worker{script: script}
}

func (w *Worker) Name() string { return "worker" }

// Warm starts the subprocess in the background so the model is loaded before
// the first real request arrives.
func (w *Worker) Warm() {
	go func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if err := w.ensureLocked(); err != nil {
			slog.Warn("warm transcription worker", "error", err)
		}
	}()
}

// Transcribe sends the WAV payload to the worker and returns its text.
func (w *Worker) Transcribe(ctx context.Context, wavBase64 string) (string, error) {
	wavBytes, err := base64.StdEncoding.DecodeString(wavBase64)
	if err != nil {
		return "", fmt.Errorf("decode payload: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.ensureLocked(); err != nil {
		return "", err
	}

	text, err := w.exchangeLocked(ctx, wavBytes)
	if err != nil {
		// The pipe state is unknown after an I/O failure; drop the worker
		// so the next call starts a fresh one.
		w.shutdownLocked()
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Close terminates the subprocess.
func (w *Worker) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.shutdownLocked()
	return nil
}

// ensureLocked starts the worker if it is not running.
func (w *Worker) ensureLocked() error {
	if w.cmd != nil {
		if w.cmd.ProcessState == nil {
			return nil
		}
		// Process exited behind our back.
		w.cmd = nil
		w.stdin = nil
		w.stdout = nil
	}

	python, err := resolvePython()
	if err != nil {
		return err
	}

	cmd := exec.Command(python, w.script, "--worker")
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("open worker stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}

	reader := bufio.NewReader(stdout)
	ready, err := reader.ReadString('\n')
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("read worker handshake: %w", err)
	}
	if strings.TrimSpace(ready) != "ready" {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("worker not ready: %q", strings.TrimSpace(ready))
	}

	// Reap the process when it exits so ProcessState gets populated.
	go func() { _ = cmd.Wait() }()

	w.cmd = cmd
	w.stdin = stdin
	w.stdout = reader
	slog.Info("transcription worker started", "script", w.script)
	return nil
}

// exchangeLocked runs one request/response frame exchange, honoring ctx:
// when the deadline fires the worker is killed, which unwinds the blocked
// pipe read.
func (w *Worker) exchangeLocked(ctx context.Context, wavBytes []byte) (string, error) {
	// The I/O goroutine works on its own copies of the pipes: shutdownLocked
	// nils the fields, and the goroutine may outlive this call on timeout.
	stdin, stdout := w.stdin, w.stdout

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := exchange(stdin, stdout, wavBytes)
		done <- result{text, err}
	}()

	select {
	case res := <-done:
		return res.text, res.err
	case <-ctx.Done():
		w.shutdownLocked()
		return "", fmt.Errorf("worker exchange: %w", ctx.Err())
	}
}

func exchange(stdin io.Writer, stdout *bufio.Reader, wavBytes []byte) (string, error) {
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(wavBytes)))
	if _, err := stdin.Write(header[:]); err != nil {
		return "", fmt.Errorf("write request header: %w", err)
	}
	if _, err := stdin.Write(wavBytes); err != nil {
		return "", fmt.Errorf("write request body: %w", err)
	}

	if _, err := io.ReadFull(stdout, header[:]); err != nil {
		return "", fmt.Errorf("read response header: %w", err)
	}
	respLen := binary.LittleEndian.Uint32(header[:])
	resp := make([]byte, respLen)
	if _, err := io.ReadFull(stdout, resp); err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}

	text := string(resp)
	if strings.HasPrefix(text, "ERROR:") {
		return "", fmt.Errorf("worker: %s", strings.TrimSpace(strings.TrimPrefix(text, "ERROR:")))
	}
	return text, nil
}

func (w *Worker) shutdownLocked() {
	if w.cmd == nil {
		return
	}
	_ = w.stdin.Close()
	if w.cmd.ProcessState == nil {
		_ = w.cmd.Process.Kill()
	}
	w.cmd = nil
	w.stdin = nil
	w.stdout = nil
}

func resolvePython() (string, error) {
	for _, candidate := range []string{"python3", "python"} {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("python interpreter not found")
}
