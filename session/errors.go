package session

// TranscriptionError wraps a failed transcription call. The user-visible
// message stays generic regardless of the underlying cause; full detail goes
// to the diagnostics boundary only.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return "transcription failed"
}

func (e *TranscriptionError) Unwrap() error { return e.Err }
