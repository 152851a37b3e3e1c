package audiocapture

import (
	"github.com/gordonklaus/portaudio"
)

// PortAudioDevice opens the default system microphone through PortAudio.
type PortAudioDevice struct{}

// Open initializes PortAudio and opens a mono input stream at the requested
// rate. The handler is invoked from PortAudio's real-time callback.
func (PortAudioDevice) Open(sampleRate, frameSize int, handler func(samples []float32)) (Stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, &PermissionError{Err: err}
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), frameSize,
		func(in []float32) { handler(in) })
	if err != nil {
		_ = portaudio.Terminate()
		return nil, &PermissionError{Err: err}
	}

	return &paStream{stream: stream}, nil
}

type paStream struct {
	stream *portaudio.Stream
	closed bool
}

func (s *paStream) SampleRate() int {
	return int(s.stream.Info().SampleRate)
}

func (s *paStream) Start() error {
	return s.stream.Start()
}

func (s *paStream) Stop() error {
	if s.closed {
		return nil
	}
	return s.stream.Stop()
}

func (s *paStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.stream.Close()
	_ = portaudio.Terminate()
	return err
}
