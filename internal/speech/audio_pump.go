package speech

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"voicetask/internal/ports"
)

// audioPump forwards microphone chunks to the recognition stream.
type audioPump struct {
	audio  ports.AudioSession
	stream ports.StreamingSession
	buf    []byte
	sent   int64
}

func newAudioPump(audio ports.AudioSession, stream ports.StreamingSession, chunkSize int) *audioPump {
	if chunkSize < 256 {
		chunkSize = 4096
	}
	return &audioPump{audio: audio, stream: stream, buf: make([]byte, chunkSize)}
}

// run returns nil once the microphone reaches end of input.
func (p *audioPump) run() error {
	for {
		n, readErr := p.audio.Read(p.buf)
		if n > 0 {
			if err := p.stream.SendAudio(p.buf[:n]); err != nil {
				return fmt.Errorf("stream audio after %d bytes: %w", p.sent, err)
			}
			p.sent += int64(n)
		}
		switch {
		case readErr == nil:
		case errors.Is(readErr, io.EOF), errors.Is(readErr, os.ErrClosed):
			return nil
		default:
			return fmt.Errorf("read microphone: %w", readErr)
		}
	}
}

// settle gives the provider up to grace to flush its last results after the
// send side is closed, then force-closes the stream.
func settle(stream ports.StreamingSession, grace time.Duration) error {
	finished := make(chan error, 1)
	go func() {
		finished <- stream.Wait()
	}()

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case err := <-finished:
		return err
	case <-timer.C:
		_ = stream.Close()
		return <-finished
	}
}
