package deepgram

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"voicetask/internal/domain"
)

var errSendClosed = errors.New("audio stream is already closed")

// session owns one websocket. Audio goes out on the writer goroutine and
// recognition results come back on the reader goroutine.
type session struct {
	conn *websocket.Conn

	events  chan domain.TranscriptEvent
	audio   chan []byte
	closing chan struct{}
	done    chan struct{}

	wg sync.WaitGroup

	errMu sync.Mutex
	err   error

	sendMu     sync.Mutex
	sendClosed bool

	closeOnce sync.Once
}

func newSession(ctx context.Context, conn *websocket.Conn) *session {
	s := &session{
		conn:    conn,
		events:  make(chan domain.TranscriptEvent, 64),
		audio:   make(chan []byte, 32),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}

	s.wg.Add(2)
	go s.readLoop()
	go s.writeLoop()
	go func() {
		s.wg.Wait()
		close(s.events)
		_ = conn.Close()
		close(s.done)
	}()
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()
	return s
}

func (s *session) SendAudio(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.sendClosed {
		return errSendClosed
	}

	select {
	case s.audio <- append([]byte(nil), chunk...):
		return nil
	case <-s.done:
		if err := s.failure(); err != nil {
			return err
		}
		return errors.New("recognition stream ended")
	}
}

// CloseSend flushes queued audio and asks the server to finish the stream.
func (s *session) CloseSend() error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if !s.sendClosed {
		s.sendClosed = true
		close(s.audio)
	}
	return nil
}

func (s *session) Events() <-chan domain.TranscriptEvent {
	return s.events
}

func (s *session) Wait() error {
	<-s.done
	return s.failure()
}

func (s *session) Close() error {
	s.closeOnce.Do(func() {
		close(s.closing)
		_ = s.CloseSend()
		_ = s.conn.Close()
	})
	<-s.done
	return s.failure()
}

func (s *session) failure() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *session) fail(err error) {
	if err == nil || isOrderlyClose(err) {
		return
	}
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func isOrderlyClose(err error) bool {
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) {
		return false
	}
	return websocket.IsCloseError(closeErr,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	)
}

func (s *session) writeLoop() {
	defer s.wg.Done()

	for chunk := range s.audio {
		if err := s.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			s.fail(fmt.Errorf("failed to send audio: %w", err))
			return
		}
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`)); err != nil {
		s.fail(fmt.Errorf("failed to close stream: %w", err))
	}
}

func (s *session) readLoop() {
	defer s.wg.Done()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.closing:
			default:
				s.fail(fmt.Errorf("failed to read recognition result: %w", err))
			}
			return
		}

		event, ok, err := decodeMessage(payload)
		if err != nil {
			s.fail(err)
			return
		}
		if !ok {
			continue
		}

		// Results are cumulative downstream, so a dropped final would lose
		// words. Block instead, unless the session is shutting down.
		select {
		case s.events <- event:
		case <-s.closing:
			return
		}
	}
}
