package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"voicetask/internal/ports"
)

const (
	defaultStartupGrace = 250 * time.Millisecond
	defaultStopTimeout  = 1200 * time.Millisecond
)

// Microphone records raw 16-bit PCM from the system input through an
// ffmpeg child process.
type Microphone struct {
	command      string
	startupGrace time.Duration
	stopTimeout  time.Duration
}

func NewMicrophone(command string) *Microphone {
	if strings.TrimSpace(command) == "" {
		command = "ffmpeg"
	}
	return &Microphone{
		command:      command,
		startupGrace: defaultStartupGrace,
		stopTimeout:  defaultStopTimeout,
	}
}

func (m *Microphone) Start(ctx context.Context, cfg ports.AudioConfig) (ports.AudioSession, error) {
	cmd := exec.CommandContext(ctx, m.command, captureArgs(normalizeAudioConfig(cfg))...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open recorder output: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start recorder: %w", err)
	}

	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
		close(exited)
	}()

	// A recorder that cannot open the device exits almost immediately.
	select {
	case err := <-exited:
		detail := trimmed(stderr.String())
		if err != nil {
			return nil, fmt.Errorf("recorder exited before capture started: %w: %s", err, detail)
		}
		return nil, errors.New("recorder exited before capture started")
	case <-time.After(m.startupGrace):
	}

	return &micSession{
		stdout:      stdout,
		stderr:      stderr,
		process:     cmd.Process,
		exited:      exited,
		stopTimeout: m.stopTimeout,
	}, nil
}

func normalizeAudioConfig(cfg ports.AudioConfig) ports.AudioConfig {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}
	return cfg
}

func captureArgs(cfg ports.AudioConfig) []string {
	return []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-f", "s16le",
		"-",
	}
}

type micSession struct {
	stdout io.ReadCloser
	stderr *bytes.Buffer

	process     *os.Process
	exited      <-chan error
	stopTimeout time.Duration

	once    sync.Once
	stopErr error
}

func (s *micSession) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s *micSession) Close() error {
	return s.Stop()
}

// Stop interrupts the recorder, escalating to kill when it lingers.
func (s *micSession) Stop() error {
	s.once.Do(func() {
		s.stopErr = s.terminate()

		if err := s.stdout.Close(); err != nil && !errors.Is(err, os.ErrClosed) && s.stopErr == nil {
			s.stopErr = err
		}
		if s.stopErr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, trimmed(s.stderr.String()))
		}
	})
	return s.stopErr
}

func (s *micSession) terminate() error {
	if s.process != nil {
		_ = s.process.Signal(os.Interrupt)
	}

	select {
	case err, ok := <-s.exited:
		if !ok {
			return nil
		}
		return ignoreExitStatus(err)
	case <-time.After(s.stopTimeout):
	}

	if s.process != nil {
		_ = s.process.Kill()
	}
	err, ok := <-s.exited
	if !ok {
		return nil
	}
	return ignoreExitStatus(err)
}

// ignoreExitStatus drops the non-zero status an interrupted recorder
// reports; only failures to wait on the process are surfaced.
func ignoreExitStatus(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func trimmed(input string) string {
	return strings.TrimSpace(input)
}
