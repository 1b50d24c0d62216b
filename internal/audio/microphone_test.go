package audio

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"voicetask/internal/ports"
)

func TestMicrophoneStartReadAndStop(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "capture.sh", "#!/usr/bin/env bash\nprintf 'pcm-bytes'\nsleep 2\n")
	mic := NewMicrophone(script)

	session, err := mic.Start(context.Background(), ports.AudioConfig{})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	buf := make([]byte, 16)
	n, readErr := session.Read(buf)
	if n <= 0 {
		t.Fatalf("expected audio bytes, got n=%d err=%v", n, readErr)
	}
	if !strings.Contains(string(buf[:n]), "pcm") {
		t.Fatalf("unexpected bytes: %q", string(buf[:n]))
	}

	if err := session.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := session.Close(); err != nil {
		t.Fatalf("second stop should be a no-op, got %v", err)
	}
}

func TestMicrophoneStartEarlyExit(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "fail.sh", "#!/usr/bin/env bash\necho 'device busy' 1>&2\nexit 1\n")
	mic := NewMicrophone(script)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := mic.Start(ctx, ports.AudioConfig{})
	if err == nil {
		t.Fatalf("expected early exit error")
	}
	if !strings.Contains(err.Error(), "exited before capture started") || !strings.Contains(err.Error(), "device busy") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMicrophoneMissingBinary(t *testing.T) {
	t.Parallel()

	mic := NewMicrophone(filepath.Join(t.TempDir(), "missing-recorder"))
	if _, err := mic.Start(context.Background(), ports.AudioConfig{}); err == nil {
		t.Fatalf("expected start failure for missing binary")
	}
}

func TestCaptureArgsAppliesDefaults(t *testing.T) {
	t.Parallel()

	args := strings.Join(captureArgs(normalizeAudioConfig(ports.AudioConfig{})), " ")
	for _, want := range []string{"-f pulse", "-i default", "-ac 1", "-ar 16000", "-f s16le"} {
		if !strings.Contains(args, want) {
			t.Fatalf("expected %q in %q", want, args)
		}
	}

	args = strings.Join(captureArgs(normalizeAudioConfig(ports.AudioConfig{
		SampleRate:  48000,
		Channels:    2,
		InputFormat: "alsa",
		InputDevice: "hw:1",
	})), " ")
	for _, want := range []string{"-f alsa", "-i hw:1", "-ac 2", "-ar 48000"} {
		if !strings.Contains(args, want) {
			t.Fatalf("expected %q in %q", want, args)
		}
	}
}

func TestIgnoreExitStatus(t *testing.T) {
	t.Parallel()

	err := exec.Command("bash", "-c", "exit 1").Run()
	if err == nil {
		t.Fatalf("expected command to fail")
	}
	if got := ignoreExitStatus(err); got != nil {
		t.Fatalf("expected nil for exit error, got %v", got)
	}
	if got := ignoreExitStatus(os.ErrProcessDone); got == nil {
		t.Fatalf("expected non-exit errors to surface")
	}
}

func writeScript(t *testing.T, name string, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o700); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}
