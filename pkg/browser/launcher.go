package browser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// Launcher spawns and supervises an external Chrome process started with
// remote debugging enabled. It is only used when a Chrome binary is
// configured but nothing is already listening on the debugging port.
type Launcher struct {
	binary      string
	port        int
	userDataDir string

	cmd  *exec.Cmd
	done chan struct{}
}

// NewLauncher creates a launcher for the given Chrome binary and
// remote-debugging port. The user data dir keeps the automated profile
// separate from the user's default profile.
func NewLauncher(binary string, port int, userDataDir string) *Launcher {
	return &Launcher{
		binary:      binary,
		port:        port,
		userDataDir: userDataDir,
	}
}

// Start launches the Chrome process. It does not wait for the debugging
// endpoint to come up; callers probe the port separately.
func (l *Launcher) Start() error {
	if l.cmd != nil {
		return fmt.Errorf("chrome process already started")
	}

	args := []string{
		fmt.Sprintf("--remote-debugging-port=%d", l.port),
		"--no-first-run",
		"--no-default-browser-check",
	}
	if l.userDataDir != "" {
		args = append(args, fmt.Sprintf("--user-data-dir=%s", l.userDataDir))
	}

	cmd := exec.Command(l.binary, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start chrome at %s: %w", l.binary, err)
	}

	l.cmd = cmd
	l.done = make(chan struct{})
	go func() {
		cmd.Wait()
		close(l.done)
	}()

	return nil
}

// Running reports whether the launched process is still alive.
func (l *Launcher) Running() bool {
	if l.cmd == nil {
		return false
	}
	select {
	case <-l.done:
		return false
	default:
		return true
	}
}

// Stop asks the process to exit and kills it if it doesn't comply within
// the timeout.
func (l *Launcher) Stop(timeout time.Duration) error {
	if l.cmd == nil || !l.Running() {
		return nil
	}

	// Interrupt is not deliverable on every platform; fall through to a
	// hard kill when the polite signal fails.
	if err := l.cmd.Process.Signal(os.Interrupt); err != nil {
		return l.kill()
	}

	select {
	case <-l.done:
		return nil
	case <-time.After(timeout):
		return l.kill()
	}
}

func (l *Launcher) kill() error {
	if err := l.cmd.Process.Kill(); err != nil {
		return fmt.Errorf("failed to kill chrome process: %w", err)
	}
	<-l.done
	return nil
}
