package gangway

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// ServerProcess supervises the local app server subprocess.
type ServerProcess struct {
	Command string
	Port    int
	Cmd     *exec.Cmd
	Done    chan error // Closed with the exit result once the process ends
}

// StartServer launches the configured app server command and begins streaming
// its output into the history store. The returned process is not yet known to
// be healthy, call WaitHealthy before exposing it.
func (deployment *Deployment) StartServer(ctx context.Context) (*ServerProcess, error) {
	command := deployment.Config.ServerCommand
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty server command")
	}
	binary, err := exec.LookPath(fields[0])
	if err != nil {
		return nil, fmt.Errorf("finding server binary %s : %w", fields[0], err)
	}

	cmd := exec.CommandContext(ctx, binary, fields[1:]...)
	cmd.Dir = deployment.ConfigDir
	cmd.Env = os.Environ()
	// Cancellation interrupts the child so it can shut down cleanly.
	// WaitDelay kills it if the signal is ignored.
	cmd.Cancel = func() error {
		if err := cmd.Process.Signal(os.Interrupt); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
	cmd.WaitDelay = 5 * time.Second

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("piping server stdout : %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("piping server stderr : %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting server command %s : %w", command, err)
	}
	deployment.Logger.Info("server started", "pid", cmd.Process.Pid, "command", command)
	deployment.WriteLog("INFO", fmt.Sprintf("server process started (pid %d)", cmd.Process.Pid))

	process := &ServerProcess{
		Command: command,
		Port:    deployment.Config.Port,
		Cmd:     cmd,
		Done:    make(chan error, 1),
	}

	go deployment.streamOutput("server", stdout)
	go deployment.streamOutput("server", stderr)
	go func() {
		process.Done <- cmd.Wait()
		close(process.Done)
	}()

	deployment.Server = process
	return process, nil
}

// streamOutput forwards each line of a subprocess stream into the history
// store and the operational logger.
func (deployment *Deployment) streamOutput(source string, stream io.Reader) {
	scanner := bufio.NewScanner(stream)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		deployment.Logger.Info(line, "source", source)
		deployment.WriteLog("INFO", fmt.Sprintf("[%s] %s", source, line))
	}
}

// WaitHealthy polls the app server health endpoint until it responds or the
// deadline passes. The server process exiting early cancels the wait.
func (deployment *Deployment) WaitHealthy(ctx context.Context, process *ServerProcess) error {
	healthURL := fmt.Sprintf("http://127.0.0.1:%d%s", process.Port, deployment.Config.HealthPath)
	client := &http.Client{Timeout: 2 * time.Second}

	backoff := retry.WithMaxDuration(30*time.Second, retry.WithCappedDuration(2*time.Second, retry.NewExponential(250*time.Millisecond)))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		select {
		case exitErr := <-process.Done:
			if exitErr != nil {
				return fmt.Errorf("server exited before becoming healthy : %w", exitErr)
			}
			return fmt.Errorf("server exited before becoming healthy")
		default:
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("health returned %d", resp.StatusCode))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("waiting for server health at %s : %w", healthURL, err)
	}
	deployment.Logger.Info("server healthy", "url", healthURL)
	deployment.WriteLog("INFO", "server is healthy")
	return nil
}

// Stop asks the server to shut down. It sends an interrupt first and only
// kills the process if it has not exited after the grace period.
func (process *ServerProcess) Stop() error {
	if process == nil || process.Cmd == nil || process.Cmd.Process == nil {
		return nil
	}
	if err := process.Cmd.Process.Signal(os.Interrupt); err != nil {
		// Interrupt is not supported on windows, fall back to kill
		if killErr := process.Cmd.Process.Kill(); killErr != nil {
			return fmt.Errorf("killing server process : %w", killErr)
		}
		return nil
	}
	select {
	case <-process.Done:
		return nil
	case <-time.After(5 * time.Second):
		if err := process.Cmd.Process.Kill(); err != nil {
			return fmt.Errorf("killing server process after grace period : %w", err)
		}
	}
	return nil
}
