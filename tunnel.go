package gangway

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"runtime"
	"time"
)

// getAgentPath determines the tunnel agent executable path based on the
// operating system. It checks common installation locations before falling
// back to the PATH lookup.
//
// Returns:
//   - string: Path to the agent executable, or empty string if not found
func getAgentPath(customPaths []AgentPathConfig) string {
	var paths []string
	switch runtime.GOOS {
	case "darwin":
		paths = []string{
			`/opt/homebrew/bin/ngrok`,
			`/usr/local/bin/ngrok`,
		}
		for _, path := range customPaths {
			if path.OS == "darwin" {
				paths = append(paths, path.Path)
			}
		}
	case "windows":
		paths = []string{
			`C:\Program Files\ngrok\ngrok.exe`,
			`C:\ProgramData\chocolatey\bin\ngrok.exe`,
		}
		for _, path := range customPaths {
			if path.OS == "windows" {
				paths = append(paths, path.Path)
			}
		}
	case "linux":
		paths = []string{
			`/usr/bin/ngrok`,
			`/usr/local/bin/ngrok`,
			`/snap/bin/ngrok`,
		}
		for _, path := range customPaths {
			if path.OS == "linux" {
				paths = append(paths, path.Path)
			}
		}
	default:
		return ""
	}

	// Find the first valid path
	for _, path := range paths {
		if _, err := exec.LookPath(path); err == nil {
			return path
		}
	}
	// Fall back to whatever is on PATH
	if found, err := exec.LookPath(agentBinary); err == nil {
		return found
	}
	return ""
}

// AgentProcess supervises the tunnel agent subprocess.
type AgentProcess struct {
	Path string
	Cmd  *exec.Cmd
	Done chan error // Closed with the exit result once the process ends
}

// KillStaleAgent terminates a tunnel agent left behind by a previous run. The
// agent binds its diagnostic port exclusively, so a stale instance blocks new
// deployments. The recorded PID is cleared regardless of outcome.
func (deployment *Deployment) KillStaleAgent() error {
	pid, err := deployment.Repo.GetAgentPID()
	if err != nil {
		return fmt.Errorf("getting recorded agent pid : %w", err)
	}
	if pid == 0 {
		return nil
	}
	process, err := os.FindProcess(pid)
	if err == nil {
		if killErr := process.Kill(); killErr == nil {
			deployment.Logger.Info("killed stale agent", "pid", pid)
			deployment.WriteLog("WARN", fmt.Sprintf("killed stale agent process (pid %d)", pid))
		}
	}
	if err := deployment.Repo.UpdateAgentPID(0); err != nil {
		return fmt.Errorf("clearing recorded agent pid : %w", err)
	}
	return nil
}

// StartTunnel writes the agent config file and launches the tunnel agent.
// The agent forwards public traffic to the local app server port.
func (deployment *Deployment) StartTunnel(ctx context.Context) (*AgentProcess, error) {
	agentPath := getAgentPath(deployment.Config.AgentDirs)
	if agentPath == "" {
		return nil, fmt.Errorf("tunnel agent binary %q not found", agentBinary)
	}

	configPath, err := deployment.Config.WriteAgentConfig()
	if err != nil {
		return nil, fmt.Errorf("writing agent config : %w", err)
	}

	cmd := exec.CommandContext(ctx, agentPath, "start", "--all", "--config", configPath)
	cmd.Dir = deployment.ConfigDir
	// Cancellation interrupts the agent so it closes its tunnels before
	// exiting. WaitDelay kills it if the signal is ignored.
	cmd.Cancel = func() error {
		if err := cmd.Process.Signal(os.Interrupt); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
	cmd.WaitDelay = 5 * time.Second

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("piping agent stdout : %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("piping agent stderr : %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting tunnel agent : %w", err)
	}
	deployment.Logger.Info("tunnel agent started", "pid", cmd.Process.Pid, "path", agentPath)
	deployment.WriteLog("INFO", fmt.Sprintf("tunnel agent started (pid %d)", cmd.Process.Pid))

	if err := deployment.Repo.UpdateAgentPID(cmd.Process.Pid); err != nil {
		deployment.Logger.Error("recording agent pid", "error", err)
	}

	process := &AgentProcess{
		Path: agentPath,
		Cmd:  cmd,
		Done: make(chan error, 1),
	}

	go deployment.streamOutput("agent", stdout)
	go deployment.streamOutput("agent", stderr)
	go func() {
		process.Done <- cmd.Wait()
		close(process.Done)
	}()

	deployment.Agent = process
	return process, nil
}

// Stop terminates the tunnel agent. The agent handles interrupts cleanly and
// closes its tunnels before exiting.
func (process *AgentProcess) Stop() error {
	if process == nil || process.Cmd == nil || process.Cmd.Process == nil {
		return nil
	}
	if err := process.Cmd.Process.Signal(os.Interrupt); err != nil {
		if killErr := process.Cmd.Process.Kill(); killErr != nil {
			return fmt.Errorf("killing agent process : %w", killErr)
		}
		return nil
	}
	select {
	case <-process.Done:
		return nil
	case <-time.After(5 * time.Second):
		if err := process.Cmd.Process.Kill(); err != nil {
			return fmt.Errorf("killing agent process after grace period : %w", err)
		}
	}
	return nil
}

// AgentConfigPath returns the path of the generated agent config file.
func (deployment *Deployment) AgentConfigPath() string {
	return path.Join(deployment.ConfigDir, agentConfigFile)
}
