package gangway

import (
	"fmt"
	"net"
	"strings"
)

// Preflight verifies the environment before any subprocess is started. It
// checks that the agent binary is installed, that the app port and the agent
// diagnostic port are free, and that the server command is usable.
func (deployment *Deployment) Preflight() error {
	if deployment.Config == nil {
		return fmt.Errorf("config not loaded")
	}
	if strings.TrimSpace(deployment.Config.ServerCommand) == "" {
		return fmt.Errorf("server command is empty")
	}
	if deployment.Repo == nil {
		return fmt.Errorf("history repo not set")
	}
	if _, err := deployment.Repo.CountSessions(); err != nil {
		return fmt.Errorf("history store unreachable : %w", err)
	}
	if getAgentPath(deployment.Config.AgentDirs) == "" {
		return fmt.Errorf("tunnel agent binary %q not installed, see https://ngrok.com/download", agentBinary)
	}
	if err := checkPortFree(deployment.Config.Port); err != nil {
		return fmt.Errorf("app port %d is busy : %w", deployment.Config.Port, err)
	}
	if err := checkAddrFree(deployment.Config.AgentAPIAddr); err != nil {
		// A busy diagnostic port usually means a stale agent, which
		// KillStaleAgent handles before the tunnel starts.
		pid, pidErr := deployment.Repo.GetAgentPID()
		if pidErr != nil || pid == 0 {
			return fmt.Errorf("agent api addr %s is busy : %w", deployment.Config.AgentAPIAddr, err)
		}
		deployment.Logger.Warn("agent api addr busy, stale agent will be killed", "addr", deployment.Config.AgentAPIAddr, "pid", pid)
	}
	deployment.Logger.Info("preflight checks passed", "port", deployment.Config.Port, "agent_api", deployment.Config.AgentAPIAddr)
	return nil
}

// checkPortFree probes a loopback TCP port by binding to it.
func checkPortFree(port int) error {
	return checkAddrFree(fmt.Sprintf("127.0.0.1:%d", port))
}

func checkAddrFree(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return listener.Close()
}
