package gangway

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/tfkr-ae/gangway/capture"
	"github.com/tfkr-ae/gangway/domain"
)

// Run executes a full deployment. It performs the preflight checks, starts
// the app server, starts the tunnel agent, resolves the public URL, and then
// supervises both processes until the context is cancelled, an interrupt
// arrives, or a child exits. Teardown always runs before Run returns.
func (deployment *Deployment) Run(ctx context.Context) error {
	if err := deployment.Preflight(); err != nil {
		return fmt.Errorf("preflight : %w", err)
	}

	go deployment.WriteHistory()

	sessionID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generating session id : %w", err)
	}
	session := &domain.Session{
		ID:        sessionID,
		Command:   deployment.Config.ServerCommand,
		Port:      deployment.Config.Port,
		AgentAddr: deployment.Config.AgentAPIAddr,
		Status:    domain.SessionRunning,
		StartedAt: time.Now(),
	}
	if err := deployment.Repo.InsertSession(session); err != nil {
		return fmt.Errorf("recording session : %w", err)
	}
	deployment.Session = session

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer deployment.Teardown()

	// Phase one, the app server
	server, err := deployment.StartServer(runCtx)
	if err != nil {
		deployment.failSession(err)
		return fmt.Errorf("starting server : %w", err)
	}
	if err := deployment.WaitHealthy(runCtx, server); err != nil {
		deployment.failSession(err)
		return err
	}

	// Phase two, the tunnel
	if err := deployment.KillStaleAgent(); err != nil {
		deployment.Logger.Error("killing stale agent", "error", err)
	}
	agent, err := deployment.StartTunnel(runCtx)
	if err != nil {
		deployment.failSession(err)
		return fmt.Errorf("starting tunnel : %w", err)
	}

	// Phase three, the public URL
	deployment.AgentAPI = NewAgentClient(deployment.Config.AgentAPIAddr)
	publicURL, err := deployment.AgentAPI.PublicURL(runCtx)
	if err != nil {
		deployment.failSession(err)
		return err
	}
	session.PublicURL = publicURL
	if err := deployment.Repo.UpdateSessionURL(session.ID, publicURL); err != nil {
		deployment.Logger.Error("recording public url", "error", err)
	}
	if err := deployment.Repo.UpdateLastPublicURL(publicURL); err != nil {
		deployment.Logger.Error("recording last public url", "error", err)
	}
	deployment.WriteLog("INFO", fmt.Sprintf("public url assigned: %s", publicURL))
	if deployment.OnPublicURL != nil {
		if err := deployment.OnPublicURL(publicURL); err != nil {
			deployment.Logger.Error("public url handler", "error", err)
		}
	}
	deployment.DispatchHooks("on_start", map[string]any{
		"session_id": session.ID.String(),
		"command":    session.Command,
		"port":       session.Port,
	})
	deployment.DispatchHooks("on_public_url", map[string]any{
		"session_id": session.ID.String(),
		"public_url": publicURL,
	})

	// Phase four, supervision
	if deployment.Config.CaptureEnabled {
		go deployment.pollCaptures(runCtx)
	}
	return deployment.Supervise(runCtx, server, agent)
}

// Supervise blocks until the deployment should end. It watches for context
// cancellation, OS interrupts, and either child process exiting on its own.
func (deployment *Deployment) Supervise(ctx context.Context, server *ServerProcess, agent *AgentProcess) error {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	select {
	case <-ctx.Done():
		deployment.Logger.Info("context cancelled, shutting down")
		return nil
	case sig := <-interrupt:
		deployment.Logger.Info("signal received, shutting down", "signal", sig)
		deployment.WriteLog("INFO", "interrupt received, tearing down")
		return nil
	case exitErr := <-server.Done:
		deployment.WriteLog("ERROR", "server process exited unexpectedly")
		deployment.failSession(exitErr)
		return fmt.Errorf("server exited : %v", exitErr)
	case exitErr := <-agent.Done:
		deployment.WriteLog("ERROR", "tunnel agent exited unexpectedly")
		deployment.failSession(exitErr)
		return fmt.Errorf("tunnel agent exited : %v", exitErr)
	}
}

// pollCaptures periodically reads the agent's inspection endpoint and stores
// every exchange it has not seen before.
func (deployment *Deployment) pollCaptures(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := deployment.collectCaptures(ctx); err != nil {
				deployment.Logger.Debug("collecting captures", "error", err)
			}
		}
	}
}

func (deployment *Deployment) collectCaptures(ctx context.Context) error {
	exchanges, err := deployment.AgentAPI.Exchanges(ctx)
	if err != nil {
		return err
	}
	for _, exchange := range exchanges {
		seen, err := deployment.Repo.HasCapture(deployment.Session.ID, exchange.ID)
		if err != nil {
			deployment.Logger.Error("checking capture", "error", err)
			continue
		}
		if seen {
			continue
		}
		captureID, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generating capture id : %w", err)
		}
		requestRaw, err := capture.DecodeRaw(exchange.Request.Raw)
		if err != nil {
			deployment.Logger.Error("decoding request dump", "error", err)
			continue
		}
		responseRaw, err := capture.DecodeRaw(exchange.Response.Raw)
		if err != nil {
			deployment.Logger.Error("decoding response dump", "error", err)
			continue
		}
		metadata := map[string]any{}
		if pretty, err := capture.PrettyBody(requestRaw); err == nil && pretty != "" {
			metadata["prettified-request"] = pretty
		}
		if pretty, err := capture.PrettyBody(responseRaw); err == nil && pretty != "" {
			metadata["prettified-response"] = pretty
		}
		item := &domain.Capture{
			ID:          captureID,
			SessionID:   deployment.Session.ID,
			AgentID:     exchange.ID,
			Metadata:    metadata,
			Method:      exchange.Request.Method,
			URI:         exchange.Request.URI,
			Proto:       exchange.Request.Proto,
			Status:      exchange.Response.Status,
			StatusCode:  exchange.Response.StatusCode,
			ContentType: captureContentType(responseRaw),
			Duration:    exchange.Duration,
			RequestRaw:  requestRaw,
			ResponseRaw: responseRaw,
			CapturedAt:  time.Now(),
		}
		deployment.HistoryChannel <- item
		deployment.DispatchHooks("on_exchange", map[string]any{
			"method":      item.Method,
			"uri":         item.URI,
			"status_code": item.StatusCode,
			"duration_ms": item.Duration.Milliseconds(),
		})
	}
	return nil
}

func captureContentType(raw []byte) string {
	headers, _ := capture.SplitDump(raw)
	return capture.HeaderValue(headers, "Content-Type")
}

// failSession marks the running session as failed. Errors are logged rather
// than returned because the caller is already on a failure path.
func (deployment *Deployment) failSession(cause error) {
	if deployment.Session == nil {
		return
	}
	deployment.Logger.Error("deployment failed", "error", cause)
	if err := deployment.Repo.CloseSession(deployment.Session.ID, domain.SessionFailed, time.Now()); err != nil {
		deployment.Logger.Error("closing failed session", "error", err)
	}
	deployment.Session.Status = domain.SessionFailed
}

// Teardown stops both subprocesses in dependency order, the tunnel first so
// no public traffic can reach a dying server. It is safe to call more than
// once.
func (deployment *Deployment) Teardown() {
	deployment.teardownOnce.Do(func() {
		deployment.DispatchHooks("on_stop", map[string]any{})

		if deployment.Agent != nil {
			if err := deployment.Agent.Stop(); err != nil {
				deployment.Logger.Error("stopping tunnel agent", "error", err)
			} else {
				deployment.Logger.Info("tunnel agent stopped")
			}
			if err := deployment.Repo.UpdateAgentPID(0); err != nil {
				deployment.Logger.Error("clearing agent pid", "error", err)
			}
		}
		if deployment.Server != nil {
			if err := deployment.Server.Stop(); err != nil {
				deployment.Logger.Error("stopping server", "error", err)
			} else {
				deployment.Logger.Info("server stopped")
			}
		}
		if deployment.Session != nil && deployment.Session.Status == domain.SessionRunning {
			if err := deployment.Repo.CloseSession(deployment.Session.ID, domain.SessionStopped, time.Now()); err != nil {
				deployment.Logger.Error("closing session", "error", err)
			}
			deployment.Session.Status = domain.SessionStopped
		}
		for _, hook := range deployment.Hooks {
			hook.Close()
		}
	})
}
