package gangway

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Banner renders the deployment status block printed once the public URL is
// known. It lists the local and public endpoints plus the well known routes
// of the demo API so they can be clicked straight from the terminal.
func (deployment *Deployment) Banner() string {
	localURL := fmt.Sprintf("http://127.0.0.1:%d", deployment.Config.Port)
	publicURL := ""
	if deployment.Session != nil {
		publicURL = deployment.Session.PublicURL
	}

	var b strings.Builder
	b.WriteString("==================================================\n")
	b.WriteString("  Deployment is live\n")
	b.WriteString("==================================================\n")
	fmt.Fprintf(&b, "  Local:   %s\n", localURL)
	fmt.Fprintf(&b, "  Public:  %s\n", publicURL)
	fmt.Fprintf(&b, "  Health:  %s%s\n", publicURL, deployment.Config.HealthPath)
	fmt.Fprintf(&b, "  Docs:    %s/docs\n", publicURL)
	fmt.Fprintf(&b, "  ReDoc:   %s/redoc\n", publicURL)
	if len(deployment.Config.Routes) > 0 {
		b.WriteString("  Routes:\n")
		for _, route := range deployment.Config.Routes {
			fmt.Fprintf(&b, "    %s%s\n", publicURL, route)
		}
	}
	b.WriteString("==================================================\n")
	b.WriteString("  Press Ctrl+C to stop\n")
	b.WriteString("==================================================")
	return b.String()
}

// Summary renders the teardown report for a finished session: how long it
// ran and how much traffic went through the tunnel.
func (deployment *Deployment) Summary() string {
	if deployment.Session == nil {
		return "no session was started"
	}
	session := deployment.Session

	ended := time.Now()
	if session.EndedAt != nil {
		ended = *session.EndedAt
	}
	uptime := ended.Sub(session.StartedAt).Round(time.Second)

	captures := 0
	if items, err := deployment.Repo.GetCaptures(session.ID); err == nil {
		captures = len(items)
	}

	var b strings.Builder
	b.WriteString("Deployment finished\n")
	fmt.Fprintf(&b, "  Session:   %s\n", session.ID)
	fmt.Fprintf(&b, "  Status:    %s\n", session.Status)
	fmt.Fprintf(&b, "  Started:   %s\n", humanize.Time(session.StartedAt))
	fmt.Fprintf(&b, "  Uptime:    %s\n", uptime)
	fmt.Fprintf(&b, "  Exchanges: %s", english(captures, "exchange"))
	return b.String()
}

func english(count int, noun string) string {
	if count == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%s %ss", humanize.Comma(int64(count)), noun)
}
