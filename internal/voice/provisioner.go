package voice

import (
	"context"
	"errors"
	"strings"

	"github.com/hackgods/studio-booking/internal/observability/metrics"
	"github.com/hackgods/studio-booking/pkg/logging"
)

// FallbackGreeting is spoken with local text-to-speech when no call can be started.
const FallbackGreeting = "Hi, welcome to Andrea AI Agency. I'm here to help you with website design, AI solutions, and project guidance."

// Error texts are returned to the browser verbatim.
var (
	ErrMissingAPIKey  = errors.New("Missing RETELL_API_KEY in environment variables")
	ErrMissingAgentID = errors.New("Missing Agent ID. Provide it in body or set NEXT_PUBLIC_RETELL_AGENT_ID")
	ErrCallFailed     = errors.New("Failed to initiate call")
)

type WebCallCreator interface {
	CreateWebCall(ctx context.Context, agentID string) (*WebCall, error)
}

type Config struct {
	APIKey         string
	DefaultAgentID string
}

// Provisioner starts browser voice calls with the hosted agent.
type Provisioner struct {
	calls   WebCallCreator
	cfg     Config
	logger  *logging.Logger
	metrics *metrics.Metrics
}

func NewProvisioner(calls WebCallCreator, cfg Config, logger *logging.Logger, m *metrics.Metrics) *Provisioner {
	if logger == nil {
		logger = logging.Default()
	}
	return &Provisioner{
		calls:   calls,
		cfg:     cfg,
		logger:  logger.Named("voice"),
		metrics: m,
	}
}

// Provision starts a web call for agentID, or the configured default agent when empty.
// The API key is checked before the agent id.
func (p *Provisioner) Provision(ctx context.Context, agentID string) (*WebCall, error) {
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		p.metrics.ObserveVoiceCall("misconfigured")
		return nil, ErrMissingAPIKey
	}
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		agentID = strings.TrimSpace(p.cfg.DefaultAgentID)
	}
	if agentID == "" {
		p.metrics.ObserveVoiceCall("missing_agent")
		return nil, ErrMissingAgentID
	}

	call, err := p.calls.CreateWebCall(ctx, agentID)
	if err != nil {
		p.logger.Error("error creating retell web call", "agent_id", agentID, "error", err)
		p.metrics.ObserveVoiceCall("error")
		return nil, ErrCallFailed
	}
	p.metrics.ObserveVoiceCall("ok")
	p.logger.Info("web call created", "call_id", call.CallID, "agent_id", call.AgentID)
	return call, nil
}
