package crawlers

import (
	"context"
	"log/slog"
)

// Block reasons.
const (
	ReasonUserAgent = "user-agent blacklist"
	ReasonReferrer  = "referrer blacklist"
)

// Request is what the gatekeeper needs to know about an inbound request.
type Request struct {
	UserAgent     string
	Referrer      string
	RemoteIP      string
	Authenticated bool
}

// Decision is the outcome of Evaluate. Match holds the blocked token.
type Decision struct {
	Blocked bool
	Reason  string
	Match   string
}

// Allowed is the zero Decision.
var Allowed = Decision{}

// Gatekeeper decides which anonymous requests are served.
type Gatekeeper struct {
	cfg       Config
	agents    *BlockList
	referrers *BlockList
	verifier  *Verifier
	log       *BlockLog
	logger    *slog.Logger
}

// NewGatekeeper compiles the block lists once. log may be nil when blocked
// requests are not recorded.
func NewGatekeeper(cfg Config, resolver Resolver, log *BlockLog, logger *slog.Logger) *Gatekeeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gatekeeper{
		cfg:       cfg,
		agents:    NewBlockList(cfg.Agents),
		referrers: NewBlockList(cfg.Referrers),
		verifier:  NewVerifier(cfg.Whitelist, resolver, cfg.DNSTimeout),
		log:       log,
		logger:    logger,
	}
}

// Enabled reports whether any check is switched on.
func (g *Gatekeeper) Enabled() bool {
	return g.cfg.BlockByAgent || g.cfg.BlockByReferrer
}

// Evaluate applies the user agent and referrer checks. Authenticated
// requests are always allowed. A verified whitelisted crawler skips the
// user agent blocklist but not the referrer check.
func (g *Gatekeeper) Evaluate(ctx context.Context, req Request) Decision {
	if req.Authenticated {
		return Allowed
	}
	if g.cfg.BlockByAgent {
		// Only agents the blocklist catches need the DNS round trip.
		if m, hit := g.agents.Match(req.UserAgent); hit {
			if _, ok := g.verifier.Verify(ctx, req.UserAgent, req.RemoteIP); !ok {
				return Decision{Blocked: true, Reason: ReasonUserAgent, Match: m}
			}
		}
	}
	if g.cfg.BlockByReferrer {
		if m, hit := g.referrers.Match(req.Referrer); hit {
			return Decision{Blocked: true, Reason: ReasonReferrer, Match: m}
		}
	}
	return Allowed
}

// Record logs a blocked request when logging is enabled. Failures to write
// the log are logged and otherwise ignored.
func (g *Gatekeeper) Record(req Request, d Decision) {
	if !d.Blocked {
		return
	}
	g.logger.Info("request blocked", "ip", req.RemoteIP, "reason", d.Reason, "match", d.Match)
	if !g.cfg.LogBlocked || g.log == nil {
		return
	}
	if err := g.log.Append(req.RemoteIP, d.Reason, d.Match); err != nil {
		g.logger.Warn("append block log", "error", err)
	}
}
