package domain

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Panels hands out one Panel per session id.
type Panels struct {
	api   ContentAPI
	audit Auditor
	log   zerolog.Logger
	now   func() time.Time

	mu     sync.Mutex
	panels map[string]*Panel
}

func NewPanels(api ContentAPI, audit Auditor, log zerolog.Logger) *Panels {
	return &Panels{
		api:    api,
		audit:  audit,
		log:    log,
		now:    time.Now,
		panels: map[string]*Panel{},
	}
}

func (ps *Panels) Get(sessionID string) *Panel {
	ps.mu.Lock()
	p, ok := ps.panels[sessionID]
	if !ok {
		p = NewPanel(ps.api, ps.audit, ps.log.With().Str("session", sessionID).Logger())
		ps.panels[sessionID] = p
	}
	ps.mu.Unlock()
	p.touch(ps.now())
	return p
}

func (ps *Panels) Len() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return len(ps.panels)
}

// Sweep forgets panels unused for longer than maxIdle and returns how many
// were dropped.
func (ps *Panels) Sweep(maxIdle time.Duration) int {
	now := ps.now()
	ps.mu.Lock()
	defer ps.mu.Unlock()
	dropped := 0
	for id, p := range ps.panels {
		if p.idleSince(now) > maxIdle {
			delete(ps.panels, id)
			dropped++
		}
	}
	return dropped
}
