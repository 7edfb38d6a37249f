package model

import (
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Assist reports whether the semantic assist service is reachable. The
// retrieval engine upgrades to enhanced scoring only while it is; when the
// service is down search quietly falls back to basic scoring.
type Assist struct {
	url      string
	client   *http.Client
	logger   *slog.Logger
	interval time.Duration

	mu    sync.RWMutex
	ready bool
	last  time.Time
}

func NewAssist(url string) *Assist {
	return &Assist{
		url: url,
		client: &http.Client{
			Timeout: 3 * time.Second,
		},
		logger:   slog.Default(),
		interval: 30 * time.Second,
	}
}

// Ready returns the cached probe result, refreshing it when stale. A service
// with no configured URL is never ready.
func (a *Assist) Ready() bool {
	if a == nil || a.url == "" {
		return false
	}

	a.mu.RLock()
	fresh := time.Since(a.last) < a.interval
	ready := a.ready
	a.mu.RUnlock()
	if fresh {
		return ready
	}

	return a.probe()
}

func (a *Assist) probe() bool {
	ready := a.check()

	a.mu.Lock()
	if ready != a.ready {
		a.logger.Info("[ASSIST] availability changed", "ready", ready)
	}
	a.ready = ready
	a.last = time.Now()
	a.mu.Unlock()

	return ready
}

func (a *Assist) check() bool {
	resp, err := a.client.Get(a.url + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
