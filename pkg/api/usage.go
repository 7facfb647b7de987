package api

import (
	"fmt"
	"net/http"
	"sort"

	"fundwatch-hq/fundwatch/pkg/gate"
	"fundwatch-hq/fundwatch/pkg/limits/ratelimit"
)

const (
	warnThreshold     = 80.0
	criticalThreshold = 90.0
)

// CacheStats describes the response cache.
type CacheStats struct {
	Entries    int `json:"entries"`
	MaxEntries int `json:"max_entries"`

	// Remote is the shared Redis tier, if configured.
	Remote *RemoteStats `json:"remote,omitempty"`
}

// RemoteStats is the daily command budget of the remote cache tier.
type RemoteStats struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}

// Warning flags a budget close to exhaustion.
type Warning struct {
	Service  string `json:"service"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// UsageResponse is the body of /api/usage.
type UsageResponse struct {
	Client       ratelimit.Usage   `json:"client"`
	Backend      ratelimit.Usage   `json:"backend,omitempty"`
	Cache        *CacheStats       `json:"cache,omitempty"`
	ServiceLevel gate.ServiceLevel `json:"service_level"`
	InFlight     int64             `json:"in_flight"`
	Warnings     []Warning         `json:"warnings"`
}

func (a *API) handleUsage(w http.ResponseWriter, r *http.Request) {
	resp := UsageResponse{
		Client:       ratelimit.Usage{},
		ServiceLevel: a.gate.ServiceLevel(),
		InFlight:     a.gate.InFlight(),
		Warnings:     []Warning{},
	}

	if a.limiter != nil {
		resp.Client = a.limiter.Usage(a.clientID(r))
	}
	if a.backend != nil {
		resp.Backend = a.backend.Usage(gate.BackendID)
		resp.Warnings = append(resp.Warnings, tierWarnings("backend", resp.Backend)...)
	}
	if a.cacheStats != nil {
		stats := a.cacheStats()
		resp.Cache = &stats
		if stats.Remote != nil {
			if w, ok := warningFor("redis", stats.Remote.Used, stats.Remote.Limit); ok {
				resp.Warnings = append(resp.Warnings, w)
			}
		}
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, resp)
}

func tierWarnings(service string, usage ratelimit.Usage) []Warning {
	names := make([]string, 0, len(usage))
	for name := range usage {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []Warning
	for _, name := range names {
		u := usage[name]
		if w, ok := warningFor(service+"."+name, u.Count, u.Max); ok {
			out = append(out, w)
		}
	}
	return out
}

// warningFor returns a warning above 80% use, critical above 90%.
func warningFor(service string, used, limit int) (Warning, bool) {
	if limit <= 0 {
		return Warning{}, false
	}
	pct := float64(used) / float64(limit) * 100
	if pct <= warnThreshold {
		return Warning{}, false
	}

	severity := "warning"
	if pct > criticalThreshold {
		severity = "critical"
	}
	return Warning{
		Service:  service,
		Message:  fmt.Sprintf("%s at %.1f%% of limit", service, pct),
		Severity: severity,
	}, true
}
