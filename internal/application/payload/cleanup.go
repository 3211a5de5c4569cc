package payload

import (
	"fmt"
	"time"
)

// Cleanup targets.
const (
	CleanupPayloads   = "payloads"
	CleanupActivities = "activities"
	CleanupBoth       = "both"
)

type CleanupRequest struct {
	MaxAgeDays *float64 `json:"maxAgeDays" validate:"omitempty,gt=0"`
	Type       string   `json:"type" validate:"omitempty,oneof=payloads activities both"`
}

type CleanupResult struct {
	PayloadsDeleted   int       `json:"payloadsDeleted"`
	ActivitiesDeleted int       `json:"activitiesDeleted"`
	TotalDeleted      int       `json:"totalDeleted"`
	CleanedAt         time.Time `json:"-"`
}

type PayloadCleanupStats struct {
	Total              int  `json:"totalPayloads"`
	Old                int  `json:"oldPayloads"`
	AutoCleanupEnabled bool `json:"autoCleanupEnabled"`
}

type ActivityCleanupStats struct {
	Total              int  `json:"totalActivities"`
	Old                int  `json:"oldActivities"`
	AutoCleanupEnabled bool `json:"autoCleanupEnabled"`
}

type AutoCleanupStatus struct {
	Enabled         bool   `json:"enabled"`
	PayloadCleanup  string `json:"payloadCleanup"`
	ActivityCleanup string `json:"activityCleanup"`
}

type CleanupStats struct {
	Payloads      PayloadCleanupStats  `json:"payloads"`
	Activities    ActivityCleanupStats `json:"activities"`
	TotalOldItems int                  `json:"totalOldItems"`
	AutoCleanup   AutoCleanupStatus    `json:"-"`
}

func (s *service) CleanupStats() CleanupStats {
	p := PayloadCleanupStats{
		Total:              s.payloads.Count(),
		Old:                s.payloads.OldCount(s.opts.MaxAge),
		AutoCleanupEnabled: s.opts.PayloadCleanupInterval > 0,
	}
	a := ActivityCleanupStats{
		Total:              s.activities.Count(),
		Old:                s.activities.OldCount(s.opts.MaxAge),
		AutoCleanupEnabled: s.opts.ActivityCleanupInterval > 0,
	}
	return CleanupStats{
		Payloads:      p,
		Activities:    a,
		TotalOldItems: p.Old + a.Old,
		AutoCleanup: AutoCleanupStatus{
			Enabled:         p.AutoCleanupEnabled && a.AutoCleanupEnabled,
			PayloadCleanup:  schedule(s.opts.PayloadCleanupInterval),
			ActivityCleanup: schedule(s.opts.ActivityCleanupInterval),
		},
	}
}

// Cleanup removes items older than the requested age. Activities cover both
// inbound and outbound history.
func (s *service) Cleanup(req CleanupRequest) CleanupResult {
	maxAge := s.opts.MaxAge
	if req.MaxAgeDays != nil {
		maxAge = time.Duration(*req.MaxAgeDays * float64(24*time.Hour))
	}
	target := req.Type
	if target == "" {
		target = CleanupBoth
	}

	var res CleanupResult
	if target == CleanupPayloads || target == CleanupBoth {
		res.PayloadsDeleted = s.payloads.CleanupOlderThan(maxAge)
	}
	if target == CleanupActivities || target == CleanupBoth {
		res.ActivitiesDeleted = s.activities.CleanupOlderThan(maxAge) + s.outbound.CleanupOlderThan(maxAge)
	}
	res.TotalDeleted = res.PayloadsDeleted + res.ActivitiesDeleted
	res.CleanedAt = s.clock.Now().UTC()
	return res
}

func schedule(every time.Duration) string {
	switch {
	case every <= 0:
		return "disabled"
	case every == time.Hour:
		return "every hour"
	case every%time.Hour == 0:
		return fmt.Sprintf("every %d hours", every/time.Hour)
	default:
		return "every " + every.String()
	}
}
