package payload

import (
	"time"

	"github.com/signal-otp-api/internal/domain"
)

const recentOutboundWindow = 5 * time.Minute

type ActivityReport struct {
	Activities []domain.Activity `json:"activities"`
	Total      int               `json:"total"`
	Showing    int               `json:"showing"`
}

type OutboundStats struct {
	SuccessCount int `json:"successCount"`
	FailureCount int `json:"failureCount"`
	RecentCount  int `json:"recentCount"`
}

type OutboundReport struct {
	Activities []domain.OutboundActivity `json:"activities"`
	Total      int                       `json:"total"`
	Showing    int                       `json:"showing"`
	Stats      OutboundStats             `json:"stats"`
}

func (s *service) Activities(limit int) ActivityReport {
	items := s.activities.Recent(limit)
	return ActivityReport{Activities: items, Total: s.activities.Count(), Showing: len(items)}
}

func (s *service) OutboundActivities(limit int) OutboundReport {
	items := s.outbound.Recent(limit)
	return OutboundReport{
		Activities: items,
		Total:      s.outbound.Count(),
		Showing:    len(items),
		Stats: OutboundStats{
			SuccessCount: s.outbound.SuccessCount(),
			FailureCount: s.outbound.FailureCount(),
			RecentCount:  s.outbound.RecentCount(recentOutboundWindow),
		},
	}
}

func (s *service) Usage() domain.UsageStats {
	return s.usage.Stats()
}

// StorageStats counts what is currently held in memory.
type StorageStats struct {
	StoredPayloads     int `json:"storedPayloads"`
	InboundActivities  int `json:"inboundActivities"`
	OutboundActivities int `json:"outboundActivities"`
}

func (s *service) Storage() StorageStats {
	return StorageStats{
		StoredPayloads:     s.payloads.Count(),
		InboundActivities:  s.activities.Count(),
		OutboundActivities: s.outbound.Count(),
	}
}
