package memory

import (
	"math"
	"sort"
	"sync"

	"github.com/signal-otp-api/internal/domain"
	"github.com/signal-otp-api/internal/pkg/clock"
)

// UsageTracker keeps the most recent request records, evicting the oldest.
type UsageTracker struct {
	mu       sync.Mutex
	records  []domain.UsageRecord
	capacity int
	clock    clock.Clock
}

func NewUsageTracker(capacity int, clk clock.Clock) *UsageTracker {
	if clk == nil {
		clk = clock.Real{}
	}
	return &UsageTracker{capacity: capacity, clock: clk}
}

func (u *UsageTracker) Record(endpoint string, responseTimeMs int64, success bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.records = append(u.records, domain.UsageRecord{
		Timestamp:    u.clock.Now().UTC(),
		Endpoint:     endpoint,
		ResponseTime: responseTimeMs,
		Success:      success,
	})
	if u.capacity > 0 && len(u.records) > u.capacity {
		u.records = u.records[len(u.records)-u.capacity:]
	}
}

// Stats summarises recorded requests. Days and months are computed in UTC.
func (u *UsageTracker) Stats() domain.UsageStats {
	u.mu.Lock()
	records := make([]domain.UsageRecord, len(u.records))
	copy(records, u.records)
	u.mu.Unlock()

	now := u.clock.Now().UTC()
	today := now.Format("2006-01-02")
	month := now.Format("2006-01")

	st := domain.UsageStats{TotalRequests: len(records)}
	var timed, totalTime int64
	failures := 0
	perEndpoint := map[string]int{}
	perDay := map[string]int{}
	for _, r := range records {
		day := r.Timestamp.Format("2006-01-02")
		perDay[day]++
		if day == today {
			st.RequestsToday++
		}
		if r.Timestamp.Format("2006-01") == month {
			st.RequestsThisMonth++
		}
		if r.ResponseTime > 0 {
			timed++
			totalTime += r.ResponseTime
		}
		if !r.Success {
			failures++
		}
		perEndpoint[r.Endpoint]++
	}
	if timed > 0 {
		st.AverageResponseTime = int64(math.Round(float64(totalTime) / float64(timed)))
	}
	if len(records) > 0 {
		st.ErrorRate = math.Round(float64(failures)/float64(len(records))*100*100) / 100
	}

	st.TopEndpoints = make([]domain.EndpointCount, 0, len(perEndpoint))
	for ep, n := range perEndpoint {
		st.TopEndpoints = append(st.TopEndpoints, domain.EndpointCount{Endpoint: ep, Count: n})
	}
	sort.Slice(st.TopEndpoints, func(i, j int) bool {
		if st.TopEndpoints[i].Count == st.TopEndpoints[j].Count {
			return st.TopEndpoints[i].Endpoint < st.TopEndpoints[j].Endpoint
		}
		return st.TopEndpoints[i].Count > st.TopEndpoints[j].Count
	})
	if len(st.TopEndpoints) > 5 {
		st.TopEndpoints = st.TopEndpoints[:5]
	}

	st.DailyBreakdown = make([]domain.DailyCount, 0, 7)
	for i := 6; i >= 0; i-- {
		d := now.AddDate(0, 0, -i).Format("2006-01-02")
		st.DailyBreakdown = append(st.DailyBreakdown, domain.DailyCount{Date: d, Requests: perDay[d]})
	}
	return st
}
