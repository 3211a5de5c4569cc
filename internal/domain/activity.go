package domain

import "time"

// Activity is one inbound API call.
type Activity struct {
	ID             string            `json:"id"`
	Timestamp      time.Time         `json:"timestamp"`
	Method         string            `json:"method"`
	Endpoint       string            `json:"endpoint"`
	Payload        interface{}       `json:"payload,omitempty"`
	Headers        map[string]string `json:"headers,omitempty"`
	UserAgent      string            `json:"userAgent,omitempty"`
	ClientIP       string            `json:"clientIP,omitempty"`
	ResponseStatus int               `json:"responseStatus,omitempty"`
	ResponseTime   int64             `json:"responseTime"` // milliseconds
}

// OutboundActivity is one call this service made to an external URL.
type OutboundActivity struct {
	ID             string            `json:"id"`
	Timestamp      time.Time         `json:"timestamp"`
	Method         string            `json:"method"`
	TargetURL      string            `json:"targetUrl"`
	Payload        interface{}       `json:"payload,omitempty"`
	Headers        map[string]string `json:"headers,omitempty"`
	ResponseStatus int               `json:"responseStatus,omitempty"`
	ResponseTime   int64             `json:"responseTime"` // milliseconds
	ResponseData   interface{}       `json:"responseData,omitempty"`
	Success        bool              `json:"success"`
	Error          string            `json:"error,omitempty"`
	Trigger        string            `json:"trigger,omitempty"`
	TriggerPayload interface{}       `json:"triggerPayload,omitempty"`
}

// Outbound trigger labels.
const (
	TriggerSignalPost    = "Signal Post"
	TriggerManualForward = "Manual Forward"
	TriggerAutoForward   = "Auto Forward"
)

// UsageRecord is one served request, used for usage statistics.
type UsageRecord struct {
	Timestamp    time.Time
	Endpoint     string
	ResponseTime int64 // milliseconds
	Success      bool
}

// EndpointCount is a request count for one endpoint.
type EndpointCount struct {
	Endpoint string `json:"endpoint"`
	Count    int    `json:"count"`
}

// DailyCount is a request count for one calendar day (UTC).
type DailyCount struct {
	Date     string `json:"date"`
	Requests int    `json:"requests"`
}

// UsageStats summarises recorded requests.
type UsageStats struct {
	TotalRequests       int             `json:"totalRequests"`
	RequestsToday       int             `json:"requestsToday"`
	RequestsThisMonth   int             `json:"requestsThisMonth"`
	AverageResponseTime int64           `json:"averageResponseTime"`
	ErrorRate           float64         `json:"errorRate"`
	TopEndpoints        []EndpointCount `json:"topEndpoints"`
	DailyBreakdown      []DailyCount    `json:"dailyBreakdown"`
}
