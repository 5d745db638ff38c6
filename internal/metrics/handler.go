package metrics

import (
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"time"

	dto "github.com/prometheus/client_model/go"
)

// Summary is the JSON body served by SummaryHandler.
type Summary struct {
	HTTP      httpSummary   `json:"http"`
	Accounts  accountsInfo  `json:"accounts"`
	Reports   reportsInfo   `json:"reports"`
	RateLimit rateLimitInfo `json:"rateLimit"`
	DB        dbInfo        `json:"db"`
	Server    serverInfo    `json:"server"`
}

type httpSummary struct {
	TotalRequests float64 `json:"totalRequests"`
	ErrorRate     float64 `json:"errorRate"`
	P50Latency    float64 `json:"p50Latency"`
	P95Latency    float64 `json:"p95Latency"`
	P99Latency    float64 `json:"p99Latency"`
}

type accountsInfo struct {
	Registrations float64 `json:"registrations"`
	LoginSuccess  float64 `json:"loginSuccess"`
	LoginFailure  float64 `json:"loginFailure"`
}

type reportsInfo struct {
	Created   float64 `json:"created"`
	Updated   float64 `json:"updated"`
	Deleted   float64 `json:"deleted"`
	Conflicts float64 `json:"conflicts"`
}

type rateLimitInfo struct {
	Rejections float64 `json:"rejections"`
}

type dbInfo struct {
	TotalConns    float64 `json:"totalConns"`
	IdleConns     float64 `json:"idleConns"`
	AcquiredConns float64 `json:"acquiredConns"`
}

type serverInfo struct {
	StartTime     float64 `json:"startTime"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

// SummaryHandler serves a compact JSON digest of the registry.
func (m *Metrics) SummaryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		families, err := m.registry.Gather()
		if err != nil {
			http.Error(w, "failed to gather metrics", http.StatusInternalServerError)
			return
		}

		fam := make(map[string]*dto.MetricFamily, len(families))
		for _, f := range families {
			fam[f.GetName()] = f
		}

		requests := fam["mentorsync_http_requests_total"]
		latency := fam["mentorsync_http_request_duration_seconds"]
		writes := fam["mentorsync_report_writes_total"]
		started := gaugeValue(fam["mentorsync_server_start_time_seconds"])

		summary := Summary{
			HTTP: httpSummary{
				TotalRequests: sumCounter(requests),
				ErrorRate:     errorRate(requests),
				P50Latency:    histogramPercentile(latency, 0.50),
				P95Latency:    histogramPercentile(latency, 0.95),
				P99Latency:    histogramPercentile(latency, 0.99),
			},
			Accounts: accountsInfo{
				Registrations: sumCounter(fam["mentorsync_registrations_total"]),
				LoginSuccess:  sumCounter(fam["mentorsync_logins_total"], "result", "success"),
				LoginFailure:  sumCounter(fam["mentorsync_logins_total"], "result", "failure"),
			},
			Reports: reportsInfo{
				Created:   sumCounter(writes, "op", "create", "outcome", "ok"),
				Updated:   sumCounter(writes, "op", "update", "outcome", "ok"),
				Deleted:   sumCounter(writes, "op", "delete", "outcome", "ok"),
				Conflicts: sumCounter(writes, "outcome", "conflict"),
			},
			RateLimit: rateLimitInfo{
				Rejections: sumCounter(fam["mentorsync_ratelimit_rejections_total"]),
			},
			DB: dbInfo{
				TotalConns:    gaugeValue(fam["mentorsync_db_pool_total_conns"]),
				IdleConns:     gaugeValue(fam["mentorsync_db_pool_idle_conns"]),
				AcquiredConns: gaugeValue(fam["mentorsync_db_pool_acquired_conns"]),
			},
			Server: serverInfo{
				StartTime:     started,
				UptimeSeconds: float64(time.Now().Unix()) - started,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache, no-store")
		_ = json.NewEncoder(w).Encode(summary)
	}
}

// matches reports whether m carries every name/value pair in labels.
func matches(m *dto.Metric, labels []string) bool {
	for i := 0; i+1 < len(labels); i += 2 {
		found := false
		for _, lp := range m.GetLabel() {
			if lp.GetName() == labels[i] && lp.GetValue() == labels[i+1] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// sumCounter totals the counters in f whose labels include every pair given.
func sumCounter(f *dto.MetricFamily, labels ...string) float64 {
	if f == nil {
		return 0
	}
	var total float64
	for _, m := range f.GetMetric() {
		if m.GetCounter() != nil && matches(m, labels) {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func gaugeValue(f *dto.MetricFamily) float64 {
	if f == nil || len(f.GetMetric()) == 0 {
		return 0
	}
	return f.GetMetric()[0].GetGauge().GetValue()
}

// errorRate is the share of requests answered with a 4xx or 5xx status.
func errorRate(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	var total, failed float64
	for _, m := range f.GetMetric() {
		if m.GetCounter() == nil {
			continue
		}
		v := m.GetCounter().GetValue()
		total += v
		for _, lp := range m.GetLabel() {
			if lp.GetName() == "status_code" && lp.GetValue() >= "400" {
				failed += v
			}
		}
	}
	if total == 0 {
		return 0
	}
	return failed / total
}

// histogramPercentile estimates quantile q across every series in f by
// linear interpolation inside the matching bucket.
func histogramPercentile(f *dto.MetricFamily, q float64) float64 {
	if f == nil {
		return 0
	}

	var samples uint64
	cumulative := make(map[float64]uint64)
	for _, m := range f.GetMetric() {
		h := m.GetHistogram()
		if h == nil {
			continue
		}
		samples += h.GetSampleCount()
		for _, b := range h.GetBucket() {
			cumulative[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}
	if samples == 0 {
		return 0
	}

	bounds := make([]float64, 0, len(cumulative))
	for ub := range cumulative {
		if !math.IsInf(ub, 1) {
			bounds = append(bounds, ub)
		}
	}
	sort.Float64s(bounds)

	rank := q * float64(samples)
	var prevBound float64
	var prevCount uint64
	for _, ub := range bounds {
		count := cumulative[ub]
		if float64(count) >= rank {
			inBucket := count - prevCount
			if inBucket == 0 {
				return ub
			}
			return prevBound + (rank-float64(prevCount))/float64(inBucket)*(ub-prevBound)
		}
		prevBound, prevCount = ub, count
	}

	if len(bounds) > 0 {
		return bounds[len(bounds)-1]
	}
	return 0
}
