package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsBlocked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusgate_requests_blocked_total",
		Help: "Requests blocked by the defense chain, by detector and status code.",
	}, []string{"detector", "status_code"})

	BansIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusgate_bans_issued_total",
		Help: "Ban records written, by detector.",
	}, []string{"detector"})

	BanGateDenied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campusgate_ban_gate_denied_total",
		Help: "Requests denied at the ban gate, including fail-closed denials.",
	})

	ExamWindowsFlagged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campusgate_exam_windows_flagged_total",
		Help: "Exam access windows flagged as suspicious.",
	})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "campusgate_request_duration_seconds",
		Help:    "Request latency by route and status code.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "status_code"})
)
