package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reviewsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviews_created_total",
		Help: "Total number of reviews stored.",
	})

	reviewsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviews_deleted_total",
		Help: "Total number of reviews removed by their authors.",
	})

	reviewDuplicatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "review_duplicates_total",
		Help: "Total number of reviews rejected because the user already reviewed the book.",
	})

	ratingRecomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rating_recompute_duration_seconds",
		Help:    "Time spent recomputing a book's rating aggregate.",
		Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	authAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_attempts_total",
		Help: "Total number of signup and login attempts by outcome.",
	}, []string{"operation", "outcome"})
)

// Auth metric label values.
const (
	opSignup = "signup"
	opLogin  = "login"

	outcomeSuccess   = "success"
	outcomeDuplicate = "duplicate"
	outcomeRejected  = "rejected"
	outcomeError     = "error"
)
