// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostsCreated counts successfully created posts.
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_posts_created_total",
		Help: "Total number of posts created",
	})

	// LikeToggles counts like toggles by resulting action (like, unlike).
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_like_toggles_total",
		Help: "Total number of like toggles by action",
	}, []string{"action"})

	CommentsAdded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_comments_added_total",
		Help: "Total number of comments added",
	})

	// FollowToggles counts follow toggles by resulting action (follow, unfollow).
	FollowToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_follow_toggles_total",
		Help: "Total number of follow toggles by action",
	}, []string{"action"})

	NotificationsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_notifications_recorded_total",
		Help: "Total number of notifications recorded by type",
	}, []string{"type"})

	// HTTPRequestDuration records request latency by method, route and status.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feed_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Toggle returns the label for a toggle that ended in state on.
func Toggle(on bool, onLabel, offLabel string) string {
	if on {
		return onLabel
	}
	return offLabel
}

// Middleware observes every request in HTTPRequestDuration. The route label
// is the registered path, not the raw URL. statusOf gives the status a
// returned error will be rendered with.
func Middleware(statusOf func(error) int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				status = statusOf(err)
			}
			HTTPRequestDuration.
				WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}
