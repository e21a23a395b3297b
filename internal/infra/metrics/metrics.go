package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PostsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postline_posts_published_total",
		Help: "Posts delivered to channels.",
	})

	PostsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postline_posts_failed_total",
		Help: "Posts that failed to deliver.",
	})

	SubscriptionsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postline_subscriptions_expired_total",
		Help: "Accounts demoted to the free tariff by the expiry sweep.",
	})

	DialogsPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postline_dialogs_pruned_total",
		Help: "Abandoned dialog sessions removed by the idle sweep.",
	})
)
