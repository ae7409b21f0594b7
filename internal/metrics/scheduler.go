package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lepinkainen/marquee/internal/scheduler"
)

// schedulerCollector samples one Stats snapshot per scrape so all values are
// consistent with each other.
type schedulerCollector struct {
	source StatsSource

	queued     *prometheus.Desc
	inWindow   *prometheus.Desc
	inFlight   *prometheus.Desc
	running    *prometheus.Desc
	enqueued   *prometheus.Desc
	dispatched *prometheus.Desc
	succeeded  *prometheus.Desc
	failed     *prometheus.Desc
	canceled   *prometheus.Desc
}

func newSchedulerCollector(source StatsSource) *schedulerCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "scheduler", name), help, nil, nil)
	}
	return &schedulerCollector{
		source:     source,
		queued:     desc("queued", "Requests waiting in the queue."),
		inWindow:   desc("in_window", "Dispatches inside the trailing rate window."),
		inFlight:   desc("in_flight", "Dispatched requests awaiting a response."),
		running:    desc("running", "1 while the dispatch loop is active."),
		enqueued:   desc("enqueued_total", "Requests accepted by Enqueue."),
		dispatched: desc("dispatched_total", "Requests sent to the provider."),
		succeeded:  desc("succeeded_total", "Requests resolved with a payload."),
		failed:     desc("failed_total", "Dispatched requests resolved with an error."),
		canceled:   desc("canceled_total", "Requests withdrawn before dispatch."),
	}
}

func (c *schedulerCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.queued, c.inWindow, c.inFlight, c.running,
		c.enqueued, c.dispatched, c.succeeded, c.failed, c.canceled,
	} {
		ch <- d
	}
}

func (c *schedulerCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()

	running := 0.0
	if s.State == scheduler.Running {
		running = 1
	}

	ch <- prometheus.MustNewConstMetric(c.queued, prometheus.GaugeValue, float64(s.Queued))
	ch <- prometheus.MustNewConstMetric(c.inWindow, prometheus.GaugeValue, float64(s.InWindow))
	ch <- prometheus.MustNewConstMetric(c.inFlight, prometheus.GaugeValue, float64(s.InFlight))
	ch <- prometheus.MustNewConstMetric(c.running, prometheus.GaugeValue, running)
	ch <- prometheus.MustNewConstMetric(c.enqueued, prometheus.CounterValue, float64(s.Enqueued))
	ch <- prometheus.MustNewConstMetric(c.dispatched, prometheus.CounterValue, float64(s.Dispatched))
	ch <- prometheus.MustNewConstMetric(c.succeeded, prometheus.CounterValue, float64(s.Succeeded))
	ch <- prometheus.MustNewConstMetric(c.failed, prometheus.CounterValue, float64(s.Failed))
	ch <- prometheus.MustNewConstMetric(c.canceled, prometheus.CounterValue, float64(s.Canceled))
}
