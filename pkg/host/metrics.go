package host

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "lwbhost"

// Metrics holds the counters of a host node.
type Metrics struct {
	Relayed         prometheus.Counter
	RelayInvalid    prometheus.Counter
	BoltRead        prometheus.Counter
	BoltWriteErrors prometheus.Counter
	Sent            prometheus.Counter
	SendDropped     prometheus.Counter
	Timestamps      prometheus.Counter
	Sleeps          prometheus.Counter
	SleepAborts     prometheus.Counter
	PowerState      prometheus.Gauge
}

func newCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      name,
		Help:      help,
	})
}

// NewMetrics creates the metrics and registers them on reg, if not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Relayed:         newCounter("bus_packets_relayed_total", "Bus packets written to BOLT."),
		RelayInvalid:    newCounter("bus_packets_invalid_total", "Bus packets dropped for an invalid header."),
		BoltRead:        newCounter("bolt_messages_read_total", "Non-empty messages read from BOLT."),
		BoltWriteErrors: newCounter("bolt_write_errors_total", "Failed writes to BOLT."),
		Sent:            newCounter("bus_messages_sent_total", "Messages queued for transmission on the bus."),
		SendDropped:     newCounter("bus_messages_dropped_total", "Messages dropped because the bus queue was full."),
		Timestamps:      newCounter("timestamps_total", "Timestamps written to BOLT."),
		Sleeps:          newCounter("sleeps_total", "Completed pause and resume cycles."),
		SleepAborts:     newCounter("sleep_aborts_total", "Pause attempts aborted by pending BOLT data."),
		PowerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "power_state",
			Help:      "Power state: 0 active, 1 flushing, 2 armed.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.Relayed, m.RelayInvalid, m.BoltRead, m.BoltWriteErrors,
			m.Sent, m.SendDropped, m.Timestamps,
			m.Sleeps, m.SleepAborts, m.PowerState,
		)
	}
	return m
}
