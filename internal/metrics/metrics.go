// Package metrics exposes Prometheus counters for the client transport and
// the actor subsystem.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"actornet/actors"
	"actornet/internal/netcode"
	"actornet/internal/packet"
	"actornet/networkentity"
	"actornet/session"
)

const namespace = "actornet"

type Metrics struct {
	Registry *prometheus.Registry

	packetsSent     *prometheus.CounterVec
	packetsReceived *prometheus.CounterVec
	streamEvents    *prometheus.CounterVec
	damageReports   prometheus.Counter
	damageAmount    prometheus.Histogram
	actors          prometheus.Gauge
	sessions        prometheus.Gauge
	tickDuration    prometheus.Histogram
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := &Metrics{
		Registry: reg,
		packetsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_sent_total",
			Help:      "Frames handed to client transports, by packet name.",
		}, []string{"packet"}),
		packetsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_received_total",
			Help:      "Frames read from clients, by frame type.",
		}, []string{"type"}),
		streamEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actor_stream_events_total",
			Help:      "Actor stream transitions, by direction.",
		}, []string{"direction"}),
		damageReports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actor_damage_reports_total",
			Help:      "Accepted damage reports against vulnerable actors.",
		}),
		damageAmount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "actor_damage_amount",
			Help:      "Damage carried by accepted reports.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 200},
		}),
		actors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "actors",
			Help:      "Live actors.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Connected client sessions.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Time spent in one simulation tick.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
	}
	reg.MustRegister(m.packetsSent, m.packetsReceived, m.streamEvents,
		m.damageReports, m.damageAmount, m.actors, m.sessions, m.tickDuration)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) Received(typ packet.Type) {
	m.packetsReceived.WithLabelValues(typ.String()).Inc()
}

// ObserveTick records how long one tick took.
func (m *Metrics) ObserveTick(d time.Duration) {
	m.tickDuration.Observe(d.Seconds())
}

// Entity wraps a transport so every frame it accepts is counted.
func (m *Metrics) Entity(e networkentity.NetworkEntity) networkentity.NetworkEntity {
	return &countingEntity{NetworkEntity: e, sent: m.packetsSent}
}

type countingEntity struct {
	networkentity.NetworkEntity
	sent *prometheus.CounterVec
}

func (c *countingEntity) Send(f netcode.Frame) error {
	if err := c.NetworkEntity.Send(f); err != nil {
		return err
	}
	c.sent.WithLabelValues(f.Name).Inc()
	return nil
}

func (m *Metrics) OnActorStreamIn(*actors.Actor, session.Session) {
	m.streamEvents.WithLabelValues("in").Inc()
}

func (m *Metrics) OnActorStreamOut(*actors.Actor, session.Session) {
	m.streamEvents.WithLabelValues("out").Inc()
}

func (m *Metrics) OnPlayerGiveDamageActor(_ session.Session, _ *actors.Actor, amount float32, _ uint32, _ actors.BodyPart) {
	m.damageReports.Inc()
	m.damageAmount.Observe(float64(amount))
}
