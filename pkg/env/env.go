package env

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robotalks/lwbhost/pkg/bolt"
	boltmqtt "github.com/robotalks/lwbhost/pkg/bolt/mqtt"
	"github.com/robotalks/lwbhost/pkg/bolt/stream"
	"github.com/robotalks/lwbhost/pkg/bolt/websocket"
	fx "github.com/robotalks/lwbhost/pkg/framework"
	"github.com/robotalks/lwbhost/pkg/host"
	"github.com/robotalks/lwbhost/pkg/lwb"
	lwbmqtt "github.com/robotalks/lwbhost/pkg/lwb/mqtt"
	"github.com/robotalks/lwbhost/pkg/lwb/sim"
	"github.com/robotalks/lwbhost/pkg/mqtt"
)

// Env is the runtime environment of a host node.
type Env struct {
	Config   *Config
	Stack    lwb.Stack
	Link     bolt.Link
	Registry *prometheus.Registry
	Metrics  *host.Metrics

	runnables  []fx.Runnable
	onRoundEnd *func()
}

// NewEnv creates Env from config.
func (c *Config) NewEnv() (*Env, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	env := &Env{Config: c, Registry: prometheus.NewRegistry()}
	env.Registry.MustRegister(collectors.NewGoCollector())
	env.Metrics = host.NewMetrics(env.Registry)
	if err := env.setupBus(); err != nil {
		return nil, err
	}
	if err := env.setupBolt(); err != nil {
		return nil, err
	}
	if c.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(env.Registry, promhttp.HandlerOpts{}))
		env.runnables = append(env.runnables, fx.NamedRun("metrics", serveHTTP(c.MetricsAddr, mux)))
	}
	return env, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	env, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return env
}

func (e *Env) setupBus() error {
	c := e.Config
	if c.BusURL == "sim" {
		s := sim.New(c.TxQueueLen)
		s.RoundUnit = c.RoundUnit
		for i := 0; i < c.SimSources; i++ {
			s.Sources = append(s.Sources, lwb.NodeID(int(c.NodeID)+i+1))
		}
		s.Sink = func(pkt lwb.Packet) {
			glog.V(2).Infof("sim: %d bytes transmitted to node %d", len(pkt.Data), pkt.Recipient)
		}
		e.Stack, e.onRoundEnd = s, &s.OnRoundEnd
		e.runnables = append(e.runnables, fx.NamedRun("bus", s))
		return nil
	}
	q, err := mqtt.NewQueueFromURL(c.BusURL)
	if err != nil {
		return fmt.Errorf("bus: %w", err)
	}
	b := lwbmqtt.NewBus(q, c.TxQueueLen)
	b.RoundUnit = c.RoundUnit
	e.Stack, e.onRoundEnd = b, &b.OnRoundEnd
	e.runnables = append(e.runnables, fx.NamedRun("bus", b))
	return nil
}

func (e *Env) setupBolt() error {
	c := e.Config
	if c.BoltURL == "none" {
		e.Link = bolt.NewQueue(c.BoltQueueLen)
		return nil
	}
	u, err := url.Parse(c.BoltURL)
	if err != nil {
		return err
	}
	var connect bolt.Connector
	switch u.Scheme {
	case "tcp":
		l, err := net.Listen("tcp", u.Host)
		if err != nil {
			return fmt.Errorf("bolt: %w", err)
		}
		connect = stream.Accept(l)
	case "ws":
		srv := websocket.NewServer()
		mux := http.NewServeMux()
		path := u.Path
		if path == "" {
			path = "/"
		}
		mux.Handle(path, srv)
		e.runnables = append(e.runnables, fx.NamedRun("bolt-ws", serveHTTP(u.Host, mux)))
		connect = srv.Connector()
	case "mqtt":
		q, err := mqtt.NewQueueFromURL(c.BoltURL)
		if err != nil {
			return fmt.Errorf("bolt: %w", err)
		}
		connect = boltmqtt.Connector(q)
	default:
		return fmt.Errorf("bolt: unsupported scheme %q", u.Scheme)
	}
	pipe := bolt.NewPipe(connect, c.BoltQueueLen)
	e.Link = pipe
	e.runnables = append(e.runnables, pipe)
	return nil
}

// NodeOptions returns the options of the host node.
func (e *Env) NodeOptions() host.Options {
	return host.Options{
		NodeID:      lwb.NodeID(e.Config.NodeID),
		ClockHz:     e.Config.ClockHz,
		ClockOffset: e.Config.ClockOffset,
	}
}

// NewNode creates the host node on this env.
func (e *Env) NewNode() *host.Node {
	return host.NewNode(e.NodeOptions(), e.Stack, e.Link, e.Metrics)
}

// AddToLoop implements fx.LoopAdder. Every bus round triggers a loop
// iteration.
func (e *Env) AddToLoop(l *fx.Loop) {
	l.Interval = e.Config.LoopInterval
	*e.onRoundEnd = l.TriggerNext
	l.AddRunnable(e.runnables...)
}

func serveHTTP(addr string, handler http.Handler) fx.Runnable {
	return fx.RunFunc(func(ctx context.Context) error {
		srv := &http.Server{Addr: addr, Handler: handler}
		return fx.RunWithContextCancel(ctx, func() { srv.Close() }, srv.ListenAndServe)
	})
}
