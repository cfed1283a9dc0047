// Package env builds the runtime environment of a host node from
// flags, environment variables and an optional YAML file.
package env

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/denisbrodbeck/machineid"
	"gopkg.in/yaml.v3"

	"github.com/robotalks/lwbhost/pkg/lwb"
	"github.com/robotalks/lwbhost/pkg/msg"
)

// Config provides options to setup a host node.
type Config struct {
	NodeID uint16 `yaml:"node_id"`
	// BusURL selects the bus: "sim" or mqtt://host:port/prefix/.
	BusURL string `yaml:"bus_url"`
	// BoltURL is where observers attach: tcp://host:port,
	// ws://host:port/path, mqtt://host:port/prefix/ or "none".
	BoltURL string `yaml:"bolt_url"`

	ClockHz     uint64 `yaml:"clock_hz"`
	ClockOffset uint64 `yaml:"clock_offset_us"`

	TxQueueLen   int `yaml:"tx_queue_len"`
	BoltQueueLen int `yaml:"bolt_queue_len"`

	// RoundUnit is the duration of one period second.
	RoundUnit    time.Duration `yaml:"round_unit"`
	LoopInterval time.Duration `yaml:"loop_interval"`
	// SimSources is the number of source nodes simulated by the sim bus.
	SimSources int `yaml:"sim_sources"`

	MetricsAddr string `yaml:"metrics_addr"`
}

var defaultConfig = Config{
	NodeID:       1,
	BusURL:       "sim",
	BoltURL:      "tcp://:7000",
	ClockHz:      lwb.ClockHz,
	TxQueueLen:   8,
	BoltQueueLen: 16,
	RoundUnit:    time.Second,
	LoopInterval: time.Second,
	SimSources:   2,
	MetricsAddr:  ":9100",
}

func init() {
	if id, err := MachineNodeID(); err == nil {
		defaultConfig.NodeID = id
	}
	if val := os.Getenv("LWB_NODE_ID"); val != "" {
		if id, err := strconv.ParseUint(val, 0, 16); err == nil {
			defaultConfig.NodeID = uint16(id)
		}
	}
	if val := os.Getenv("LWB_BUS_URL"); val != "" {
		defaultConfig.BusURL = val
	}
	if val := os.Getenv("LWB_BOLT_URL"); val != "" {
		defaultConfig.BoltURL = val
	}
	if val := os.Getenv("LWB_METRICS_ADDR"); val != "" {
		defaultConfig.MetricsAddr = val
	}
}

// MachineNodeID derives a node id from the machine id.
func MachineNodeID() (uint16, error) {
	id, err := machineid.ID()
	if err != nil {
		return 0, err
	}
	nodeID := msg.CRC16([]byte(id), 0xffff)
	if nodeID == 0 || nodeID == uint16(lwb.Broadcast) {
		nodeID = 1
	}
	return nodeID, nil
}

type nodeIDValue struct {
	p *uint16
}

func (v nodeIDValue) String() string {
	if v.p == nil {
		return ""
	}
	return strconv.Itoa(int(*v.p))
}

func (v nodeIDValue) Set(s string) error {
	id, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return err
	}
	*v.p = uint16(id)
	return nil
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.Var(nodeIDValue{&defaultConfig.NodeID}, "node-id", "Node ID of the host.")
	flag.StringVar(&defaultConfig.BusURL, "bus", defaultConfig.BusURL, "Bus URL: sim or mqtt://host:port/prefix/.")
	flag.StringVar(&defaultConfig.BoltURL, "bolt", defaultConfig.BoltURL, "BOLT endpoint: tcp://, ws://, mqtt:// or none.")
	flag.Uint64Var(&defaultConfig.ClockOffset, "clock-offset", defaultConfig.ClockOffset, "Offset in microseconds added to timestamps.")
	flag.IntVar(&defaultConfig.TxQueueLen, "tx-queue", defaultConfig.TxQueueLen, "Bus transmit queue length.")
	flag.DurationVar(&defaultConfig.RoundUnit, "round-unit", defaultConfig.RoundUnit, "Duration of one period second.")
	flag.IntVar(&defaultConfig.SimSources, "sim-sources", defaultConfig.SimSources, "Number of simulated source nodes on the sim bus.")
	flag.StringVar(&defaultConfig.MetricsAddr, "metrics", defaultConfig.MetricsAddr, "Metrics listen address, empty to disable.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// LoadFile overrides the config with values from a YAML file.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	c.applyDefaults()
	return c.Validate()
}

func (c *Config) applyDefaults() {
	if c.ClockHz == 0 {
		c.ClockHz = lwb.ClockHz
	}
	if c.TxQueueLen <= 0 {
		c.TxQueueLen = defaultConfig.TxQueueLen
	}
	if c.BoltQueueLen <= 0 {
		c.BoltQueueLen = defaultConfig.BoltQueueLen
	}
	if c.RoundUnit <= 0 {
		c.RoundUnit = time.Second
	}
	if c.LoopInterval <= 0 {
		c.LoopInterval = time.Second
	}
}

// Validate checks the config.
func (c *Config) Validate() error {
	if c.NodeID == 0 || c.NodeID == uint16(lwb.Broadcast) {
		return fmt.Errorf("invalid node id %d", c.NodeID)
	}
	if c.BusURL != "sim" {
		if err := checkURL(c.BusURL, "mqtt"); err != nil {
			return fmt.Errorf("bus_url: %w", err)
		}
	}
	if c.BoltURL != "none" {
		if err := checkURL(c.BoltURL, "tcp", "ws", "mqtt"); err != nil {
			return fmt.Errorf("bolt_url: %w", err)
		}
	}
	return nil
}

func checkURL(s string, schemes ...string) error {
	if s == "" {
		return errors.New("missing")
	}
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	for _, scheme := range schemes {
		if u.Scheme == scheme {
			return nil
		}
	}
	return fmt.Errorf("unsupported scheme %q", u.Scheme)
}
