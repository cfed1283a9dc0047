package env

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/lwbhost/pkg/bolt"
	"github.com/robotalks/lwbhost/pkg/lwb/sim"
)

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{"default", func(*Config) {}, true},
		{"zero node id", func(c *Config) { c.NodeID = 0 }, false},
		{"broadcast node id", func(c *Config) { c.NodeID = 0xffff }, false},
		{"mqtt bus", func(c *Config) { c.BusURL = "mqtt://localhost:1883/lwb/" }, true},
		{"unknown bus", func(c *Config) { c.BusURL = "udp://x" }, false},
		{"ws bolt", func(c *Config) { c.BoltURL = "ws://:7001/bolt" }, true},
		{"no bolt", func(c *Config) { c.BoltURL = "none" }, true},
		{"empty bolt", func(c *Config) { c.BoltURL = "" }, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewConfig()
			c.NodeID = 1
			tc.modify(c)
			if tc.valid {
				require.NoError(t, c.Validate())
			} else {
				require.Error(t, c.Validate())
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "host.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
node_id: 42
bus_url: sim
bolt_url: none
clock_offset_us: 1500
tx_queue_len: 0
round_unit: 10ms
`), 0644))
	c := NewConfig()
	require.NoError(t, c.LoadFile(path))
	require.Equal(t, uint16(42), c.NodeID)
	require.Equal(t, "none", c.BoltURL)
	require.Equal(t, uint64(1500), c.ClockOffset)
	require.Equal(t, defaultConfig.TxQueueLen, c.TxQueueLen)
	require.Equal(t, 10*time.Millisecond, c.RoundUnit)

	require.NoError(t, os.WriteFile(path, []byte("node_id: 0\n"), 0644))
	require.Error(t, NewConfig().LoadFile(path))
	require.Error(t, NewConfig().LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestNodeIDFlagValue(t *testing.T) {
	var id uint16
	v := nodeIDValue{&id}
	require.NoError(t, v.Set("0x10"))
	require.Equal(t, uint16(16), id)
	require.Equal(t, "16", v.String())
	require.Error(t, v.Set("70000"))
}

func TestNewEnvSim(t *testing.T) {
	c := NewConfig()
	c.NodeID = 5
	c.BusURL, c.BoltURL, c.MetricsAddr = "sim", "none", ""
	c.SimSources = 3
	env, err := c.NewEnv()
	require.NoError(t, err)
	s, ok := env.Stack.(*sim.Stack)
	require.True(t, ok)
	require.Len(t, s.Sources, 3)
	_, ok = env.Link.(*bolt.Queue)
	require.True(t, ok)

	node := env.NewNode()
	require.NotNil(t, node.Dispatcher)
}

func TestNewEnvTCP(t *testing.T) {
	c := NewConfig()
	c.NodeID = 5
	c.BoltURL, c.MetricsAddr = "tcp://127.0.0.1:0", ""
	env, err := c.NewEnv()
	require.NoError(t, err)
	_, ok := env.Link.(*bolt.Pipe)
	require.True(t, ok)
}
