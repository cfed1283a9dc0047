package mqtt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchTopic(t *testing.T) {
	testCases := []struct {
		topic  string
		filter string
		match  bool
	}{
		{"up/1", "up/1", true},
		{"up/1", "up/2", false},
		{"up/1", "up/+", true},
		{"up/1/x", "up/+", false},
		{"up", "up/+", false},
		{"up/1/x", "up/#", true},
		{"up", "up/#", true},
		{"down/all", "#", true},
		{"bolt/out", "+/out", true},
		{"bolt/out", "bolt/in", false},
	}
	for _, tc := range testCases {
		t.Run(tc.topic+"~"+tc.filter, func(t *testing.T) {
			require.Equal(t, tc.match, MatchTopic(tc.topic, tc.filter))
		})
	}
}

func TestClientOptionsFromURL(t *testing.T) {
	opts, prefix, err := ClientOptionsFromURL("mqtt://u:p@broker:1883/lwb/test/?client-id=host")
	require.NoError(t, err)
	require.Equal(t, "lwb/test/", prefix)
	require.Len(t, opts.Servers, 1)
	require.Equal(t, "tcp", opts.Servers[0].Scheme)
	require.Equal(t, "broker:1883", opts.Servers[0].Host)
	require.Equal(t, "u", opts.Username)
	require.Equal(t, "p", opts.Password)
	require.Equal(t, "host", opts.ClientID)

	opts, prefix, err = ClientOptionsFromURL("ssl://broker:8883")
	require.NoError(t, err)
	require.Equal(t, "", prefix)
	require.Equal(t, "ssl", opts.Servers[0].Scheme)
}
