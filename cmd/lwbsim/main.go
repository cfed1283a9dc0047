package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	fx "github.com/robotalks/lwbhost/pkg/framework"
	"github.com/robotalks/lwbhost/pkg/lwb"
	lwbmqtt "github.com/robotalks/lwbhost/pkg/lwb/mqtt"
	"github.com/robotalks/lwbhost/pkg/mqtt"
)

var (
	mqttURL  = "mqtt://localhost:1883/lwb/"
	nodes    = 3
	firstID  = 2
	period   = 10
	unit     = time.Second
	timeReqs time.Duration
)

func main() {
	if val := os.Getenv("LWB_MQTT_URL"); val != "" {
		mqttURL = val
	}
	root := &cobra.Command{
		Use:   "lwbsim",
		Short: "Simulated LWB source nodes on MQTT",
	}
	run := &cobra.Command{
		Use:   "run",
		Short: "Run source nodes publishing status messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSources()
		},
	}
	run.Flags().StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL")
	run.Flags().IntVarP(&nodes, "nodes", "n", nodes, "Number of source nodes")
	run.Flags().IntVar(&firstID, "first-id", firstID, "Node ID of the first source")
	run.Flags().IntVarP(&period, "period", "p", period, "Initial status period in seconds")
	run.Flags().DurationVar(&unit, "unit", unit, "Duration of one period second")
	run.Flags().DurationVar(&timeReqs, "timereq", timeReqs, "Interval of time requests, 0 to disable")
	root.AddCommand(run)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSources() error {
	if nodes <= 0 || period <= 0 || period > 0xffff {
		return fmt.Errorf("invalid nodes or period")
	}
	r := fx.NewRunner().HandleSignals()
	for i := 0; i < nodes; i++ {
		q, err := mqtt.NewQueueFromURL(mqttURL)
		if err != nil {
			return err
		}
		if err := q.Connect(); err != nil {
			return err
		}
		defer q.Close()
		src := lwbmqtt.NewSource(lwb.NodeID(firstID+i), q, uint16(period))
		src.Unit = unit
		r.Go(fx.NamedRun(fmt.Sprintf("node-%d", src.ID), src))
		if i == 0 && timeReqs > 0 {
			r.Go(fx.NamedRun("timereq", fx.RunFunc(func(ctx context.Context) error {
				ticker := time.NewTicker(timeReqs)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-ticker.C:
						q.Pub(lwbmqtt.TopicTimeReq, nil)
					}
				}
			})))
		}
	}
	return r.Wait()
}
