package main

import (
	"flag"
	"log"
	"os"

	"github.com/robotalks/lwbhost/pkg/cli/sh"
	lwbmqtt "github.com/robotalks/lwbhost/pkg/lwb/mqtt"
	"github.com/robotalks/lwbhost/pkg/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/lwb/"
)

func init() {
	if val := os.Getenv("LWB_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		switch topic {
		case lwbmqtt.TopicSched:
			log.Printf("%s: %s", topic, string(payload))
		case lwbmqtt.TopicTimeReq:
			log.Printf("%s", topic)
		default:
			log.Printf("%s: %s", topic, sh.Describe(payload))
		}
	}))
	if err := q.Connect(); err != nil {
		log.Fatalln(err)
	}
	<-(chan struct{})(nil)
}
