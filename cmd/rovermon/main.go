package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/rover.go/pkg/bridge"
	"github.com/robotalks/rover.go/pkg/bridge/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/rover/"
)

func init() {
	if val := os.Getenv("ROVER_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.ConnectURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}

	q.Sub("+/+/"+mqtt.TopicMeta, func(topic string, payload []byte) {
		log.Printf("%s: %s", topic, string(payload))
	})
	q.Sub(mqtt.TopicTelemetryFilter, func(topic string, payload []byte) {
		var msg proto.Message
		switch {
		case strings.HasSuffix(topic, "/"+mqtt.TopicMotorTelemetry):
			msg = &bridge.MotorTelemetry{}
		case strings.HasSuffix(topic, "/"+mqtt.TopicArmTelemetry):
			msg = &bridge.ArmTelemetry{}
		default:
			return
		}
		if err := proto.Unmarshal(payload, msg); err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		log.Printf("%s: %s", topic, msg.String())
	})
	<-(chan struct{})(nil)
}
