package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"

	"github.com/robotalks/rover.go/pkg/bridge"
	"github.com/robotalks/rover.go/pkg/bridge/mqtt"
	"github.com/robotalks/rover.go/pkg/env"
	fx "github.com/robotalks/rover.go/pkg/framework"
)

var pollInterval = bridge.DefaultPollInterval

func init() {
	env.SetupFlags()
	flag.DurationVar(&pollInterval, "poll", pollInterval, "Telemetry poll interval.")
}

func main() {
	flag.Parse()

	conf := env.MustLoadConfig()
	cli := conf.MustNewClient()
	q, err := mqtt.ConnectURL(conf.MQTTBrokerURL,
		mqtt.WithWill(conf.Ref.Name()+"/"+mqtt.TopicMeta),
		mqtt.WithClientID("rover-bridge:"+conf.Ref.Name()))
	if err != nil {
		log.Fatalf("connect %s: %v", conf.MQTTBrokerURL, err)
	}
	defer q.Close()

	b := bridge.New(cli, q, conf.Ref.Type, conf.Ref.ID)
	if pollInterval > 0 {
		b.PollInterval = pollInterval
	}

	runner := fx.NewRunner().HandleSignals().WithStopOnExit(true)
	runner.Go(cli, fx.NamedRun("bridge", b))
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
