package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"

	"github.com/robotalks/lwbhost/pkg/env"
	fx "github.com/robotalks/lwbhost/pkg/framework"
)

var configFile string

func init() {
	env.SetupFlags()
	flag.StringVar(&configFile, "config", configFile, "YAML config file.")
}

func main() {
	flag.Parse()

	conf := env.NewConfig()
	if configFile != "" {
		if err := conf.LoadFile(configFile); err != nil {
			log.Fatalln(err)
		}
	}
	e := conf.MustNewEnv()
	node := e.NewNode()
	node.Init()
	fx.NewLoop().Add(e, node).RunOrFail()
}
