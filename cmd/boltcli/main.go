package main

import (
	"github.com/robotalks/lwbhost/pkg/cli/sh"

	_ "github.com/robotalks/lwbhost/pkg/cli/cmds/lwb"
)

//go-build: CGO_ENABLED=0

func main() {
	sh.Main()
}
