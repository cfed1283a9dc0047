// Package lwb adds bus-control commands to the observer shell.
package lwb

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/lwbhost/pkg/cli/sh"
	"github.com/robotalks/lwbhost/pkg/msg"
)

func parseUint16(c *ishell.Context, index int, name string) (uint16, bool) {
	if len(c.Args) <= index {
		c.Err(fmt.Errorf("%s required", name))
		return 0, false
	}
	val, err := strconv.ParseUint(c.Args[index], 0, 16)
	if err != nil {
		c.Err(fmt.Errorf("invalid %s: %v", name, err))
		return 0, false
	}
	return uint16(val), true
}

func send(c *ishell.Context, cmd msg.Command) {
	if err := sh.ShellFrom(c).SendCommand(cmd); err != nil {
		c.Err(err)
	}
}

var (
	// RoundPeriodCmd sets the round period of the bus.
	RoundPeriodCmd = ishell.Cmd{
		Name:    "period",
		Aliases: []string{"p"},
		Help:    "SECONDS",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			val, ok := parseUint16(c, 0, "SECONDS")
			if ok {
				send(c, msg.Command{Kind: msg.CmdSetRoundPeriod, Value: val})
			}
		}),
	}

	// StatusPeriodCmd sets the status period of a source node.
	StatusPeriodCmd = ishell.Cmd{
		Name:    "status-period",
		Aliases: []string{"sp"},
		Help:    "NODE SECONDS (NODE 65535 for all)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			node, ok := parseUint16(c, 0, "NODE")
			if !ok {
				return
			}
			val, ok := parseUint16(c, 1, "SECONDS")
			if ok {
				send(c, msg.Command{Kind: msg.CmdSetStatusPeriod, TargetID: node, Value: val})
			}
		}),
	}

	// PauseCmd pauses the bus.
	PauseCmd = ishell.Cmd{
		Name: "pause",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			send(c, msg.Command{Kind: msg.CmdPause})
		}),
	}

	// ResumeCmd resumes the bus.
	ResumeCmd = ishell.Cmd{
		Name: "resume",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			send(c, msg.Command{Kind: msg.CmdResume})
		}),
	}
)

func init() {
	sh.AddCmds(
		&RoundPeriodCmd,
		&StatusPeriodCmd,
		&PauseCmd,
		&ResumeCmd,
	)
}
