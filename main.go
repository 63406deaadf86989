// turncapp - Computer-aided process planning for lathe turning.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	"github.com/laveshps/turncapp/internal/cli"
)

func main() {
	cmd, args := cli.Parse()

	var err error
	switch cmd {
	case cli.CmdPlan:
		err = cli.HandlePlan(args)
	case cli.CmdChat:
		err = cli.HandleChat(args)
	case cli.CmdModels:
		err = cli.HandleModels(args)
	case cli.CmdStatus:
		err = cli.HandleStatus(args)
	case cli.CmdHistory:
		err = cli.HandleHistory(args)
	case cli.CmdWatch:
		err = cli.HandleWatch(args)
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	case cli.CmdTUI:
		err = cli.HandleTUI(args)
	default:
		cli.PrintUsage()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
