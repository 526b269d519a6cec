package main

import (
	"bookmirror/cmd/bookmirror/commands"
	"bookmirror/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
