// Package main is the entry point for eco-alarmctl, the operator CLI for eco-alarm.
package main

import (
	"os"

	"eco-alarm/cmd/eco-alarmctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
