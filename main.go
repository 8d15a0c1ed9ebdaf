// main is the entry point for the symnet CLI.
package main

import (
	"github.com/huangsam/symnet/cmd"
	"github.com/huangsam/symnet/internal/contract"
	"github.com/huangsam/symnet/internal/iocache"
)

func main() {
	defer iocache.CloseCaching()
	if err := cmd.Execute(); err != nil {
		contract.LogFatal("Error starting CLI", err)
	}
	if err := cmd.StopProfiling(); err != nil {
		contract.LogWarn("Error stopping profiling", err)
	}
}
