package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/JustGoscha/zentest/cmd"
)

var version = "dev"

func main() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	done := make(chan bool, 1)
	go func() {
		cmd.SetVersion(version)
		cmd.Execute()
		done <- true
	}()

	select {
	case <-sigChan:
		os.Exit(130)
	case <-done:
	}
}