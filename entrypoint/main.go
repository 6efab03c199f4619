package main

import (
	"os"

	"github.com/Kuljeet1998/healthcare-nlp/logger"
)

var Version = "1.0.0"

func main() {
	logger.SetupLogging()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
