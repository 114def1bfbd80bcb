package main

import (
	"fmt"
	"os"

	"github.com/probitlabs/hostprep/cmd"
	"github.com/probitlabs/hostprep/pkg/logger"
	"github.com/probitlabs/hostprep/pkg/telemetry"
)

func main() {
	logger.InitializeWithFallback()

	if err := telemetry.Init("hostprep"); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry init failed: %v\n", err)
	}

	cmd.Execute()
}
