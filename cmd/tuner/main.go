// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command tuner runs the AleutianTune online tuning service and its
// offline simulator.
//
// # Usage
//
//	# Serve the HTTP API
//	tuner serve --config tuner.yaml
//
//	# Replay a UCB1 bandit against synthetic arms
//	tuner simulate bandit --strategy ucb1 --means 0.2,0.5,0.8 --rounds 500
//
//	# Climb a parabola
//	tuner simulate optimizer --x0 0 --target 3
//
// # Environment Variables
//
// Every config field can be overridden with a TUNER_* variable, e.g.
// TUNER_PORT or TUNER_LOG_LEVEL. Flags win over both.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
