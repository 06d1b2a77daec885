// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Airstream Components
//
// izonectl - iZone controller client
//
// A CLI tool for discovering, monitoring and controlling iZone air
// conditioning controllers over their HTTP JSON protocol.

package main

import (
	"os"

	"github.com/airstream/izonectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
