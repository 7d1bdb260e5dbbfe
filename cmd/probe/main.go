// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"
	"os"

	"github.com/relabs-tech/pressure_node/internal/app"
	"github.com/relabs-tech/pressure_node/internal/config"
)

func main() {
	configPath := flag.String("config", "./pressure_node.yaml", "path to configuration file")
	mock := flag.Bool("mock", false, "probe emulated transducers")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunProbe(os.Stdout, *mock); err != nil {
		log.Fatalf("probe failed: %v", err)
	}
}
