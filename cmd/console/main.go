// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/pressure_node/internal/app"
	"github.com/relabs-tech/pressure_node/internal/config"
)

func main() {
	configPath := flag.String("config", "./pressure_node.yaml", "path to configuration file")
	mock := flag.Bool("mock", false, "emulate the configured transducers")
	flag.Parse()

	log.Println("starting pressure-node console (direct sensor read)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunConsole(ctx, *mock); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
