/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Tablero Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/google/tablero/core/diag"
	"github.com/google/tablero/core/rendering"
	"github.com/google/tablero/core/rows"
	"github.com/google/tablero/core/server"
	"github.com/google/tablero/demo"
)

var (
	addr        = flag.String("addr", "127.0.0.1:8097", "address to listen on")
	metricsPath = flag.String("metrics", "/metrics", "path of the Prometheus endpoint; empty disables it")
	verbosity   = flag.Int("v", 0, "log verbosity")
	dump        = flag.String("dump", "", "print the named screen as a text table and exit")
)

func main() {
	flag.Parse()

	stdr.SetVerbosity(*verbosity)
	logger := stdr.New(log.New(os.Stderr, "", log.LstdFlags)).WithName("tablero")

	if *dump != "" {
		if err := dumpScreen(context.Background(), logger, *dump); err != nil {
			log.Fatalf("Failed to dump %s: %v", *dump, err)
		}
		return
	}

	fmt.Println("Starting Tablero...")

	cfg := server.DefaultConfig()
	cfg.Title = "Tablero Demo"
	cfg.Subtitle = "Tenant administration built from data grids"
	cfg.MetricsPath = *metricsPath
	cfg.Logger = logger

	srv, err := demo.SetupDemoServer(cfg)
	if err != nil {
		log.Fatalf("Failed to set up server: %v", err)
	}

	fmt.Printf("Server listening on http://%s\n", *addr)
	fmt.Printf("Try http://%s/?user=alice\n", *addr)
	if cfg.MetricsPath != "" {
		fmt.Printf("Metrics at http://%s%s\n", *addr, cfg.MetricsPath)
	}
	log.Fatal(http.ListenAndServe(*addr, srv.Handler()))
}

// dumpScreen writes every row of a demo screen to stdout.
func dumpScreen(ctx context.Context, logger logr.Logger, name string) error {
	screens, err := demo.Screens(logger)
	if err != nil {
		return err
	}
	for _, sc := range screens {
		if sc.Name() != name {
			continue
		}
		if r, ok := sc.(server.Retrier); ok {
			if err := r.Retry(ctx); err != nil {
				return err
			}
		}
		res, err := sc.Fetch(ctx, server.Request{PageSize: demo.AuditNumEvents})
		if err != nil {
			return err
		}
		idField := sc.Options().IDField
		if idField == "" {
			idField = "id"
		}
		rs := rows.Normalize(res.Rows, rows.FieldExtractor(idField), diag.NewCollector(logger))
		return rendering.Export(os.Stdout, rendering.FormatText, sc.Columns(), nil, rs)
	}
	return fmt.Errorf("unknown screen %q", name)
}
