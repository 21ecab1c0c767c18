package main

import (
	"flag"
	"log"
	"os"

	"booketl/internal/dashboard"
)

// main starts the dashboard server over a directory of rollup artifacts.
func main() {
	addr := flag.String("addr", ":8080", "listen address")
	dataDir := flag.String("data-dir", "", "artifact directory (overrides env BOOKETL_DATA_DIR)")
	flag.Parse()

	dir := *dataDir
	if dir == "" {
		dir = os.Getenv("BOOKETL_DATA_DIR")
	}
	if dir == "" {
		dir = "out"
	}

	srv := dashboard.NewServer(dashboard.Config{Addr: *addr, DataDir: dir})
	log.Printf("dashboard: addr=%s data_dir=%s", *addr, dir)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("server: %v", err)
	}
}
