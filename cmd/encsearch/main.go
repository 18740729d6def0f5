// Command encsearch ingests and searches an encrypted product catalog.
//
// Usage:
//
//	encsearch [-config encsearch.yaml] <command> [flags] [args]
//
// Commands:
//
//	keygen  -out keys.json      write three fresh keys to a key file
//	seed    [-reset]            ingest the sample catalog
//	add     -name ... -price ... ingest one product
//	search  <keyword>           keyword search
//	lookup  <name>              exact name search (case-insensitive)
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}
