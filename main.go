package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/kzaag/cassdp/cmn"
	"github.com/kzaag/cassdp/target"
)

func main() {
	args := target.NewArgs()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCommand(args).ExecuteContext(ctx); err != nil {
		cmn.CndPrintError(args.Raw, err)
		os.Exit(1)
	}
}
