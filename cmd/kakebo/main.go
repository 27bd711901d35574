package main

import (
	"context"
	"os"

	"kakebo/internal/cli"
)

func main() {
	ctx, stop := cli.SignalContext(context.Background())
	code := cli.Execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
