package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"smart-scraper/commands"
)

func main() {
	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		cancel()
	}()

	commands.ExecuteContext(ctx)
}
