package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"workforce/backend/internal/commands"
)

func main() {
	logger := log.New(os.Stdout, "ATTENDANCE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx, logger); err != nil {
		if errors.Is(err, commands.ErrHelp) {
			return
		}
		logger.Printf("main : error : %v", err)
		stop()
		os.Exit(1)
	}
}
