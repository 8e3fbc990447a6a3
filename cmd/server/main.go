// Command server runs the CRM workflow backend. It wires configuration,
// logging, the database pool and the workflow services, then blocks
// until SIGINT or SIGTERM.
//
// Exit codes: 0 = clean shutdown, 1 = startup error.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/leaddesk/crm-backend/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
