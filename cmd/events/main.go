package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"rag-presupuestos-be/pkg/events"
	"rag-presupuestos-be/pkg/nats"
)

// Tails the NATS event stream. Useful to watch RAG_QUERY_COMPLETED and
// BUDGET_GENERATED events from outside the API process.
func main() {
	subject := flag.String("subject", "events.>", "subject filter")
	durable := flag.String("durable", "event-tail", "durable consumer name")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	url := os.Getenv("NATS_URL")
	if url == "" {
		url = "nats://localhost:4222"
	}

	sub, err := nats.NewSubscriber(url)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer sub.Close()

	err = sub.Subscribe(*subject, *durable, func(ctx context.Context, event events.Event) error {
		fmt.Printf("[%s] %s %v\n", event.Timestamp().Format("15:04:05"), event.EventType(), event.Payload())
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
}
