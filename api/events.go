package api

import (
	"fmt"
	"net/http"

	"podpub/events"
)

// SSEHandler streams publish progress events to dashboard clients
func SSEHandler(broker *events.Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Set SSE headers
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		client := make(chan string, 10) // Buffer to prevent blocking
		broker.Register(client)
		defer broker.Unregister(client)

		fmt.Fprintf(w, "event: connected\ndata: {\"message\": \"Connected to publish events\"}\n\n")
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}

		for {
			select {
			case message := <-client:
				fmt.Fprint(w, message)
				if flusher, ok := w.(http.Flusher); ok {
					flusher.Flush()
				}
			case <-r.Context().Done():
				// Client disconnected
				return
			}
		}
	}
}
