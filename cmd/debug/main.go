// Debug fires a chat turn at a running orchestrator and pretty-prints the
// exchange, useful for smoke-testing a deployment end to end.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/fatih/color"

	"rag-orchestrator-be/internal/dto"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8000", "orchestrator base URL")
	message := flag.String("message", "What is a normal heart rate?", "chat message to send")
	sessionID := flag.String("session", "", "session id to continue (empty starts a new one)")
	flag.Parse()

	reqBody, _ := json.Marshal(dto.ChatRequest{
		SessionId: *sessionID,
		Message:   *message,
	})

	color.Cyan("→ POST %s/api/chat/v1", *baseURL)
	color.White("  %s", string(reqBody))

	client := &http.Client{Timeout: 320 * time.Second}
	start := time.Now()
	resp, err := client.Post(*baseURL+"/api/chat/v1", "application/json", bytes.NewReader(reqBody))
	if err != nil {
		log.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		color.Red("✗ status %d after %s", resp.StatusCode, time.Since(start).Round(time.Millisecond))
		fmt.Println(string(body))
		return
	}

	var res dto.ChatResponse
	if err := json.Unmarshal(body, &res); err != nil {
		log.Fatalf("decode response: %v", err)
	}

	color.Green("✓ %d in %s", resp.StatusCode, time.Since(start).Round(time.Millisecond))
	color.Yellow("session: %s | context chunks used: %d", res.SessionId, res.ContextUsed)
	fmt.Println()
	color.White("%s", res.Answer)
	fmt.Println()
	color.Cyan("history (%d messages):", len(res.History))
	for _, m := range res.History {
		fmt.Printf("  [%s] %s\n", m.Role, m.Content)
	}
}
