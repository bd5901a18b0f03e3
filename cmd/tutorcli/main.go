// Package main provides a terminal chat client for the tutor server.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tutorlab/socratic-tutor/domain"
	"github.com/tutorlab/socratic-tutor/sseclient"
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "tutor server address")
	flag.Parse()

	httpClient := &http.Client{
		Timeout: 5 * time.Minute, // long timeout for streaming
	}

	fmt.Println("Socratic Tutor — type a message and press enter, Ctrl-D to quit.")

	sessionID := ""
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}

		sid, err := runTurn(httpClient, *addr, sessionID, message)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nerror: %v\n", err)
			continue
		}
		sessionID = sid
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "read input: %v\n", err)
		os.Exit(1)
	}
	fmt.Println()
}

// runTurn submits one message and streams the reply to stdout. It returns
// the session id the turn ran under so the next turn continues the same
// conversation.
func runTurn(httpClient *http.Client, addr, sessionID, message string) (string, error) {
	body, err := json.Marshal(domain.ChatRequest{
		SessionID: sessionID,
		Message:   message,
	})
	if err != nil {
		return sessionID, fmt.Errorf("marshal request: %w", err)
	}

	resp, err := httpClient.Post(strings.TrimSuffix(addr, "/")+"/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		return sessionID, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return sessionID, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	consumer := &sseclient.Consumer{
		OnDelta: func(text string) {
			fmt.Print(text)
		},
	}
	if err := consumer.Run(resp.Body); err != nil {
		// The partial reply is unconfirmed; tell the user instead of
		// presenting it as a complete answer.
		fmt.Print("\n[stream interrupted — reply discarded]")
		fmt.Println()
		return sessionID, err
	}
	fmt.Println()

	if sessionID == "" {
		return consumer.SessionID(), nil
	}
	return sessionID, nil
}
