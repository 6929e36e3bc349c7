package main

import (
	"bytes"     // Login body
	"context"   // Dial and join deadlines
	"flag"      // Command line flags
	"fmt"       // Errors
	"net/http"  // Admin login
	"os"        // Exit codes
	"os/signal" // Interrupt handling
	"strings"   // URL building
	"syscall"   // Termination signal
	"time"      // Timeouts

	"expense_tracker/internal/config" // Default port
	"expense_tracker/internal/notify" // Admin channel client

	"github.com/goccy/go-json"   // JSON encoding/decoding
	"github.com/sirupsen/logrus" // Event logging
)

func main() {
	cfg := config.LoadConfig()
	base := flag.String("server", "http://localhost:"+cfg.AppPort, "API base URL")
	token := flag.String("token", os.Getenv("ADMIN_TOKEN"), "Admin bearer token")
	email := flag.String("email", "", "Admin email, used to log in when -token is empty")
	password := flag.String("password", "", "Admin password")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if *token == "" {
		if *email == "" || *password == "" {
			logrus.Fatal("either -token or -email and -password are required")
		}
		t, err := login(*base, *email, *password)
		if err != nil {
			logrus.Fatalf("admin login failed: %v", err)
		}
		*token = t
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := notify.Dial(ctx, socketURL(*base), nil)
	if err != nil {
		logrus.Fatalf("failed to connect: %v", err)
	}
	defer client.Close()

	for _, event := range []string{notify.EventTransactionAdded, notify.EventTransactionUpdated, notify.EventTransactionDeleted} {
		event := event
		client.Subscribe(event, func(data json.RawMessage) {
			var payload map[string]any
			if err := json.Unmarshal(data, &payload); err != nil {
				logrus.WithError(err).WithField("event", event).Warn("unreadable payload")
				return
			}
			logrus.WithFields(logrus.Fields(payload)).Info(event)
		})
	}
	if err := client.Join(ctx, *token); err != nil {
		logrus.Fatalf("failed to join admin channel: %v", err)
	}
	logrus.Info("joined admin channel, waiting for events")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-client.Done():
		logrus.WithError(client.Err()).Warn("connection closed by server")
	}
}

// socketURL derives the websocket endpoint from the API base URL
func socketURL(base string) string {
	base = strings.TrimSuffix(base, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://") + "/ws"
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://") + "/ws"
	default:
		return base + "/ws"
	}
}

// login exchanges admin credentials for a token
func login(base, email, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(strings.TrimSuffix(base, "/")+"/api/admin/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		Token   string `json:"token"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK || out.Token == "" {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, out.Message)
	}
	return out.Token, nil
}
