// Command inboxwatch logs in as an account and prints every realtime inbox
// event the server pushes to it. Useful for checking the Redis fan-out end
// to end against a running server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
)

type loginResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

type ticketResponse struct {
	Ticket string `json:"ticket"`
}

func main() {
	host := flag.String("host", "localhost:8375", "API server host")
	username := flag.String("username", "", "account username")
	password := flag.String("password", "", "account password")
	flag.Parse()

	if *username == "" || *password == "" {
		log.Fatal("-username and -password are required")
	}

	client := resty.New().
		SetBaseURL("http://"+*host+"/api").
		SetTimeout(5 * time.Second)

	session, err := login(client, *username, *password)
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	log.Printf("Logged in as %s (id %d)", session.Username, session.ID)

	ticket, err := issueTicket(client, session.Token)
	if err != nil {
		log.Fatalf("Ticket issuance failed: %v", err)
	}

	u := url.URL{Scheme: "ws", Host: *host, Path: "/api/ws", RawQuery: "ticket=" + url.QueryEscape(ticket)}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial %s: %v", u.Redacted(), err)
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = conn.Close() }()
	log.Printf("Watching inbox, press Ctrl+C to stop")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					log.Printf("Read: %v", err)
				}
				return
			}
			printEvent(data)
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case <-done:
	case <-interrupt:
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}

func login(client *resty.Client, username, password string) (*loginResponse, error) {
	var out loginResponse
	resp, err := client.R().
		SetBody(map[string]string{"username": username, "password": password}).
		SetResult(&out).
		Post("/accountCredential/login")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String())
	}
	return &out, nil
}

func issueTicket(client *resty.Client, token string) (string, error) {
	var out ticketResponse
	resp, err := client.R().
		SetAuthToken(token).
		SetResult(&out).
		Post("/ws/ticket")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String())
	}
	return out.Ticket, nil
}

func printEvent(data []byte) {
	var ev struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &ev); err != nil || ev.Type == "" {
		log.Printf("raw: %s", data)
		return
	}
	log.Printf("%s: %s", ev.Type, ev.Data)
}
