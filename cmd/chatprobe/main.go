// chatprobe is a smoke tool against a running server: it logs in, joins a
// room over the websocket surface, sends a message, optionally asks the AI,
// and prints every delivery until the timeout elapses.
//
// Usage:
//
//	go run ./cmd/chatprobe -base http://127.0.0.1:5000 -email a@b.c -password pw1 -room general -text "hello" -ask "who are you?"
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

type loginResponse struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	Room        string `json:"room"`
}

func main() {
	base := flag.String("base", "http://127.0.0.1:5000", "server base URL")
	email := flag.String("email", "", "login email")
	password := flag.String("password", "", "login password")
	room := flag.String("room", "", "room to join (default: role-derived)")
	text := flag.String("text", "", "text message to send after joining")
	ask := flag.String("ask", "", "prompt to forward to the AI bridge")
	wait := flag.Duration("wait", 10*time.Second, "how long to listen for deliveries")
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "email and password are required")
		os.Exit(2)
	}

	login, err := doLogin(*base, *email, *password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("logged in as %s (role=%s, landing room=%s)\n", login.Username, login.Role, login.Room)

	wsURL, err := wsEndpoint(*base, login.AccessToken, *room)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad base url: %v\n", err)
		os.Exit(1)
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "websocket dial failed: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	if *text != "" {
		if err := conn.WriteJSON(map[string]string{"type": "send", "text": *text}); err != nil {
			fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
			os.Exit(1)
		}
	}
	if *ask != "" {
		if err := conn.WriteJSON(map[string]string{"type": "ask", "prompt": *ask}); err != nil {
			fmt.Fprintf(os.Stderr, "ask failed: %v\n", err)
			os.Exit(1)
		}
	}

	deadline := time.Now().Add(*wait)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline)
		var event map[string]any
		if err := conn.ReadJSON(&event); err != nil {
			return
		}
		printEvent(event)
	}
}

func doLogin(base, email, password string) (*loginResponse, error) {
	payload, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(strings.TrimRight(base, "/")+"/login", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func wsEndpoint(base, token, room string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws/rooms"
	q := u.Query()
	q.Set("token", token)
	if room != "" {
		q.Set("room", room)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func printEvent(event map[string]any) {
	typ, _ := event["type"].(string)
	switch typ {
	case "joined":
		fmt.Printf("== joined %v\n", event["room"])
	case "message":
		msg, _ := event["message"].(map[string]any)
		own := ""
		if o, _ := event["own"].(bool); o {
			own = " (me)"
		}
		fmt.Printf("[%v] %v%s: %v%v\n", msg["kind"], msg["sender_name"], own, msg["body"], attachmentSuffix(msg))
	case "error":
		fmt.Printf("!! %v\n", event["error"])
	default:
		raw, _ := json.Marshal(event)
		fmt.Println(string(raw))
	}
}

func attachmentSuffix(msg map[string]any) string {
	if u, _ := msg["attachment_url"].(string); u != "" {
		return " " + u
	}
	return ""
}
