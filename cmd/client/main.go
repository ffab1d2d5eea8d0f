package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"chat-server/internal/client"
	"chat-server/pkg/chat"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "server base URL")
	username := flag.String("username", "", "username")
	password := flag.String("password", "", "password")
	channelID := flag.String("channel", "", "channel to join on connect")
	queuePath := flag.String("queue", "offline-queue.json", "offline queue file (empty for in-memory)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: client -username NAME -password PASS [-channel ID]")
		os.Exit(1)
	}

	token, err := login(*server, *username, *password)
	if err != nil {
		fmt.Fprintln(os.Stderr, "login failed:", err)
		os.Exit(1)
	}

	wsURL := strings.Replace(*server, "http", "ws", 1) + "/ws"
	ws := client.NewWSClient(wsURL, token, *queuePath, printEvent, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ws.Run(ctx)

	if *channelID != "" {
		// Give the dial a moment; a miss just queues the join.
		time.Sleep(500 * time.Millisecond)
		_ = ws.Send(chat.EventJoinChannel, chat.ChannelPayload{ChannelID: *channelID})
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			return
		case strings.HasPrefix(line, "/join "):
			id := strings.TrimPrefix(line, "/join ")
			*channelID = id
			_ = ws.Send(chat.EventJoinChannel, chat.ChannelPayload{ChannelID: id})
		case strings.HasPrefix(line, "/leave"):
			_ = ws.Send(chat.EventLeaveChannel, chat.ChannelPayload{ChannelID: *channelID})
		default:
			if *channelID == "" {
				fmt.Fprintln(os.Stderr, "join a channel first: /join CHANNEL_ID")
				continue
			}
			_ = ws.Send(chat.EventSendMessage, chat.SendMessagePayload{
				ChannelID: *channelID,
				Content:   line,
			})
			if n := ws.Pending(); n > 0 {
				fmt.Fprintf(os.Stderr, "(offline, %d queued)\n", n)
			}
		}
	}
}

func login(server, username, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(server+"/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server returned %s", resp.Status)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func printEvent(env chat.Envelope) {
	switch env.Event {
	case chat.EventNewMessage:
		var msg chat.MessageView
		if json.Unmarshal(env.Data, &msg) == nil {
			fmt.Printf("[%s] %s: %s\n", msg.ChannelID, msg.SenderUsername, msg.Content)
			return
		}
	case chat.EventTypingStart:
		var evt chat.TypingEvent
		if json.Unmarshal(env.Data, &evt) == nil {
			fmt.Printf("* %s is typing...\n", evt.Username)
			return
		}
	case chat.EventUserOnline, chat.EventUserOffline:
		var evt chat.PresenceEvent
		if json.Unmarshal(env.Data, &evt) == nil {
			fmt.Printf("* %s is %s\n", evt.UserID, evt.Status)
			return
		}
	case chat.EventError:
		var evt chat.ErrorEvent
		if json.Unmarshal(env.Data, &evt) == nil {
			fmt.Fprintln(os.Stderr, "error:", evt.Message)
			return
		}
	case chat.EventTypingStop, chat.EventOnlineUsers, chat.EventReadReceipt:
		return
	}
	fmt.Printf("< %s\n", env.Event)
}
