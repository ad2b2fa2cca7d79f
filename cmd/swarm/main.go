// Command swarm is a load generator for the session coordinator: many
// concurrent principals fire random directional commands at one session
// until its window elapses, then it prints an acceptance summary.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

var directionNames = []string{
	"up", "down", "left", "right",
	"up_right", "up_left", "down_left", "down_right",
}

type SessionInfo struct {
	ID               string   `json:"id"`
	Creator          string   `json:"creator"`
	Status           string   `json:"status"`
	CreatedAt        int64    `json:"created_at"`
	EndTime          int64    `json:"end_time"`
	TotalMoves       uint64   `json:"total_moves"`
	Participants     []string `json:"participants"`
	ParticipantCount int      `json:"participant_count"`
	TimeRemaining    int64    `json:"time_remaining"`
}

type MoveResult struct {
	Accepted   bool         `json:"accepted"`
	Terminated bool         `json:"terminated"`
	Seq        uint64       `json:"seq"`
	Session    *SessionInfo `json:"session"`
}

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) CreateSession(creator string) (*SessionInfo, error) {
	body, err := json.Marshal(map[string]string{"creator": creator})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	resp, err := c.client.Post(c.baseURL+"/api/sessions", "application/json", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("create session failed: %s - %s", resp.Status, string(data))
	}

	var info SessionInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse session response: %w", err)
	}
	return &info, nil
}

func (c *Client) GetSession(sessionID string) (*SessionInfo, error) {
	resp, err := c.client.Get(fmt.Sprintf("%s/api/sessions/%s", c.baseURL, sessionID))
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get session failed: %s - %s", resp.Status, string(data))
	}

	var info SessionInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("parse session response: %w", err)
	}
	return &info, nil
}

// SubmitMove returns the move result, or closed=true once the session no
// longer accepts commands.
func (c *Client) SubmitMove(sessionID, principal, direction string) (result *MoveResult, closed bool, err error) {
	body, err := json.Marshal(map[string]string{
		"principal": principal,
		"direction": direction,
	})
	if err != nil {
		return nil, false, fmt.Errorf("marshal move: %w", err)
	}

	url := fmt.Sprintf("%s/api/sessions/%s/moves", c.baseURL, sessionID)
	resp, err := c.client.Post(url, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return nil, false, fmt.Errorf("submit move: %w", err)
	}
	defer resp.Body.Close()

	// 409 means the session is already ENDED.
	if resp.StatusCode == http.StatusConflict {
		return nil, true, nil
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, false, fmt.Errorf("submit move failed: %s - %s", resp.Status, string(data))
	}

	var moveResult MoveResult
	if err := json.NewDecoder(resp.Body).Decode(&moveResult); err != nil {
		return nil, false, fmt.Errorf("parse move response: %w", err)
	}
	return &moveResult, moveResult.Terminated, nil
}

func main() {
	serverURL := flag.String("url", "http://localhost:8080", "Coordinator server URL")
	sessionID := flag.String("session", "", "Drive an existing session instead of creating one")
	workers := flag.Int("workers", 16, "Number of concurrent principals")
	delayMs := flag.Int("delay", 50, "Delay between moves per principal in milliseconds")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	log.Printf("Connecting to coordinator at %s", *serverURL)
	client := NewClient(*serverURL)

	id := *sessionID
	if id == "" {
		info, err := client.CreateSession("swarm-driver")
		if err != nil {
			log.Fatalf("Failed to create session: %v", err)
		}
		id = info.ID
		log.Printf("Session created: %s (window %d ms)", id, info.EndTime-info.CreatedAt)
	} else {
		info, err := client.GetSession(id)
		if err != nil {
			log.Fatalf("Failed to resume session: %v", err)
		}
		log.Printf("Driving existing session: %s (%s, %d ms remaining)",
			id, info.Status, info.TimeRemaining)
	}

	var accepted, dropped, failed atomic.Uint64
	var wg sync.WaitGroup

	start := time.Now()
	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			principal := fmt.Sprintf("swarm-%02d", w)
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(w)))

			for {
				direction := directionNames[rng.Intn(len(directionNames))]
				result, closed, err := client.SubmitMove(id, principal, direction)
				if err != nil {
					failed.Add(1)
					if *verbose {
						log.Printf("[%s] move error: %v", principal, err)
					}
					return
				}
				if closed {
					if result != nil && result.Terminated {
						dropped.Add(1)
						log.Printf("[%s] window elapsed, session closed", principal)
					}
					return
				}

				accepted.Add(1)
				if *verbose {
					log.Printf("[%s] %s accepted (seq %d)", principal, direction, result.Seq)
				}

				if *delayMs > 0 {
					time.Sleep(time.Duration(*delayMs) * time.Millisecond)
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	final, err := client.GetSession(id)
	if err != nil {
		log.Fatalf("Failed to fetch final session state: %v", err)
	}

	log.Printf("\n=== Swarm summary ===")
	log.Printf("Session: %s (%s)", final.ID, final.Status)
	log.Printf("Elapsed: %s", elapsed.Round(time.Millisecond))
	log.Printf("Accepted: %d, dropped at deadline: %d, errors: %d",
		accepted.Load(), dropped.Load(), failed.Load())
	log.Printf("Server counted %d moves from %d participants",
		final.TotalMoves, final.ParticipantCount)

	if accepted.Load() != final.TotalMoves && *sessionID == "" {
		log.Printf("WARNING: client accept count and server move count differ")
	}
}
