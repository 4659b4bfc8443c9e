package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ApiClient handles API requests to the grocery bot
type ApiClient struct {
	httpClient *http.Client
	BaseURL    string
	Token      string
	UserID     string
}

// NewApiClient creates a new API client
func NewApiClient() *ApiClient {
	baseURL := os.Getenv("GROCERY_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	userID := os.Getenv("GROCERY_USER_ID")
	if userID == "" {
		userID = "cli"
	}

	client := &ApiClient{
		httpClient: &http.Client{
			Timeout: time.Second * 30,
		},
		BaseURL: baseURL,
		Token:   os.Getenv("GROCERY_API_TOKEN"),
		UserID:  userID,
	}

	if !client.ping() {
		fmt.Printf("Warning: API server at %s is not available.\n", baseURL)
	}

	return client
}

// ping checks if the API server is available
func (c *ApiClient) ping() bool {
	resp, err := c.httpClient.Get(c.BaseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Reply is the bot's answer to one message
type Reply struct {
	Text                 string `json:"reply"`
	AwaitingConfirmation bool   `json:"awaiting_confirmation"`
}

// InventoryEntry is one in-stock item
type InventoryEntry struct {
	ItemKey   string    `json:"item_key"`
	Amount    float64   `json:"amount"`
	Unit      string    `json:"unit"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LedgerEvent is one entry of the inventory change log
type LedgerEvent struct {
	Sequence  uint      `json:"sequence"`
	ItemKey   string    `json:"item_key"`
	Kind      string    `json:"kind"`
	Delta     float64   `json:"delta"`
	Unit      string    `json:"unit"`
	Resulting float64   `json:"resulting"`
	CreatedAt time.Time `json:"created_at"`
}

// SendMessage posts one chat message and returns the bot's reply
func (c *ApiClient) SendMessage(text string) (*Reply, error) {
	payload := map[string]string{
		"user_id": c.UserID,
		"text":    text,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", c.BaseURL+"/webhook", bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("message rejected: %s", string(body))
	}

	var reply Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// GetInventory retrieves the in-stock items
func (c *ApiClient) GetInventory() ([]InventoryEntry, error) {
	var payload struct {
		Inventory []InventoryEntry `json:"inventory"`
	}
	if err := c.getJSON("/api/v1/inventory", &payload); err != nil {
		return nil, err
	}
	return payload.Inventory, nil
}

// GetEvents retrieves the most recent inventory changes
func (c *ApiClient) GetEvents(limit int) ([]LedgerEvent, error) {
	var payload struct {
		Events []LedgerEvent `json:"events"`
	}
	if err := c.getJSON(fmt.Sprintf("/api/v1/events?limit=%d", limit), &payload); err != nil {
		return nil, err
	}
	return payload.Events, nil
}

func (c *ApiClient) getJSON(path string, out interface{}) error {
	req, err := http.NewRequest("GET", c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("unauthorized: set GROCERY_API_TOKEN")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed with status code: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
