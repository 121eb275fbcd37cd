package httpServices

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the Africa's Talking bulk messaging API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	username   string
	apiKey     string
}

func NewClient(baseURL, username, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:  baseURL,
		username: username,
		apiKey:   apiKey,
	}
}

// Send delivers one message to the given recipients. An empty senderID
// lets the provider pick its default sender.
func (c *Client) Send(message string, recipients []string, senderID string) (*SendResponse, error) {
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("to", strings.Join(recipients, ","))
	form.Set("message", message)
	if senderID != "" {
		form.Set("from", senderID)
	}

	httpReq, err := http.NewRequest("POST", c.baseURL+"/version1/messaging", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("apiKey", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.New("messaging API returned non-OK status: " + resp.Status)
	}

	var apiResp SendResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, err
	}

	return &apiResp, nil
}
