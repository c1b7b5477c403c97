package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultBaseURL = "https://opentdb.com/api.php"
	defaultAmount  = 10
	// The API rejects larger batches.
	maxAmount = 50
)

// RawQuestion mirrors the OpenTriviaDB question payload.
type RawQuestion struct {
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

type apiResponse struct {
	ResponseCode int           `json:"response_code"`
	Results      []RawQuestion `json:"results"`
}

// Filter narrows a fetch. Zero values leave the API defaults.
type Filter struct {
	Category   int
	Difficulty string
	Type       string
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(httpClient *http.Client) *Client {
	return NewClientWithBaseURL(DefaultBaseURL, httpClient)
}

func NewClientWithBaseURL(baseURL string, httpClient *http.Client) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (c *Client) FetchQuestions(ctx context.Context, amount int) ([]RawQuestion, error) {
	return c.FetchFiltered(ctx, amount, Filter{})
}

func (c *Client) FetchFiltered(ctx context.Context, amount int, filter Filter) ([]RawQuestion, error) {
	if amount <= 0 {
		amount = defaultAmount
	}
	if amount > maxAmount {
		amount = maxAmount
	}

	query := url.Values{}
	query.Set("amount", strconv.Itoa(amount))
	if filter.Category > 0 {
		query.Set("category", strconv.Itoa(filter.Category))
	}
	if filter.Difficulty != "" {
		query.Set("difficulty", filter.Difficulty)
	}
	if filter.Type != "" {
		query.Set("type", filter.Type)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("opentdb returned status %d", resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	if payload.ResponseCode != 0 {
		return nil, fmt.Errorf("opentdb response_code=%d", payload.ResponseCode)
	}

	return payload.Results, nil
}
