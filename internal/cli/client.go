package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tycoon/internal/game"
)

// Client is the thin HTTP client the CLI uses against the API server. The
// player identity travels in the X-Player-ID header on every call.
type Client struct {
	BaseURL  string
	PlayerID string
	HTTP     *http.Client
}

func NewClient(baseURL, playerID string) *Client {
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		PlayerID: playerID,
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Onboard(ctx context.Context, referralCode string) (game.OnboardResult, error) {
	var out game.OnboardResult
	body := map[string]any{}
	if referralCode != "" {
		body["referral_code"] = referralCode
	}
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/players", body, &out)
	return out, err
}

func (c *Client) AdvanceDay(ctx context.Context) (game.DayReport, error) {
	var out game.DayReport
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/day/advance", map[string]any{}, &out)
	return out, err
}

func (c *Client) BuyRigs(ctx context.Context, count int64) (game.TradeResult, error) {
	var out game.TradeResult
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/rigs/buy", map[string]any{"count": count}, &out)
	return out, err
}

func (c *Client) BuyShares(ctx context.Context, company string, count int64) (game.TradeResult, error) {
	var out game.TradeResult
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/shares/buy", map[string]any{
		"company": company,
		"count":   count,
	}, &out)
	return out, err
}

func (c *Client) SellShares(ctx context.Context, company string, count int64) (game.TradeResult, error) {
	var out game.TradeResult
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/shares/sell", map[string]any{
		"company": company,
		"count":   count,
	}, &out)
	return out, err
}

func (c *Client) Status(ctx context.Context) (game.Status, error) {
	var out game.Status
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/status", nil, &out)
	return out, err
}

func (c *Client) Quest(ctx context.Context) (game.QuestStatus, error) {
	var out game.QuestStatus
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/quest", nil, &out)
	return out, err
}

func (c *Client) Referral(ctx context.Context) (game.ReferralStatus, error) {
	var out game.ReferralStatus
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/referral", nil, &out)
	return out, err
}

func (c *Client) History(ctx context.Context, company string) ([]game.PriceSample, error) {
	var out struct {
		History []game.PriceSample `json:"history"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/market/"+url.PathEscape(company)+"/history", nil, &out)
	return out.History, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Player-ID", c.PlayerID)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
