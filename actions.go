package mwapi

import (
	"context"
	"fmt"
)

// UserInfo is the meta=userinfo payload for the current session identity.
type UserInfo struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Anon      bool     `json:"anon"`
	Groups    []string `json:"groups"`
	Rights    []string `json:"rights"`
	BlockID   int64    `json:"blockid"`
	BlockedBy string   `json:"blockedby"`
}

// GetUserInfo reports who the wiki thinks the client is. Useful to verify a
// login or OAuth identity before doing writes.
func (c *Client) GetUserInfo(ctx context.Context) (*UserInfo, error) {
	resp, err := c.Get(ctx, Params{
		"action": "query",
		"meta":   "userinfo",
		"uiprop": []string{"groups", "rights", "blockinfo"},
	})
	if err != nil {
		return nil, err
	}
	if _, apiErr := classifyResponse(resp); apiErr != nil {
		return nil, apiErr
	}

	var payload struct {
		Query struct {
			UserInfo UserInfo `json:"userinfo"`
		} `json:"query"`
	}
	if err := resp.Unmarshal(&payload); err != nil {
		return nil, fmt.Errorf("mwapi: decode userinfo: %w", err)
	}
	return &payload.Query.UserInfo, nil
}

// GetMessages fetches interface messages by name. lang is the message
// language; empty means the wiki's content language. Missing messages are
// left out of the result.
func (c *Client) GetMessages(ctx context.Context, names []string, lang string, extra Params) (map[string]string, error) {
	query := Params{
		"action":     "query",
		"meta":       "allmessages",
		"ammessages": names,
	}
	if lang != "" {
		query["amlang"] = lang
	}
	for k, v := range extra {
		query[k] = v
	}

	resp, err := c.Get(ctx, query)
	if err != nil {
		return nil, err
	}
	if _, apiErr := classifyResponse(resp); apiErr != nil {
		return nil, apiErr
	}

	var payload struct {
		Query struct {
			AllMessages []struct {
				Name    string `json:"name"`
				Content string `json:"content"`
				Missing bool   `json:"missing"`
			} `json:"allmessages"`
		} `json:"query"`
	}
	if err := resp.Unmarshal(&payload); err != nil {
		return nil, fmt.Errorf("mwapi: decode allmessages: %w", err)
	}

	out := make(map[string]string, len(payload.Query.AllMessages))
	for _, msg := range payload.Query.AllMessages {
		if msg.Missing {
			continue
		}
		out[msg.Name] = msg.Content
	}
	return out, nil
}

// ParseWikitext renders wikitext to HTML through action=parse. title sets
// the page context for relative links and magic words; empty uses the API
// default.
func (c *Client) ParseWikitext(ctx context.Context, wikitext, title string, extra Params) (string, error) {
	body := Params{
		"action": "parse",
		"text":   wikitext,
	}
	if title != "" {
		body["title"] = title
	}
	for k, v := range extra {
		body[k] = v
	}

	resp, err := c.Post(ctx, body)
	if err != nil {
		return "", err
	}
	if _, apiErr := classifyResponse(resp); apiErr != nil {
		return "", apiErr
	}

	var payload struct {
		Parse struct {
			Text string `json:"text"`
		} `json:"parse"`
	}
	if err := resp.Unmarshal(&payload); err != nil {
		return "", fmt.Errorf("mwapi: decode parse result: %w", err)
	}
	return payload.Parse.Text, nil
}
