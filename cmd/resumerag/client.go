package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperjump/resumerag/internal/models"
)

var httpClient = &http.Client{Timeout: 60 * time.Second}

// apiCall sends body as JSON (when non-nil) and decodes a response with status want into out.
func apiCall(method, endpoint string, body, out any, want int) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func askViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	var out models.SearchResponse
	if err := apiCall(http.MethodPost, serverURL+"/api/ask", query, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func matchViaHTTP(serverURL, jobID string, req *models.MatchRequest) (*models.MatchResponse, error) {
	var out models.MatchResponse
	endpoint := serverURL + "/api/jobs/" + url.PathEscape(jobID) + "/match"
	if err := apiCall(http.MethodPost, endpoint, req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	var out statusResponse
	if err := apiCall(http.MethodGet, serverURL+"/api/status", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func watchEndpoint(serverURL string) string {
	return serverURL + "/api/watch/directories"
}
