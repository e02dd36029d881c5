// Package client fetches record collections from the records API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dost-atlas/models"
)

// ResponseError is a non-success answer from the records API. Message is the
// server-provided text and is shown to the operator verbatim.
type ResponseError struct {
	Status  int
	Message string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("records api: status %d", e.Status)
	}
	return fmt.Sprintf("records api: status %d: %s", e.Status, e.Message)
}

func (e *ResponseError) UserMessage() string { return e.Message }

// RecordError reports a record that violates the read contract, such as
// missing or non-numeric coordinates.
type RecordError struct {
	Collection string
	ID         string
	Reason     string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s record %q: %s", e.Collection, e.ID, e.Reason)
}

func (e *RecordError) UserMessage() string {
	return fmt.Sprintf("Invalid %s record %s: %s", strings.TrimSuffix(e.Collection, "s"), e.ID, e.Reason)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type wireCoordinates struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func (w *wireCoordinates) resolve() (models.Coordinates, string) {
	if w == nil || w.Lat == nil || w.Lng == nil {
		return models.Coordinates{}, "coordinates missing"
	}
	c := models.Coordinates{Lat: *w.Lat, Lng: *w.Lng}
	if err := c.Validate(); err != nil {
		return models.Coordinates{}, err.Error()
	}
	return c, ""
}

type wireImplementation struct {
	ID          string           `json:"_id"`
	Place       string           `json:"place"`
	Coordinates *wireCoordinates `json:"coordinates"`
	Implemented bool             `json:"implemented"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

type wireProject struct {
	ID           string           `json:"_id"`
	ProjectTitle string           `json:"projectTitle"`
	Location     string           `json:"location"`
	Coordinates  *wireCoordinates `json:"coordinates"`
	ProgramType  string           `json:"programType"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// FetchImplementations calls GET /implementations.
func (c *Client) FetchImplementations(ctx context.Context) ([]models.ImplementationPoint, error) {
	var wire []wireImplementation
	if err := c.get(ctx, "/implementations", &wire); err != nil {
		return nil, err
	}
	out := make([]models.ImplementationPoint, 0, len(wire))
	for _, w := range wire {
		coords, reason := w.Coordinates.resolve()
		if reason != "" {
			return nil, &RecordError{Collection: "implementations", ID: w.ID, Reason: reason}
		}
		out = append(out, models.ImplementationPoint{
			ID:          w.ID,
			Place:       w.Place,
			Coordinates: coords,
			Implemented: w.Implemented,
			CreatedAt:   w.CreatedAt,
			UpdatedAt:   w.UpdatedAt,
		})
	}
	return out, nil
}

// FetchProjects calls GET /projects. Unknown program types pass through.
func (c *Client) FetchProjects(ctx context.Context) ([]models.ProjectPoint, error) {
	var wire []wireProject
	if err := c.get(ctx, "/projects", &wire); err != nil {
		return nil, err
	}
	out := make([]models.ProjectPoint, 0, len(wire))
	for _, w := range wire {
		coords, reason := w.Coordinates.resolve()
		if reason != "" {
			return nil, &RecordError{Collection: "projects", ID: w.ID, Reason: reason}
		}
		out = append(out, models.ProjectPoint{
			ID:           w.ID,
			ProjectTitle: w.ProjectTitle,
			Location:     w.Location,
			Coordinates:  coords,
			ProgramType:  w.ProgramType,
			CreatedAt:    w.CreatedAt,
			UpdatedAt:    w.UpdatedAt,
		})
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return &ResponseError{Status: resp.StatusCode}
		}
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK || !env.Success {
		return &ResponseError{Status: resp.StatusCode, Message: env.Message}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, data); err != nil {
		return fmt.Errorf("decode %s data: %w", path, err)
	}
	return nil
}
