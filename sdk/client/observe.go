package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
)

const maxEventSize = 8 << 20

// ObserveTodos opens a stream of todo snapshots matching filter. Every
// snapshot is the complete matching list; onSnapshot is called from a single
// goroutine, first with the current list and then after each change.
// The returned stop function closes the stream and waits until onSnapshot
// is no longer running. It is safe to call more than once.
func (c *Client) ObserveTodos(ctx context.Context, filter *Filter, onSnapshot func([]Todo)) (func(), error) {
	query, err := filterQuery(filter)
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	req, err := c.newRequest(streamCtx, http.MethodGet, c.endpoint("/api/todos/observe", query), nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open todo stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		defer cancel()
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var env envelope
		if json.NewDecoder(resp.Body).Decode(&env) == nil {
			apiErr.Code = env.Code
			apiErr.Message = env.Error
		} else {
			apiErr.Message = fmt.Sprintf("request failed with status code %d", resp.StatusCode)
		}
		return nil, apiErr
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer resp.Body.Close()
		err := readEvents(resp.Body, func(event string, data []byte) error {
			switch event {
			case "snapshot":
				var todos []Todo
				if err := json.Unmarshal(data, &todos); err != nil {
					return fmt.Errorf("decoding snapshot: %w", err)
				}
				onSnapshot(todos)
			case "error":
				var msg string
				if err := json.Unmarshal(data, &msg); err != nil {
					msg = string(data)
				}
				return errors.New(msg)
			}
			return nil
		})
		if err != nil && streamCtx.Err() == nil {
			slog.Warn("todo stream ended", "error", err)
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
	return stop, nil
}

// readEvents parses a Server-Sent Events stream, calling fn once per event.
func readEvents(r io.Reader, fn func(event string, data []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	var (
		event string
		data  []string
	)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if len(data) > 0 {
				if event == "" {
					event = "message"
				}
				if err := fn(event, []byte(strings.Join(data, "\n"))); err != nil {
					return err
				}
			}
			event, data = "", nil
		case strings.HasPrefix(line, ":"):
			// comment
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return io.EOF
}
