// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package sse

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event names sent to browsers.
const (
	EventRecipe   = "recipe"
	EventFavorite = "favorite"
)

// Actions carried in event payloads.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
	ActionAdded   = "added"
	ActionRemoved = "removed"
)

// Payload is the JSON body of recipe and favorite events.
type Payload struct {
	Action   string `json:"action"`
	RecipeID int64  `json:"recipe_id"`
	Data     any    `json:"data,omitempty"`
}

// Heartbeat is an SSE comment that keeps idle connections open.
const Heartbeat = ": heartbeat\n\n"

// FormatEvent renders an SSE frame. Every line of data gets its own
// "data:" prefix.
func FormatEvent(eventName, data string) string {
	var sb strings.Builder

	if eventName != "" {
		fmt.Fprintf(&sb, "event: %s\n", eventName)
	}
	for line := range strings.SplitSeq(data, "\n") {
		fmt.Fprintf(&sb, "data: %s\n", line)
	}
	sb.WriteString("\n")

	return sb.String()
}

// JSONEvent renders payload as a single-line JSON SSE frame.
func JSONEvent(eventName string, payload Payload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s event: %w", eventName, err)
	}
	return FormatEvent(eventName, string(raw)), nil
}
