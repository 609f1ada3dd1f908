// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"encoding/json"
	"strings"
	"time"
)

// Interaction is one LLM exchange parsed from a JSONL log line.
type Interaction struct {
	Timestamp    time.Time
	Session      string // caller-assigned session key, groups exchanges
	Model        string
	Input        string
	Output       string
	InputTokens  int
	OutputTokens int
	Attributes   map[string]interface{}
	Source       string // filename
	RawLine      string
}

// ParseLine parses a single JSONL interaction line. Lines that are not
// JSON objects or carry no input are returned as nil and should be
// skipped.
func ParseLine(line, filename string) *Interaction {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return nil
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return nil
	}

	in := &Interaction{
		Timestamp: time.Now(),
		Source:    filename,
		RawLine:   line,
	}

	in.Input = takeString(raw, "input", "prompt", "question", "user")
	if in.Input == "" {
		return nil
	}
	in.Output = takeString(raw, "output", "response", "answer", "completion")
	in.Model = takeString(raw, "model", "model_name")
	in.Session = takeString(raw, "session", "session_id", "conversation", "conversation_id")
	in.InputTokens = takeInt(raw, "input_tokens", "prompt_tokens")
	in.OutputTokens = takeInt(raw, "output_tokens", "completion_tokens")

	for _, key := range []string{"timestamp", "time", "ts", "@timestamp"} {
		if v, ok := raw[key]; ok {
			switch t := v.(type) {
			case string:
				if parsed := parseTimestampString(t); !parsed.IsZero() {
					in.Timestamp = parsed
				}
			case float64:
				// Unix timestamp (seconds or milliseconds)
				if t > 1e12 {
					in.Timestamp = time.UnixMilli(int64(t))
				} else {
					in.Timestamp = time.Unix(int64(t), 0)
				}
			}
			delete(raw, key)
			break
		}
	}

	// Remaining fields ride along as attributes.
	if len(raw) > 0 {
		in.Attributes = raw
	}
	return in
}

// takeString returns the first string value found under the given keys,
// removing it from the map.
func takeString(raw map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key].(string); ok {
			delete(raw, key)
			return v
		}
	}
	return ""
}

func takeInt(raw map[string]interface{}, keys ...string) int {
	for _, key := range keys {
		if v, ok := raw[key].(float64); ok {
			delete(raw, key)
			return int(v)
		}
	}
	return 0
}

func parseTimestampString(s string) time.Time {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.000Z",
		"2006-01-02 15:04:05.000",
		"2006-01-02 15:04:05",
		"2006/01/02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// SessionFromFilename derives a fallback session key from a log filename
// for lines that carry no session field.
// e.g., "chatbot-2026-08.jsonl" -> "chatbot-2026-08", "agent.log" -> "agent"
func SessionFromFilename(filename string) string {
	name := filename
	if idx := strings.LastIndex(filename, "/"); idx >= 0 {
		name = filename[idx+1:]
	}
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[:idx]
	}
	if name == "" {
		return "unknown"
	}
	return name
}
