// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"testing"
	"time"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		wantNil     bool
		wantInput   string
		wantOutput  string
		wantModel   string
		wantSession string
		wantAttrs   map[string]interface{}
	}{
		{
			name:       "canonical fields",
			line:       `{"input": "Should I sue?", "output": "I cannot provide legal advice.", "model": "gpt-4o"}`,
			wantInput:  "Should I sue?",
			wantOutput: "I cannot provide legal advice.",
			wantModel:  "gpt-4o",
		},
		{
			name:       "prompt and response aliases",
			line:       `{"prompt": "hello", "response": "hi there"}`,
			wantInput:  "hello",
			wantOutput: "hi there",
		},
		{
			name:       "question and answer aliases",
			line:       `{"question": "what time is it?", "answer": "noon"}`,
			wantInput:  "what time is it?",
			wantOutput: "noon",
		},
		{
			name:        "session field",
			line:        `{"input": "q", "output": "a", "session": "support-42"}`,
			wantInput:   "q",
			wantOutput:  "a",
			wantSession: "support-42",
		},
		{
			name:        "session_id alias",
			line:        `{"input": "q", "session_id": "conv-7"}`,
			wantInput:   "q",
			wantSession: "conv-7",
		},
		{
			name:       "extra fields become attributes",
			line:       `{"input": "q", "output": "a", "request_id": "abc123", "region": "eu"}`,
			wantInput:  "q",
			wantOutput: "a",
			wantAttrs:  map[string]interface{}{"request_id": "abc123", "region": "eu"},
		},
		{
			name:      "whitespace before JSON",
			line:      `  {"input": "q"}`,
			wantInput: "q",
		},
		{name: "no input field", line: `{"output": "a", "level": "info"}`, wantNil: true},
		{name: "invalid JSON", line: `{not json}`, wantNil: true},
		{name: "plain text", line: "2024-01-15 10:30:45 INFO starting", wantNil: true},
		{name: "empty", line: "", wantNil: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseLine(tc.line, "chat.jsonl")

			if tc.wantNil {
				if got != nil {
					t.Errorf("ParseLine(%q) = %+v, want nil", tc.line, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParseLine(%q) = nil, want interaction", tc.line)
			}

			if got.Input != tc.wantInput {
				t.Errorf("Input = %q, want %q", got.Input, tc.wantInput)
			}
			if got.Output != tc.wantOutput {
				t.Errorf("Output = %q, want %q", got.Output, tc.wantOutput)
			}
			if got.Model != tc.wantModel {
				t.Errorf("Model = %q, want %q", got.Model, tc.wantModel)
			}
			if got.Session != tc.wantSession {
				t.Errorf("Session = %q, want %q", got.Session, tc.wantSession)
			}
			if got.Source != "chat.jsonl" {
				t.Errorf("Source = %q, want chat.jsonl", got.Source)
			}
			if got.RawLine != tc.line {
				t.Errorf("RawLine = %q, want %q", got.RawLine, tc.line)
			}
			for k, v := range tc.wantAttrs {
				if got.Attributes[k] != v {
					t.Errorf("Attributes[%q] = %v, want %v", k, got.Attributes[k], v)
				}
			}
		})
	}
}

func TestParseLine_Tokens(t *testing.T) {
	in := ParseLine(`{"input": "q", "input_tokens": 21, "output_tokens": 8}`, "f.jsonl")
	if in == nil {
		t.Fatal("ParseLine returned nil")
	}
	if in.InputTokens != 21 || in.OutputTokens != 8 {
		t.Errorf("tokens = %d/%d, want 21/8", in.InputTokens, in.OutputTokens)
	}

	in = ParseLine(`{"input": "q", "prompt_tokens": 3, "completion_tokens": 5}`, "f.jsonl")
	if in == nil {
		t.Fatal("ParseLine returned nil")
	}
	if in.InputTokens != 3 || in.OutputTokens != 5 {
		t.Errorf("alias tokens = %d/%d, want 3/5", in.InputTokens, in.OutputTokens)
	}
}

func TestParseLine_Timestamps(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		want  time.Time
		fuzzy bool // just check that it's recent (time.Now fallback)
	}{
		{
			name: "RFC3339 string",
			line: `{"input": "q", "timestamp": "2024-01-15T10:30:45Z"}`,
			want: time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC),
		},
		{
			name: "time alias",
			line: `{"input": "q", "time": "2024-01-15 10:30:45"}`,
			want: time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC),
		},
		{
			name: "epoch seconds",
			line: `{"input": "q", "ts": 1705315845}`,
			want: time.Unix(1705315845, 0),
		},
		{
			name: "epoch milliseconds",
			line: `{"input": "q", "ts": 1705315845000}`,
			want: time.UnixMilli(1705315845000),
		},
		{
			name:  "no timestamp",
			line:  `{"input": "q"}`,
			fuzzy: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := ParseLine(tc.line, "f.jsonl")
			if in == nil {
				t.Fatalf("ParseLine(%q) = nil", tc.line)
			}
			if tc.fuzzy {
				if time.Since(in.Timestamp) > time.Second {
					t.Errorf("Timestamp = %v, want recent time", in.Timestamp)
				}
			} else if !in.Timestamp.Equal(tc.want) {
				t.Errorf("Timestamp = %v, want %v", in.Timestamp, tc.want)
			}
		})
	}
}

func TestParseTimestampString(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Time
		isZero   bool
	}{
		{
			input:    "2024-01-15T10:30:45.123456789Z",
			expected: time.Date(2024, 1, 15, 10, 30, 45, 123456789, time.UTC),
		},
		{
			input:    "2024-01-15T10:30:45Z",
			expected: time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC),
		},
		{
			input:    "2024-01-15 10:30:45.123",
			expected: time.Date(2024, 1, 15, 10, 30, 45, 123000000, time.UTC),
		},
		{
			input:    "2024/01/15 10:30:45",
			expected: time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC),
		},
		{input: "invalid", isZero: true},
		{input: "", isZero: true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			result := parseTimestampString(tc.input)
			if tc.isZero {
				if !result.IsZero() {
					t.Errorf("parseTimestampString(%q) = %v, want zero time", tc.input, result)
				}
			} else if !result.Equal(tc.expected) {
				t.Errorf("parseTimestampString(%q) = %v, want %v", tc.input, result, tc.expected)
			}
		})
	}
}

func TestSessionFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{"chatbot.jsonl", "chatbot"},
		{"agent-2026-08.jsonl", "agent-2026-08"},
		{"/var/log/llm/support.jsonl", "support"},
		{"./logs/assistant.log", "assistant"},
		{"noextension", "noextension"},
		{".jsonl", "unknown"},
		{"", "unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.filename, func(t *testing.T) {
			result := SessionFromFilename(tc.filename)
			if result != tc.expected {
				t.Errorf("SessionFromFilename(%q) = %q, want %q", tc.filename, result, tc.expected)
			}
		})
	}
}
