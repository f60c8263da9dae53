package parser

import (
	"errors"
	"testing"
)

func TestIsURL(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"https://host/path", true},
		{"http://example.com/stream/index.m3u8", true},
		{"http://example.com:8080/a.ts?token=1", true},
		{"segment001.ts", false},
		{"", false},
		{"/absolute/path/segment.ts", false},
		{"../up/segment.ts", false},
		{"http://", false},
		{"://missing-scheme", false},
		{"http://[::1", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsURL(tt.input); got != tt.expected {
				t.Errorf("IsURL(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSplitBase(t *testing.T) {
	tests := []struct {
		name        string
		location    string
		expected    string
		shouldError bool
	}{
		{
			name:     "playlist in directory",
			location: "http://example.com/path/playlist.m3u8",
			expected: "http://example.com/path/",
		},
		{
			name:     "playlist at root",
			location: "http://example.com/playlist.m3u8",
			expected: "http://example.com/",
		},
		{
			name:     "query string is dropped with the file name",
			location: "http://example.com/live/index.m3u8?token=abc",
			expected: "http://example.com/live/",
		},
		{
			name:        "no slash",
			location:    "playlist.m3u8",
			shouldError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := SplitBase(tt.location)
			if tt.shouldError {
				if !errors.Is(err, ErrMalformedURL) {
					t.Fatalf("Expected ErrMalformedURL, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if result != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name        string
		base        string
		uri         string
		expected    string
		expectedErr error
	}{
		{
			name:     "relative path",
			base:     "http://example.com/path/",
			uri:      "segment.ts",
			expected: "http://example.com/path/segment.ts",
		},
		{
			name:     "relative path with subdirectory",
			base:     "http://example.com/",
			uri:      "segments/segment.ts",
			expected: "http://example.com/segments/segment.ts",
		},
		{
			name:     "absolute URL ignores base",
			base:     "http://example.com/path/",
			uri:      "https://cdn.example.com/segment.ts",
			expected: "https://cdn.example.com/segment.ts",
		},
		{
			name:     "absolute URL with empty base",
			base:     "",
			uri:      "https://cdn.example.com/segment.ts",
			expected: "https://cdn.example.com/segment.ts",
		},
		{
			name:     "root relative path",
			base:     "http://example.com/path/",
			uri:      "/segments/segment.ts",
			expected: "http://example.com/segments/segment.ts",
		},
		{
			name:        "relative path without base",
			base:        "",
			uri:         "segment.ts",
			expectedErr: ErrNoBase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Resolve(tt.base, tt.uri)
			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Fatalf("Expected %v, got %v", tt.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if result != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, result)
			}
		})
	}
}
