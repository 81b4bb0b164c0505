// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

const testSchema = `
#Settings: {
	name:     string & !=""
	verbose?: bool
	mode?:    "native" | "virtual"
}
`

type testSettings struct {
	Name    string `json:"name"`
	Verbose bool   `json:"verbose"`
	Mode    string `json:"mode"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	got, err := ParseAndDecode[testSettings](testSchema, []byte(`name: "foo", mode: "virtual"`), "#Settings")
	if err != nil {
		t.Fatalf("ParseAndDecode() error = %v", err)
	}
	if got.Name != "foo" || got.Mode != "virtual" || got.Verbose {
		t.Errorf("ParseAndDecode() = %+v", got)
	}
}

func TestParseAndDecode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		opts    []Option
		wantSub string
	}{
		{"syntax error", `name: "foo`, nil, "settings.cue"},
		{"schema violation", `name: "foo", mode: "remote"`, nil, "mode"},
		{"closed definition", `name: "foo", extra: 1`, nil, "extra"},
		{"too large", `name: "foo"`, []Option{WithMaxFileSize(4)}, "exceeds maximum"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts := append([]Option{WithFilename("settings.cue")}, tt.opts...)
			_, err := ParseAndDecode[testSettings](testSchema, []byte(tt.data), "#Settings", opts...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should contain %q", err, tt.wantSub)
			}
		})
	}
}

func TestParseAndDecode_NonConcreteMap(t *testing.T) {
	t.Parallel()

	got, err := ParseAndDecode[map[string]any](testSchema, []byte(`name: "foo"`), "#Settings", WithConcrete(false))
	if err != nil {
		t.Fatalf("ParseAndDecode() error = %v", err)
	}
	if (*got)["name"] != "foo" {
		t.Errorf("name = %v", (*got)["name"])
	}
}

func TestFormatError(t *testing.T) {
	t.Parallel()

	if FormatError(nil, "x.cue") != nil {
		t.Error("FormatError(nil) should be nil")
	}
	orig := errors.New("some error")
	err := FormatError(orig, "x.cue")
	if !errors.Is(err, orig) {
		t.Error("non-CUE errors should stay wrapped")
	}
	if !strings.HasPrefix(err.Error(), "x.cue: ") {
		t.Errorf("error = %q", err)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"ui"}, "ui"},
		{[]string{"ui", "color_scheme"}, "ui.color_scheme"},
		{[]string{"includes", "0", "path"}, "includes[0].path"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.path); got != tt.want {
			t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := CheckFileSize([]byte("abc"), 3, "f"); err != nil {
		t.Errorf("at limit should pass, got %v", err)
	}
	if err := CheckFileSize([]byte("abcd"), 3, "f"); err == nil {
		t.Error("over limit should fail")
	}
}
