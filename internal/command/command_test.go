package command

import (
	"errors"
	"testing"
)

func TestParse_ValidCommands(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		model string
	}{
		{name: "simple", body: "/model bert", model: "bert"},
		{name: "underscore", body: "/model musicgen_melody", model: "musicgen_melody"},
		{name: "dash", body: "/model gpt-neox", model: "gpt-neox"},
		{name: "digits", body: "/model gpt2", model: "gpt2"},
		{name: "surrounding whitespace", body: "  /model bert  ", model: "bert"},
		{name: "crlf line ending", body: "/model bert\r\n", model: "bert"},
		{name: "multiple spaces", body: "/model   bert", model: "bert"},
		{name: "trailing comment lines", body: "/model clvp\nplease run the slow suite", model: "clvp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Parse(tt.body)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd.Model != tt.model {
				t.Errorf("expected model %q, got %q", tt.model, cmd.Model)
			}
		})
	}
}

func TestParse_NoValidCommand(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "bare command", body: "/model"},
		{name: "trailing space only", body: "/model "},
		{name: "path traversal", body: "/model ../etc"},
		{name: "absolute path", body: "/model /etc/passwd"},
		{name: "shell injection", body: "/model bert; rm -rf /"},
		{name: "leading text", body: "run /model bert"},
		{name: "dot in name", body: "/model bert.v2"},
		{name: "unicode", body: "/model бёрт"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.body)
			if !errors.Is(err, ErrNoValidCommand) {
				t.Errorf("expected ErrNoValidCommand, got %v", err)
			}
		})
	}
}

func TestParse_NotCommand(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty", body: ""},
		{name: "plain comment", body: "LGTM"},
		{name: "mentions models", body: "this changes the bert model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.body)
			if !errors.Is(err, ErrNotCommand) {
				t.Errorf("expected ErrNotCommand, got %v", err)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "/model bert", want: "/model bert"},
		{name: "crlf", in: "/model bert\r\n", want: "/model bert"},
		{name: "first line only", in: "  /model bert  \nsecond line", want: "/model bert"},
		{name: "cr inside", in: "/model\r bert", want: "/model bert"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsValidModelName(t *testing.T) {
	valid := []string{"bert", "gpt2", "musicgen_melody", "gpt-neox"}
	for _, name := range valid {
		if !IsValidModelName(name) {
			t.Errorf("expected %q to be valid", name)
		}
	}

	invalid := []string{"", "../etc", "bert v2", "bert.v2", "a/b"}
	for _, name := range invalid {
		if IsValidModelName(name) {
			t.Errorf("expected %q to be invalid", name)
		}
	}
}
