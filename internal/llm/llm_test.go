package llm

import (
	"strings"
	"testing"
)

func TestStripMarkdownFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"tilde fence", "~~~\n{\"a\":1}\n~~~", `{"a":1}`},
		{"truncated fence", "```json\n{\"a\":1}", `{"a":1}`},
		{"surrounding whitespace", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
		{"empty body", "```\n```", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := StripMarkdownFences(c.in); got != c.want {
				t.Errorf("StripMarkdownFences(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestFixInvalidJSONEscapes(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"regex digit", `{"p":"\d+"}`, `{"p":"\\d+"}`},
		{"regex word", `{"p":"\w"}`, `{"p":"\\w"}`},
		{"valid escapes untouched", `{"p":"a\nb\t\"c\""}`, `{"p":"a\nb\t\"c\""}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := FixInvalidJSONEscapes(c.in); got != c.want {
				t.Errorf("FixInvalidJSONEscapes(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"bare json", `{"name":"ok"}`, "ok", false},
		{"fenced json", "```json\n{\"name\":\"ok\"}\n```", "ok", false},
		{"invalid escapes", `{"name":"ok", "extra":"\d+"}`, "ok", false},
		{"embedded in prose", `Here is the JSON you asked for: {"name":"ok"} hope it helps`, "ok", false},
		{"not json at all", "sorry, I cannot do that", "", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var p payload
			err := DecodeJSON(c.in, &p)
			if c.wantErr {
				if err == nil {
					t.Fatal("expected decode error")
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeJSON: %v", err)
			}
			if p.Name != c.want {
				t.Errorf("decoded name = %q, want %q", p.Name, c.want)
			}
		})
	}
}

func TestNewProvider_Unknown(t *testing.T) {
	_, err := NewProvider("mystery", "some-model")
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if !strings.Contains(err.Error(), "unknown provider") {
		t.Errorf("unexpected error: %v", err)
	}
}
