package reflection

import (
	"testing"
	"testing/quick"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: `{"a":1}`, want: `{"a":1}`},
		{name: "surrounding whitespace", in: "\n  {\"a\":1}  \n", want: `{"a":1}`},
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "uppercase tag", in: "```JSON\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "tag glued to object", in: "```json{\"a\":1}```", want: `{"a":1}`},
		{name: "missing closing fence", in: "```json\n{\"a\":1}", want: `{"a":1}`},
		{name: "nested fences", in: "```\n```json\n{\"a\":1}\n```\n```", want: `{"a":1}`},
		{name: "only fences", in: "``````", want: ""},
		{name: "prose is kept", in: "```hello, world```", want: "hello, world"},
		{name: "trailing fence only", in: "{\"a\":1}\n```", want: "{\"a\":1}\n```"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Fatalf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	f := func(s string) bool {
		once := Sanitize(s)
		return Sanitize(once) == once
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 2000}); err != nil {
		t.Fatal(err)
	}

	for _, s := range []string{"```json\n```json\n{}\n```\n```", "``` ```", "```\t```json", "`````"} {
		once := Sanitize(s)
		if Sanitize(once) != once {
			t.Fatalf("not idempotent for %q", s)
		}
	}
}
