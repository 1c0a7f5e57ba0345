package tracker

import "testing"

func TestCleanText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "add dark mode", "add dark mode"},
		{"html tags", "<p>add <b>dark</b> mode</p>", "add dark mode"},
		{"entities", "search &amp; replace", "search & replace"},
		{"urls", "see https://example.com/issues/1 for details", "see for details"},
		{"code fence", "please add this:\n```go\nfunc main() {}\n```\nthanks", "please add this: thanks"},
		{"inline code", "support `--verbose` flag", "support flag"},
		{"whitespace", "  add\n\ndark\t mode  ", "add dark mode"},
		{
			"combined",
			"<div>Upgrade &lt;api&gt; docs at http://docs.example.com please</div>",
			"Upgrade <api> docs at please",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanText(tc.in); got != tc.want {
				t.Fatalf("CleanText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
