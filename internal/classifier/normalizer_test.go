package classifier

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		subject  string
		body     string
		htmlBody string
		want     string
	}{
		{
			name:    "plain text passthrough",
			subject: "AOG at JFK",
			body:    "Aircraft N789XY grounded.",
			want:    "AOG at JFK Aircraft N789XY grounded.",
		},
		{
			name:    "whitespace collapsed",
			subject: "Parts   order",
			body:    "line one\n\n\tline two",
			want:    "Parts order line one line two",
		},
		{
			name:     "html body used when plain body empty",
			subject:  "Invoice",
			body:     "",
			htmlBody: "<html><body><p>Payment overdue</p></body></html>",
			want:     "Invoice Payment overdue",
		},
		{
			name:     "plain body preferred over html",
			subject:  "Invoice",
			body:     "plain wins",
			htmlBody: "<p>html loses</p>",
			want:     "Invoice plain wins",
		},
		{
			name:    "html in plain body stripped",
			subject: "Status",
			body:    "<div>still <b>grounded</b></div>",
			want:    "Status still grounded",
		},
		{
			name:    "html in subject stripped",
			subject: "<div>AOG <b>status</b></div>",
			body:    "grounded",
			want:    "AOG status grounded",
		},
		{
			name: "empty input",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.subject, tt.body, tt.htmlBody)
			if got.Plain != tt.want {
				t.Errorf("Plain = %q, want %q", got.Plain, tt.want)
			}
			if got.Lower != strings.ToLower(tt.want) {
				t.Errorf("Lower = %q, want %q", got.Lower, strings.ToLower(tt.want))
			}
		})
	}
}

func TestNormalizeDropsScriptAndStyle(t *testing.T) {
	got := Normalize("Report", "", `<html><head><style>p{color:red}</style></head><body><p>visible</p><script>alert("x")</script></body></html>`)
	if strings.Contains(got.Plain, "alert") || strings.Contains(got.Plain, "color") {
		t.Errorf("script/style content leaked into %q", got.Plain)
	}
	if !strings.Contains(got.Plain, "visible") {
		t.Errorf("text content lost from %q", got.Plain)
	}
}

func TestNormalizePreservesCaseInPlain(t *testing.T) {
	got := Normalize("Tail N123AB", "Grounded at LHR", "")
	if !strings.Contains(got.Plain, "N123AB") {
		t.Errorf("Plain lost original case: %q", got.Plain)
	}
	if strings.Contains(got.Lower, "N123AB") {
		t.Errorf("Lower kept original case: %q", got.Lower)
	}
}

func TestNormalizeInvalidUTF8(t *testing.T) {
	got := Normalize("Status", string([]byte{0xff, 0xfe, 'o', 'k'}), "")
	if !strings.Contains(got.Plain, "ok") {
		t.Errorf("valid bytes lost: %q", got.Plain)
	}
	for _, r := range got.Plain {
		if r == '�' {
			t.Errorf("replacement rune left in %q", got.Plain)
		}
	}
}
