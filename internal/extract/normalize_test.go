package extract

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "whitespace only",
			input: "   \n\t\n  ",
			want:  "",
		},
		{
			name:  "trims each line",
			input: "  Invoice 4417  \n\t Total: $90 \t",
			want:  "Invoice 4417\nTotal: $90",
		},
		{
			name:  "drops blank lines",
			input: "one\n\n\n\ntwo\n \nthree",
			want:  "one\ntwo\nthree",
		},
		{
			name:  "collapses space runs",
			input: "Vendor     name    here",
			want:  "Vendor name here",
		},
		{
			name:  "crlf",
			input: "line one\r\nline two\r\n",
			want:  "line one\nline two",
		},
		{
			name:  "preserves single spaces and tabs inside lines",
			input: "a b\tc",
			want:  "a b\tc",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := Normalize(got); again != got {
				t.Errorf("Normalize is not idempotent: %q != %q", again, got)
			}
		})
	}
}
