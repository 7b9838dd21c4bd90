package sanitizer

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "brazilian mobile without country code",
			input: "11 98765-4321",
			want:  "+5511987654321",
		},
		{
			name:  "already e164",
			input: "+5511987654321",
			want:  "+5511987654321",
		},
		{
			name:  "with surrounding whitespace",
			input: "  +5511987654321  ",
			want:  "+5511987654321",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "garbage",
			input: "not-a-phone",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePhone(tt.input)
			if got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
