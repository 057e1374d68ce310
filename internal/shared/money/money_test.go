package money

import "testing"

func TestParseCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "Positive", input: "123.45", want: 12345},
		{name: "Negative", input: "-123.45", want: -12345},
		{name: "Whole", input: "1000", want: 100000},
		{name: "Single Decimal", input: "0.5", want: 50},
		{name: "Empty", input: "", want: 0},
		{name: "Zero", input: "0.00", want: 0},
		{name: "Rounds Sub-Cent", input: "1.005", want: 101},
		{name: "Malformed", input: "12,34", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCents(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseCents(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCents(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestToMajor(t *testing.T) {
	tests := []struct {
		cents int64
		want  float64
	}{
		{12345, 123.45},
		{-12345, -123.45},
		{0, 0},
		{1, 0.01},
	}

	for _, tt := range tests {
		if got := ToMajor(tt.cents); got != tt.want {
			t.Errorf("ToMajor(%d) = %v, want %v", tt.cents, got, tt.want)
		}
	}
}

func TestParseCentsFloat(t *testing.T) {
	if got := ParseCentsFloat(19.99); got != 1999 {
		t.Errorf("ParseCentsFloat(19.99) = %d, want 1999", got)
	}
	if got := ParseCentsFloat(-0.1); got != -10 {
		t.Errorf("ParseCentsFloat(-0.1) = %d, want -10", got)
	}
}
