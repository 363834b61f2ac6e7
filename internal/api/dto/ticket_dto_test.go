package dto

import (
	"encoding/json"
	"testing"
)

func TestOneDecimalMarshal(t *testing.T) {
	tests := []struct {
		in   OneDecimal
		want string
	}{
		{in: 0, want: "0.0"},
		{in: 2, want: "2.0"},
		{in: 2.3, want: "2.3"},
	}
	for _, tt := range tests {
		raw, err := json.Marshal(tt.in)
		if err != nil {
			t.Fatalf("marshal %v: %v", tt.in, err)
		}
		if string(raw) != tt.want {
			t.Fatalf("marshal %v = %s, want %s", float64(tt.in), raw, tt.want)
		}
	}
}

func TestStatsResponseAverageField(t *testing.T) {
	raw, err := json.Marshal(StatsResponse{AvgTicketsPerDay: 1})
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %s", raw)
	}
	if decoded["avg_tickets_per_day"] != 1.0 {
		t.Fatalf("decoded = %v", decoded)
	}
}
