package models

import (
	"encoding/json"
	"testing"
)

func TestEnvelopeJSON(t *testing.T) {
	tests := []struct {
		name string
		env  Envelope
		want string
	}{
		{"ok", OK([]int{1}), `{"success":true,"data":[1]}`},
		{"ok without data", OK(nil), `{"success":true}`},
		{"fail", Fail("Invalid Token"), `{"success":false,"error":"Invalid Token"}`},
		{
			"invalid",
			Invalid(FieldErrors{"title": "Title is required"}),
			`{"success":false,"error":"Validation failed","errors":{"title":"Title is required"}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.env)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(b) != tt.want {
				t.Fatalf("got %s, want %s", b, tt.want)
			}
		})
	}
}
