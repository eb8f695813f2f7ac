package main

import (
	"reflect"
	"testing"
)

func TestParseArgs(t *testing.T) {
	got := parseArgs([]string{"7", "[0,0,3]", `"Dealer"`, "true", "PED", `{"x":1}`})
	want := []any{
		float64(7),
		[]any{float64(0), float64(0), float64(3)},
		"Dealer",
		true,
		"PED",
		map[string]any{"x": float64(1)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v", got)
	}
}
