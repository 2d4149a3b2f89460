package hujsonx

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestUnmarshal(t *testing.T) {
	type options struct {
		Resolver string
		Timeout  string
	}

	t.Run("with comments and trailing commas", func(t *testing.T) {
		input := []byte(`{
			// the resolver to use
			"Resolver": "udp://8.8.8.8:53",
			"Timeout": "5s", /* trailing comma below */
		}`)
		var got options
		if err := Unmarshal(input, &got); err != nil {
			t.Fatal(err)
		}
		expect := options{Resolver: "udp://8.8.8.8:53", Timeout: "5s"}
		if diff := cmp.Diff(expect, got); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("with invalid input", func(t *testing.T) {
		var got options
		if err := Unmarshal([]byte(`{`), &got); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("with type mismatch", func(t *testing.T) {
		var got options
		if err := Unmarshal([]byte(`{"Resolver": 17}`), &got); err == nil {
			t.Fatal("expected an error")
		}
	})
}
