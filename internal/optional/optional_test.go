package optional

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// socketSettings is a settings struct using optional fields.
type socketSettings struct {
	NoDelay Value[bool]    `json:"no_delay"`
	Peer    Value[string]  `json:"peer"`
	CAFile  Value[*string] `json:"ca_file"`
}

func TestValue(t *testing.T) {
	t.Run("the zero value is None", func(t *testing.T) {
		var v Value[bool]
		if !v.IsNone() {
			t.Fatal("expected None")
		}
		if !None[string]().IsNone() {
			t.Fatal("expected None")
		}
	})

	t.Run("Some keeps explicit zero values", func(t *testing.T) {
		v := Some(false)
		if v.IsNone() {
			t.Fatal("expected Some")
		}
		if v.Unwrap() {
			t.Fatal("expected false")
		}
	})

	t.Run("Some with a nil pointer is None", func(t *testing.T) {
		var peer *string
		if !Some(peer).IsNone() {
			t.Fatal("expected None")
		}
		name := "example.com"
		if Some(&name).Unwrap() != &name {
			t.Fatal("unexpected pointer")
		}
	})

	t.Run("Unwrap panics on None", func(t *testing.T) {
		var recovered any
		func() {
			defer func() {
				recovered = recover()
			}()
			None[string]().Unwrap()
		}()
		if recovered == nil {
			t.Fatal("expected a panic")
		}
	})

	t.Run("UnwrapOr", func(t *testing.T) {
		if None[bool]().UnwrapOr(true) != true {
			t.Fatal("expected the fallback")
		}
		if Some(false).UnwrapOr(true) != false {
			t.Fatal("expected the value")
		}
	})
}

func TestValueJSON(t *testing.T) {
	t.Run("UnmarshalJSON", func(t *testing.T) {
		type testcase struct {
			name        string
			input       string
			noDelay     Value[bool]
			peer        Value[string]
			caFileIsSet bool
			expectErr   bool
		}

		testcases := []testcase{{
			name:  "with missing fields",
			input: `{}`,
		}, {
			name:  "with explicit nulls",
			input: `{"no_delay":null,"peer":null,"ca_file":null}`,
		}, {
			name:    "with an explicit false",
			input:   `{"no_delay":false}`,
			noDelay: Some(false),
		}, {
			name:        "with all the fields set",
			input:       `{"no_delay":true,"peer":"dns.google","ca_file":"x"}`,
			noDelay:     Some(true),
			peer:        Some("dns.google"),
			caFileIsSet: true,
		}, {
			name:      "with the wrong type",
			input:     `{"no_delay":"yes"}`,
			expectErr: true,
		}}

		for _, tc := range testcases {
			t.Run(tc.name, func(t *testing.T) {
				var settings socketSettings
				err := json.Unmarshal([]byte(tc.input), &settings)
				if tc.expectErr != (err != nil) {
					t.Fatal("unexpected error", err)
				}
				if tc.expectErr {
					return
				}
				if settings.NoDelay.IsNone() != tc.noDelay.IsNone() ||
					settings.NoDelay.UnwrapOr(false) != tc.noDelay.UnwrapOr(false) {
					t.Fatal("unexpected no_delay", settings.NoDelay)
				}
				if diff := cmp.Diff(tc.peer.UnwrapOr(""), settings.Peer.UnwrapOr("")); diff != "" {
					t.Fatal(diff)
				}
				if settings.CAFile.IsNone() == tc.caFileIsSet {
					t.Fatal("unexpected ca_file", settings.CAFile)
				}
			})
		}
	})

	t.Run("MarshalJSON", func(t *testing.T) {
		settings := socketSettings{NoDelay: Some(false), Peer: None[string]()}
		data, err := json.Marshal(settings)
		if err != nil {
			t.Fatal(err)
		}
		expect := `{"no_delay":false,"peer":null,"ca_file":null}`
		if diff := cmp.Diff(expect, string(data)); diff != "" {
			t.Fatal(diff)
		}
	})
}
