package handlers

import "testing"

func TestBodyHasKeyTopLevelOnly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
		want bool
	}{
		{"key present", `{"assigned_to": 3}`, true},
		{"key null", `{"assigned_to": null}`, true},
		{"key absent", `{"status": "resolved"}`, false},
		{"key inside a string value", `{"note": "please set \"assigned_to\" later"}`, false},
		{"invalid json", `not json`, false},
		{"empty body", ``, false},
	}
	for _, tc := range cases {
		if got := bodyHasKey([]byte(tc.body), "assigned_to"); got != tc.want {
			t.Errorf("%s: bodyHasKey = %v, want %v", tc.name, got, tc.want)
		}
	}
}
