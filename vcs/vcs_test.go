package vcs

import "testing"

func TestDeriveBranchName(t *testing.T) {
	cases := map[string]string{
		"Add User Auth.md":  "ralph/add-user-auth",
		"prd_v2.md":         "ralph/prd-v2",
		"./specs/--weird--.md": "ralph/weird",
	}

	for in, want := range cases {
		if got := DeriveBranchName(in); got != want {
			t.Errorf("DeriveBranchName(%q) = %q, want %q", in, got, want)
		}
	}
}
