package vcs

import (
	"path/filepath"
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// DeriveBranchName computes the default branch name for a PRD: the
// lowercased file stem with runs of non-alphanumeric characters collapsed to
// a single '-', trimmed of leading/trailing '-', prefixed with "ralph/".
func DeriveBranchName(prdPath string) string {
	stem := strings.TrimSuffix(filepath.Base(prdPath), filepath.Ext(prdPath))
	slug := nonAlnum.ReplaceAllString(strings.ToLower(stem), "-")
	slug = strings.Trim(slug, "-")
	return "ralph/" + slug
}
