package coordinator

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// slugify lowercases the filename stem and collapses runs of
// non-alphanumeric characters to a single '-', trimmed of leading/trailing
// '-'.
func slugify(prdPath string) string {
	stem := strings.TrimSuffix(filepath.Base(prdPath), filepath.Ext(prdPath))
	s := nonAlnum.ReplaceAllString(strings.ToLower(stem), "-")
	return strings.Trim(s, "-")
}

// uniqueSlugs derives one slug per PRD path in order, appending -2, -3, ...
// on collision so every loop gets a distinct state-root name.
func uniqueSlugs(prdPaths []string) []string {
	seen := make(map[string]int, len(prdPaths))
	slugs := make([]string, len(prdPaths))

	for i, p := range prdPaths {
		base := slugify(p)
		count := seen[base]
		seen[base] = count + 1

		if count == 0 {
			slugs[i] = base
			continue
		}
		slugs[i] = fmt.Sprintf("%s-%d", base, count+1)
	}
	return slugs
}
