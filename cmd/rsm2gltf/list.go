package main

import (
	"fmt"
	"io"
	"path"
	"strings"
)

// listModels prints the RSM paths held by the converter's sources that
// match pattern and returns how many were printed. pattern is a glob on
// the base name or a substring of the full path; empty matches all.
func (c *converter) listModels(w io.Writer, pattern string) int {
	if c.files == nil {
		return 0
	}
	pattern = strings.ToLower(pattern)

	count := 0
	for _, f := range c.files.List() {
		if path.Ext(f) != ".rsm" {
			continue
		}
		if pattern != "" {
			matched, _ := path.Match(pattern, path.Base(f))
			if !matched && !strings.Contains(f, pattern) {
				continue
			}
		}
		fmt.Fprintln(w, f)
		count++
	}
	return count
}
