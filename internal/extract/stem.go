// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/research-podcast/pkg/types"
)

// urlStemLen bounds URL stems to keep artifact names short.
const urlStemLen = 30

var (
	unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]`)
	nonAlnum       = regexp.MustCompile(`[^A-Za-z0-9]`)
)

// Stem derives the artifact name stem for an item.
//
//	PDF: base filename without extension, unsafe characters replaced by "_"
//	DOI: every non-alphanumeric character replaced by "_"
//	URL: scheme stripped, non-alphanumerics replaced by "_", first 30 characters
//
// An empty result falls back to the item kind.
func Stem(item types.InputItem) string {
	var s string
	switch item.Kind {
	case types.KindPDF:
		base := filepath.Base(item.DisplayName)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		s = unsafeFilename.ReplaceAllString(base, "_")
	case types.KindDOI:
		s = nonAlnum.ReplaceAllString(strings.TrimSpace(item.Ref), "_")
	case types.KindURL:
		u := strings.TrimSpace(item.Ref)
		u = strings.TrimPrefix(u, "https://")
		u = strings.TrimPrefix(u, "http://")
		s = nonAlnum.ReplaceAllString(u, "_")
		if len(s) > urlStemLen {
			s = s[:urlStemLen]
		}
	}
	if s == "" || s == "." || strings.Trim(s, "_") == "" {
		return item.Kind.String()
	}
	return s
}

// StemSet hands out stems that are unique within one batch. It is not safe
// for concurrent use; the orchestrator claims stems in input order.
type StemSet struct {
	used map[string]bool
}

// NewStemSet creates a set with the given stems already taken.
func NewStemSet(reserved ...string) *StemSet {
	s := &StemSet{used: make(map[string]bool, len(reserved))}
	for _, r := range reserved {
		s.used[r] = true
	}
	return s
}

// Claim returns stem if it is free, otherwise the first free of stem_2,
// stem_3, and so on.
func (s *StemSet) Claim(stem string) string {
	candidate := stem
	for n := 2; s.used[candidate]; n++ {
		candidate = stem + "_" + strconv.Itoa(n)
	}
	s.used[candidate] = true
	return candidate
}
