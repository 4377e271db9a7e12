// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdiddy/research-podcast/pkg/types"
)

// doiPattern matches DOIs: "10.1145/1234567.1234568".
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

// doiPrefixes are stripped before matching a DOI.
var doiPrefixes = []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "doi:"}

// NormalizeDOI strips resolver and "doi:" prefixes from a DOI.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, p := range doiPrefixes {
		if len(doi) >= len(p) && strings.EqualFold(doi[:len(p)], p) {
			return doi[len(p):]
		}
	}
	return doi
}

// IsDOI reports whether s is a DOI, with or without a resolver prefix.
func IsDOI(s string) bool {
	return doiPattern.MatchString(NormalizeDOI(s))
}

// IsWebURL reports whether s is an absolute http or https URL.
func IsWebURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Classify maps a command-line argument to an input kind and its normalized
// form. An existing file ending in .pdf is a PDF, a DOI pattern (checked
// before URLs so doi.org links stay DOIs) is a DOI, an http(s) URL is a URL.
func Classify(arg string) (types.InputKind, string, error) {
	arg = strings.TrimSpace(arg)

	if strings.EqualFold(filepath.Ext(arg), ".pdf") {
		if info, err := os.Stat(arg); err == nil && !info.IsDir() {
			return types.KindPDF, arg, nil
		}
	}

	if IsDOI(arg) {
		return types.KindDOI, NormalizeDOI(arg), nil
	}

	if IsWebURL(arg) {
		return types.KindURL, arg, nil
	}

	return 0, arg, fmt.Errorf("%q is not a PDF file, DOI, or http(s) URL", arg)
}

// LoadInput classifies arg and builds the matching InputItem, reading PDF
// files from disk.
func LoadInput(arg string) (types.InputItem, error) {
	kind, norm, err := Classify(arg)
	if err != nil {
		return types.InputItem{}, err
	}
	switch kind {
	case types.KindPDF:
		data, err := os.ReadFile(norm)
		if err != nil {
			return types.InputItem{}, fmt.Errorf("reading %s: %w", norm, err)
		}
		return types.NewPDFInput(filepath.Base(norm), data), nil
	case types.KindDOI:
		return types.NewDOIInput(norm), nil
	default:
		return types.NewURLInput(norm), nil
	}
}
