// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/research-podcast/internal/httputil"
	"github.com/pdiddy/research-podcast/pkg/types"
)

// googleTTSBase is the Google Translate speech endpoint. Package-level var
// for test substitution.
var googleTTSBase = "https://translate.google.com/translate_tts"

// maxSegmentChars is the longest text the endpoint accepts per request.
const maxSegmentChars = 100

// GoogleTTS speaks text through the Google Translate TTS endpoint, one
// request per segment, concatenating the MP3 frames.
type GoogleTTS struct {
	client *http.Client
	cfg    types.HTTPConfig
}

// NewGoogleTTS creates a TTS client sharing client.
func NewGoogleTTS(client *http.Client, cfg types.HTTPConfig) *GoogleTTS {
	return &GoogleTTS{client: client, cfg: cfg}
}

// Speak returns MP3 audio for text in lang.
func (g *GoogleTTS) Speak(ctx context.Context, text, lang string) ([]byte, error) {
	segments := Segments(text, maxSegmentChars)
	if len(segments) == 0 {
		return nil, ErrEmptyText
	}

	var out bytes.Buffer
	for i, seg := range segments {
		if err := g.fetch(ctx, seg, lang, i, len(segments), &out); err != nil {
			return nil, fmt.Errorf("segment %d/%d: %w", i+1, len(segments), err)
		}
	}
	return out.Bytes(), nil
}

func (g *GoogleTTS) fetch(ctx context.Context, seg, lang string, idx, total int, w io.Writer) error {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", lang)
	q.Set("q", seg)
	q.Set("total", strconv.Itoa(total))
	q.Set("idx", strconv.Itoa(idx))
	q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(seg)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleTTSBase+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", g.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, g.client, req, g.cfg.MaxRetries)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp, "Google TTS"); err != nil {
		return err
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return fmt.Errorf("reading audio: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("Google TTS returned an empty body")
	}
	return nil
}

// Segments splits text into pieces of at most limit runes, breaking at spaces.
// Words longer than limit are cut.
func Segments(text string, limit int) []string {
	var out []string
	var cur []rune
	flush := func() {
		if s := strings.TrimSpace(string(cur)); s != "" {
			out = append(out, s)
		}
		cur = cur[:0]
	}

	for _, word := range strings.Fields(text) {
		w := []rune(word)
		for len(w) > limit {
			flush()
			out = append(out, string(w[:limit]))
			w = w[limit:]
		}
		if len(cur) > 0 && len(cur)+1+len(w) > limit {
			flush()
		}
		if len(cur) > 0 {
			cur = append(cur, ' ')
		}
		cur = append(cur, w...)
	}
	flush()
	return out
}
