package synth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxChunkLen is the longest text the translate endpoint accepts per request.
const maxChunkLen = 200

// GoogleTTSClient renders text through the Google Translate TTS endpoint.
// Implements the Renderer interface.
type GoogleTTSClient struct {
	endpoint string
	client   *http.Client
}

// NewGoogleTTSClient creates a new renderer. endpoint is typically
// https://translate.google.com/translate_tts.
func NewGoogleTTSClient(endpoint string, timeout time.Duration) *GoogleTTSClient {
	return &GoogleTTSClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Render fetches MP3 audio for text. Long input is split on whitespace into
// endpoint-sized chunks and the returned MP3 streams are concatenated, which
// players treat as one continuous file.
func (g *GoogleTTSClient) Render(ctx context.Context, text, language string, slow bool) ([]byte, error) {
	chunks := splitChunks(text, maxChunkLen)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("nothing to render")
	}

	var out []byte
	for i, chunk := range chunks {
		data, err := g.fetch(ctx, chunk, language, slow, i, len(chunks))
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
	}
	return out, nil
}

func (g *GoogleTTSClient) fetch(ctx context.Context, text, language string, slow bool, idx, total int) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("q", text)
	q.Set("tl", language)
	q.Set("idx", fmt.Sprintf("%d", idx))
	q.Set("total", fmt.Sprintf("%d", total))
	q.Set("textlen", fmt.Sprintf("%d", len([]rune(text))))
	if slow {
		q.Set("ttsspeed", "0.3")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	// The endpoint rejects requests without a browser-ish user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts endpoint error (status %d): %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

// splitChunks breaks text into pieces of at most limit runes, preferring
// whitespace boundaries. A single over-long token is split mid-word.
func splitChunks(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len([]rune(text)) <= limit {
		return []string{text}
	}

	var chunks []string
	var cur []string
	curLen := 0
	for _, word := range strings.Fields(text) {
		wl := len([]rune(word))
		if wl > limit {
			if len(cur) > 0 {
				chunks = append(chunks, strings.Join(cur, " "))
				cur, curLen = nil, 0
			}
			r := []rune(word)
			for len(r) > limit {
				chunks = append(chunks, string(r[:limit]))
				r = r[limit:]
			}
			cur = []string{string(r)}
			curLen = len(r)
			continue
		}
		if curLen > 0 && curLen+1+wl > limit {
			chunks = append(chunks, strings.Join(cur, " "))
			cur, curLen = nil, 0
		}
		cur = append(cur, word)
		if curLen > 0 {
			curLen++
		}
		curLen += wl
	}
	if len(cur) > 0 {
		chunks = append(chunks, strings.Join(cur, " "))
	}
	return chunks
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
