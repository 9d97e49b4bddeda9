// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/curriculum-engine/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubRenderer struct {
	html  string
	err   error
	panic bool
	calls int
}

func (s *stubRenderer) Render(context.Context, string) (string, error) {
	s.calls++
	if s.panic {
		panic("renderer exploded")
	}
	return s.html, s.err
}

func tutorialPage() string {
	var b strings.Builder
	b.WriteString(`<html><body><nav>Menu</nav><article><h1>Learning Go</h1>`)
	for i := 0; i < 12; i++ {
		b.WriteString("<p>" + longSentence + " Section " + string(rune('A'+i)) + ".</p>")
	}
	b.WriteString(`<img src="/img/site-icon.png"><img src="/img/tour.png"></article>`)
	b.WriteString(`<footer>Subscribe to our newsletter</footer></body></html>`)
	return b.String()
}

func TestFetchAndClean(t *testing.T) {
	r := &stubRenderer{html: tutorialPage()}
	f := NewFetcher(r, types.DefaultConfig().Crawl, nil)

	text, images := f.FetchAndClean(context.Background(), "https://learn.example.com/go")
	assert.Contains(t, text, "# Learning Go")
	assert.Contains(t, text, "Section L.")
	assert.NotContains(t, text, "Menu")
	assert.NotContains(t, text, "newsletter")
	assert.Equal(t, []string{"https://learn.example.com/img/tour.png"}, images)
}

func TestFetchAndCleanIsIdempotent(t *testing.T) {
	r := &stubRenderer{html: tutorialPage()}
	f := NewFetcher(r, types.DefaultConfig().Crawl, nil)

	text1, images1 := f.FetchAndClean(context.Background(), "https://learn.example.com/go")
	text2, images2 := f.FetchAndClean(context.Background(), "https://learn.example.com/go")
	assert.Equal(t, text1, text2)
	assert.Equal(t, images1, images2)
	assert.Equal(t, 2, r.calls, "every call fetches fresh")
}

func TestFetchAndCleanAbsorbsFailures(t *testing.T) {
	tests := []struct {
		name     string
		renderer Renderer
		wantMsg  string
	}{
		{"render error", &stubRenderer{err: errors.New("net::ERR_NAME_NOT_RESOLVED")}, "page fetch failed"},
		{"render panic", &stubRenderer{panic: true}, "page fetch panicked"},
		{"no renderer", nil, "page fetch failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.ErrorLevel)
			f := NewFetcher(tt.renderer, types.DefaultConfig().Crawl, zap.New(core))

			text, images := f.FetchAndClean(context.Background(), "https://broken.example.com/")
			assert.Empty(t, text)
			assert.Nil(t, images)
			assert.Equal(t, 1, logs.FilterMessage(tt.wantMsg).Len())
		})
	}
}

func TestHTTPRenderer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
		assert.Equal(t, "curriculum-engine/test", r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte(tutorialPage()))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	r := &HTTPRenderer{Client: ts.Client(), UserAgent: "curriculum-engine/test"}

	doc, err := r.Render(context.Background(), ts.URL+"/ok")
	require.NoError(t, err)
	assert.Contains(t, doc, "<article>")

	_, err = r.Render(context.Background(), ts.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestFetcherOverHTTP(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(tutorialPage()))
	}))
	defer ts.Close()

	cfg := types.DefaultConfig().Crawl
	cfg.Renderer = types.RendererHTTP
	cfg.Timeout = 5 * time.Second
	r, err := NewRenderer(cfg)
	require.NoError(t, err)

	text, images := NewFetcher(r, cfg, nil).FetchAndClean(context.Background(), ts.URL+"/go")
	assert.Greater(t, len(text), 500)
	assert.Equal(t, []string{ts.URL + "/img/tour.png"}, images)
}

func TestNewRenderer(t *testing.T) {
	cfg := types.DefaultConfig().Crawl

	r, err := NewRenderer(cfg)
	require.NoError(t, err)
	br, ok := r.(*BrowserRenderer)
	require.True(t, ok)
	assert.NoError(t, br.Close(), "closing an unused browser is a no-op")

	cfg.Renderer = types.RendererHTTP
	r, err = NewRenderer(cfg)
	require.NoError(t, err)
	assert.IsType(t, &HTTPRenderer{}, r)

	cfg.Renderer = "curl"
	_, err = NewRenderer(cfg)
	assert.Error(t, err)
}
