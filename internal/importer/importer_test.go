package importer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><head><title>t</title><style>p{color:red}</style></head>
<body>
<nav>Home | About</nav>
<h1>The farm</h1>
<p>I grew up   on a farm
in 1952.</p>
<script>var x = "dad";</script>
<p>We had <b>three</b> cows.</p>
<footer>copyright</footer>
</body></html>`

func TestReadText(t *testing.T) {
	text, err := ReadText(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "The farm\n\nI grew up on a farm in 1952.\n\nWe had three cows.", text)
}

func TestReadTextEmpty(t *testing.T) {
	_, err := ReadText(strings.NewReader("<html><script>x</script></html>"))
	assert.True(t, errors.Is(err, ErrNoText))
}

func TestReadTextTruncates(t *testing.T) {
	body := "<p>" + strings.Repeat("word ", maxTextBytes) + "</p>"
	text, err := ReadText(strings.NewReader(body))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(text), maxTextBytes)
	assert.True(t, strings.HasSuffix(text, "word"))
}

func TestFetchText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "memoir/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	defer srv.Close()

	text, err := FetchText(context.Background(), srv.Client(), srv.URL+"/story")
	require.NoError(t, err)
	assert.Contains(t, text, "I grew up on a farm in 1952.")
	assert.NotContains(t, text, "dad")

	_, err = FetchText(context.Background(), srv.Client(), srv.URL+"/missing")
	assert.Error(t, err)
}

func TestFetchTextRejectsScheme(t *testing.T) {
	_, err := FetchText(context.Background(), nil, "ftp://example.com/story")
	assert.ErrorContains(t, err, "unsupported scheme")
}

func TestFetchTextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := FetchText(ctx, srv.Client(), srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com"))
	assert.True(t, IsURL("  www.example.com"))
	assert.False(t, IsURL("I grew up on a farm"))
}
