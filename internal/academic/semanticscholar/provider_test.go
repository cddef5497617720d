package semanticscholar

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type explodingTransport struct{}

func (explodingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	panic("no HTTP request should be made for a foreign identifier")
}

func TestGetPaper_ForeignIdentifierGuard_NoHTTPCall(t *testing.T) {
	client := New(&http.Client{Transport: explodingTransport{}}, nil)

	p, err := client.GetPaper(context.Background(), "openalex:W123")
	require.NoError(t, err)
	assert.Nil(t, p)

	p2, err := client.GetPaper(context.Background(), "https://openalex.org/W456")
	require.NoError(t, err)
	assert.Nil(t, p2)
}

func TestNormalizeID_StripsInternalPrefix(t *testing.T) {
	id, foreign := normalizeID("s2:abc123")
	assert.False(t, foreign)
	assert.Equal(t, "abc123", id)
}
