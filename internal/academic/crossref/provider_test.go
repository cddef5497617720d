package crossref

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReferences_AlwaysEmpty(t *testing.T) {
	c := New(nil, nil)
	refs, err := c.GetReferences(context.Background(), "10.1/doi")
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestGetCitations_AlwaysEmpty(t *testing.T) {
	c := New(nil, nil)
	cites, err := c.GetCitations(context.Background(), "10.1/doi")
	require.NoError(t, err)
	assert.Empty(t, cites)
}

func TestStripJATS(t *testing.T) {
	out := stripJATS("<jats:p>Some abstract text.</jats:p>")
	assert.Equal(t, "Some abstract text.", out)
}
