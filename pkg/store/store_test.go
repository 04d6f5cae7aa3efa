package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omergulen/sourcemap-harvest/pkg/models"
)

func TestObserveInsertionOrder(t *testing.T) {
	st := New()
	st.Observe(models.ScriptRecord{ScriptID: "c", URL: "https://x/c.js"})
	st.Observe(models.ScriptRecord{ScriptID: "a", URL: "https://x/a.js"})
	st.Observe(models.ScriptRecord{ScriptID: "b", URL: "https://x/b.js"})

	recs := st.Records()
	require.Len(t, recs, 3)
	assert.Equal(t, "c", recs[0].ScriptID)
	assert.Equal(t, "a", recs[1].ScriptID)
	assert.Equal(t, "b", recs[2].ScriptID)
}

func TestObserveLastWriteWins(t *testing.T) {
	st := New()
	st.Observe(models.ScriptRecord{ScriptID: "s", URL: "https://x/v1.js", SourceMapURL: "v1.map"})
	st.Observe(models.ScriptRecord{ScriptID: "other"})
	st.Observe(models.ScriptRecord{ScriptID: "s", URL: "https://x/v2.js", SourceMapURL: "v2.map"})

	recs := st.Records()
	require.Len(t, recs, 2)
	// updated in place, position preserved
	assert.Equal(t, "s", recs[0].ScriptID)
	assert.Equal(t, "https://x/v2.js", recs[0].URL)
	assert.Equal(t, "v2.map", recs[0].SourceMapURL)
}

func TestBody(t *testing.T) {
	st := New()
	st.SetBody("s", []byte("console.log(1)"))

	body, err := st.Body("s")
	require.NoError(t, err)
	assert.Equal(t, "console.log(1)", string(body))

	_, err = st.Body("unknown")
	assert.ErrorIs(t, err, ErrScriptUnavailable)
}

func TestLen(t *testing.T) {
	st := New()
	assert.Equal(t, 0, st.Len())
	st.Observe(models.ScriptRecord{ScriptID: "a"})
	st.Observe(models.ScriptRecord{ScriptID: "a"})
	assert.Equal(t, 1, st.Len())
}
