package logging

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesDateNamedFile(t *testing.T) {
	l, err := New(&Config{LogDir: t.TempDir(), Level: "debug", Console: false})
	require.NoError(t, err)
	defer l.Close()

	assert.Regexp(t, `clawcat_\d{4}-\d{2}-\d{2}\.log$`, l.Path())

	log := l.Component("test")
	log.Info().Str("k", "v").Msg("hello")

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"test"`)
	assert.Contains(t, string(data), `"app":"clawcat"`)
	assert.Contains(t, string(data), "hello")
}

func TestComponentLoggersShareFile(t *testing.T) {
	l, err := New(&Config{LogDir: t.TempDir(), Console: false})
	require.NoError(t, err)
	defer l.Close()

	one := l.Component("one")
	one.Info().Msg("from one")
	two := l.Component("two")
	two.Info().Msg("from two")

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "from one")
	assert.Contains(t, string(data), "from two")
}
