package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		SetLevel("info")
	})

	SetLevel("warn")
	Infof("hidden %d", 1)
	Warnf("shown %d", 2)
	assert.NotContains(t, buf.String(), "hidden 1")
	assert.Contains(t, buf.String(), "shown 2")

	buf.Reset()
	SetLevel("DEBUG")
	Debugf("trace")
	assert.Contains(t, buf.String(), "level=DEBUG")

	buf.Reset()
	SetLevel("nonsense")
	Debugf("dropped")
	assert.Empty(t, buf.String())
}
