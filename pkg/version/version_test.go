package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	t.Parallel()

	out := String()

	assert.Contains(t, out, "jsmorph ")
	assert.Contains(t, out, "commit: "+Commit)
	assert.Contains(t, out, "built: "+Date)
}
