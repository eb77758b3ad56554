package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFullInfo(t *testing.T) {
	assert.Contains(t, FullInfo(), Version)
	assert.Contains(t, FullInfo(), "conceptmap")
	assert.Equal(t, Version, Info())
}

func TestBuildIDStable(t *testing.T) {
	id := BuildID()
	assert.NotEmpty(t, id)
	assert.Equal(t, id, BuildID())
}

func TestImplementation(t *testing.T) {
	assert.Equal(t, Version+"+"+BuildID(), Implementation())
}
