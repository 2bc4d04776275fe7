package cfvalidate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veilmesh/cfengine/internal/cfvalidate"
)

func TestFirstNonIDRune(t *testing.T) {
	t.Parallel()

	i, r := cfvalidate.FirstNonIDRune("abc/def", true)
	assert.Equal(t, 3, i)
	assert.Equal(t, '/', r)

	i, r = cfvalidate.FirstNonIDRune("abc/def", false)
	assert.Equal(t, -1, i)
	assert.Equal(t, rune(0), r)

	i, _ = cfvalidate.FirstNonIDRune("plain-id_1", true)
	assert.Equal(t, -1, i)
}

func TestInclusion(t *testing.T) {
	t.Parallel()

	assert.NoError(t, cfvalidate.Inclusion(5, 1, 10, cfvalidate.UnitByte))
	assert.Error(t, cfvalidate.Inclusion(0, 1, 10, cfvalidate.UnitByte))
	assert.Error(t, cfvalidate.Inclusion(11, 1, 10, cfvalidate.UnitByte))
}
