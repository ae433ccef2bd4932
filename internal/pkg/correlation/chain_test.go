package correlation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChain_AppendDoesNotShareBacking(t *testing.T) {
	parent := Chain{"a"}
	left := parent.Append("b")
	right := parent.Append("c")

	assert.Equal(t, Chain{"a"}, parent)
	assert.Equal(t, Chain{"a", "b"}, left)
	assert.Equal(t, Chain{"a", "c"}, right)
}

func TestChain_String(t *testing.T) {
	assert.Equal(t, "", Chain{}.String())
	assert.Equal(t, "", Chain(nil).String())
	assert.Equal(t, "a", Chain{"a"}.String())
	assert.Equal(t, "a,b,c", Chain{"a", "b", "c"}.String())
}

func TestChain_Helpers(t *testing.T) {
	c := Chain{"a", "b"}

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "b", c.Last())
	assert.Equal(t, "", Chain{}.Last())
	assert.True(t, c.HasPrefix(Chain{"a"}))
	assert.True(t, c.HasPrefix(Chain{}))
	assert.False(t, c.HasPrefix(Chain{"b"}))
	assert.False(t, c.HasPrefix(Chain{"a", "b", "c"}))
	assert.True(t, c.Equal(Chain{"a", "b"}))

	clone := c.Clone()
	clone[0] = "z"
	assert.Equal(t, "a", c[0])
	assert.NotNil(t, Chain(nil).Clone())
}

func TestParse(t *testing.T) {
	assert.Equal(t, Chain{}, Parse(""))
	assert.Equal(t, Chain{"a"}, Parse("a"))
	assert.Equal(t, Chain{"a", "b"}, Parse(" a , ,b,"))

	c := Chain{"x", "y", "z"}
	assert.Equal(t, c, Parse(c.String()))
}
