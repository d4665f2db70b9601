package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankFollowsListOrder(t *testing.T) {
	order := New([]string{"labOrder", "labResult", "receive"})

	assert.Equal(t, 0, order.Rank("labOrder"))
	assert.Equal(t, 1, order.Rank("labResult"))
	assert.Equal(t, 2, order.Rank("receive"))
}

func TestUnknownActionGetsSentinel(t *testing.T) {
	order := New([]string{"approve", "save"})

	assert.Equal(t, 2, order.Sentinel())
	assert.Equal(t, order.Sentinel(), order.Rank("unknownX"))
	assert.Equal(t, order.Sentinel(), order.Rank(""))
}

func TestDuplicatesKeepFirstPosition(t *testing.T) {
	order := New([]string{"save", "rerun", "save"})

	assert.Equal(t, 0, order.Rank("save"))
	assert.Equal(t, 1, order.Rank("rerun"))
	assert.Equal(t, 2, order.Len())
}

func TestNamesReturnsCopy(t *testing.T) {
	order := New([]string{"a", "b"})

	names := order.Names()
	names[0] = "mutated"

	assert.Equal(t, []string{"a", "b"}, order.Names())
}
