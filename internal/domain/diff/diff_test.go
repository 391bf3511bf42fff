package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompare_SameLength(t *testing.T) {
	old := []string{"A 001 10/20", "A 002 5/20"}
	after := []string{"A 001 12/20", "A 002 5/20"}

	lines := Compare(old, after)

	assert.Equal(t, []Line{
		{Text: "A 001 12/20", Changed: true},
		{Text: "A 002 5/20", Changed: false},
	}, lines)
	assert.True(t, HasChanges(lines))
	assert.Equal(t, []string{"<b>A 001 12/20</b>", "A 002 5/20"}, Render(lines))
}

func TestCompare_DifferentLength(t *testing.T) {
	old := []string{"A 001 10/20", "A 002 5/20"}
	after := []string{"A 001 10/20", "A 002 5/20", "A 003 0/20"}

	lines := Compare(old, after)

	assert.Len(t, lines, 3)
	assert.False(t, HasChanges(lines))
	assert.Equal(t, after, Render(lines))
}

func TestCompare_Shrink(t *testing.T) {
	lines := Compare([]string{"h", "a", "b"}, []string{"h", "b"})

	assert.Equal(t, []string{"h", "b"}, Render(lines))
}

func TestNotification(t *testing.T) {
	lines := Compare(
		[]string{"<b>W23 MATH 237</b>", "LEC 001 10/20"},
		[]string{"<b>W23 MATH 237</b>", "LEC 001 11/20"},
	)

	assert.Equal(t,
		"Course info changed:\n\n<b>W23 MATH 237</b>\n<b>LEC 001 11/20</b>",
		Notification(lines))
}
