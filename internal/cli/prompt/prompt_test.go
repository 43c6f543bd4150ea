package prompt

import (
	"errors"
	"fmt"
	"testing"

	"github.com/manifoldco/promptui"
	"github.com/stretchr/testify/assert"
)

func TestWrapError(t *testing.T) {
	assert.NoError(t, wrapError(nil))
	assert.True(t, IsAborted(wrapError(promptui.ErrInterrupt)))
	assert.True(t, IsAborted(wrapError(promptui.ErrEOF)))

	other := errors.New("boom")
	assert.Equal(t, other, wrapError(other))
	assert.False(t, IsAborted(other))
	assert.True(t, IsAborted(fmt.Errorf("browse: %w", ErrAborted)))
}

func TestConfirmWithForce(t *testing.T) {
	ok, err := ConfirmWithForce("clear cache?", true)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestBrowseActions(t *testing.T) {
	assert.Equal(t, []Action{ActionNext, ActionRefresh, ActionQuit}, BrowseActions(true, false))
	assert.Equal(t, []Action{ActionRefresh, ActionQuit}, BrowseActions(false, false))
	assert.Equal(t, []Action{ActionRetry, ActionRefresh, ActionQuit}, BrowseActions(false, true))
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "Next page", ActionNext.String())
	assert.Equal(t, "Retry page", ActionRetry.String())
	assert.Equal(t, "Quit", ActionQuit.String())
	assert.Equal(t, "unknown", Action(9).String())
}
