package components

import (
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndicatorStartsStopped(t *testing.T) {
	ind := NewBusyIndicator("Generating response...")
	assert.Equal(t, IndicatorStopped, ind.State())
	assert.Empty(t, ind.View())
}

func TestIndicatorAnimatesAndSelfReschedules(t *testing.T) {
	ind := NewBusyIndicator("Generating response...")

	first := ind.Start()
	require.NotNil(t, first)
	assert.Equal(t, IndicatorAnimating, ind.State())

	next := ind.Update(first())
	require.NotNil(t, next, "an animating indicator schedules the next frame")
	assert.Equal(t, 1, ind.Advances())
	assert.Contains(t, ind.View(), BrailleFrames[1])
	assert.Contains(t, ind.View(), "Generating response...")

	// the scheduled tick fires after FrameInterval and advances again
	again := ind.Update(next())
	require.NotNil(t, again)
	assert.Equal(t, 2, ind.Advances())
	assert.Contains(t, ind.View(), BrailleFrames[2])
}

func TestIndicatorStartThenStopLeavesNoDanglingTimer(t *testing.T) {
	ind := NewBusyIndicator("busy")
	first := ind.Start()
	ind.Stop()

	assert.Equal(t, IndicatorStopped, ind.State())
	assert.Nil(t, ind.Update(first()), "a tick after Stop must not reschedule")
	assert.Nil(t, ind.Update(spinner.TickMsg{ID: ind.ID()}))
	assert.Equal(t, 0, ind.Advances())
	assert.Empty(t, ind.View())
}

func TestIndicatorPendingTickAfterStopIsDropped(t *testing.T) {
	ind := NewBusyIndicator("busy")
	pending := ind.Update(ind.Start()())
	require.NotNil(t, pending)

	ind.Stop()
	assert.Nil(t, ind.Update(pending()))
	assert.Equal(t, 1, ind.Advances())
}

func TestIndicatorStopIsIdempotent(t *testing.T) {
	ind := NewBusyIndicator("busy")
	ind.Stop()
	ind.Stop()
	assert.Equal(t, IndicatorStopped, ind.State())

	ind.Start()
	ind.Stop()
	ind.Stop()
	assert.Equal(t, IndicatorStopped, ind.State())
}

func TestIndicatorDoubleStartKeepsOneChain(t *testing.T) {
	ind := NewBusyIndicator("busy")
	require.NotNil(t, ind.Start())
	assert.Nil(t, ind.Start())
}

func TestIndicatorRestartSupersedesStaleChain(t *testing.T) {
	ind := NewBusyIndicator("busy")
	stale := ind.Update(ind.Start()())
	require.NotNil(t, stale)
	ind.Stop()

	fresh := ind.Update(ind.Start()())
	require.NotNil(t, fresh)
	advances := ind.Advances()

	assert.Nil(t, ind.Update(stale()), "tick from the previous chain is ignored")
	assert.Equal(t, advances, ind.Advances())
	assert.NotNil(t, ind.Update(fresh()))
}

func TestIndicatorIgnoresForeignMessages(t *testing.T) {
	ind := NewBusyIndicator("busy")
	ind.Start()

	assert.Nil(t, ind.Update(tea.KeyMsg{Type: tea.KeyEnter}))
	assert.Nil(t, ind.Update(spinner.TickMsg{ID: ind.ID() + 1000}))
	assert.Equal(t, 0, ind.Advances())
}

func TestIndicatorFramesWrap(t *testing.T) {
	ind := NewBusyIndicator("busy")
	ind.Start()
	for i := 0; i < len(BrailleFrames); i++ {
		require.NotNil(t, ind.Update(spinner.TickMsg{ID: ind.ID()}))
	}
	assert.Contains(t, ind.View(), BrailleFrames[0])
}
