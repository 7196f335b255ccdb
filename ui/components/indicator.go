package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriChat/ui/styles"
)

// FrameInterval is the delay between two spinner frames.
const FrameInterval = 100 * time.Millisecond

var BrailleFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type IndicatorState int

const (
	IndicatorStopped IndicatorState = iota
	IndicatorAnimating
)

func (s IndicatorState) String() string {
	if s == IndicatorAnimating {
		return "animating"
	}
	return "stopped"
}

// BusyIndicator animates a spinner while a request is in flight. It runs
// entirely on the Bubble Tea loop: each tick schedules the next one, and a
// tick arriving after Stop schedules nothing, which ends the chain.
type BusyIndicator struct {
	spinner   spinner.Model
	state     IndicatorState
	label     string
	startedAt time.Time
	advances  int
}

func NewBusyIndicator(label string) BusyIndicator {
	s := spinner.New(
		spinner.WithSpinner(spinner.Spinner{Frames: BrailleFrames, FPS: FrameInterval}),
		spinner.WithStyle(styles.SpinnerStyle()),
	)
	return BusyIndicator{spinner: s, label: label}
}

// Start begins animating and returns the first tick. It returns nil when the
// indicator is already running so there is never more than one tick chain.
func (b *BusyIndicator) Start() tea.Cmd {
	if b.state == IndicatorAnimating {
		return nil
	}
	b.state = IndicatorAnimating
	b.startedAt = time.Now()
	return b.spinner.Tick
}

// Stop is safe to call any number of times.
func (b *BusyIndicator) Stop() {
	b.state = IndicatorStopped
}

// Update advances one frame for a tick addressed to this indicator and
// returns the next tick, or nil once stopped.
func (b *BusyIndicator) Update(msg tea.Msg) tea.Cmd {
	tick, ok := msg.(spinner.TickMsg)
	if !ok || tick.ID != b.spinner.ID() {
		return nil
	}
	if b.state != IndicatorAnimating {
		return nil
	}

	next, cmd := b.spinner.Update(tick)
	if cmd == nil {
		// tick from a chain that was superseded by a restart
		return nil
	}
	b.spinner = next
	b.advances++
	return cmd
}

func (b *BusyIndicator) State() IndicatorState {
	return b.state
}

func (b *BusyIndicator) Animating() bool {
	return b.state == IndicatorAnimating
}

// Advances counts frame changes since the indicator was created.
func (b *BusyIndicator) Advances() int {
	return b.advances
}

// ID identifies ticks that belong to this indicator.
func (b *BusyIndicator) ID() int {
	return b.spinner.ID()
}

func (b *BusyIndicator) View() string {
	if b.state != IndicatorAnimating {
		return ""
	}
	elapsed := time.Since(b.startedAt).Truncate(time.Second)
	return fmt.Sprintf("%s %s (%s)", b.spinner.View(), b.label, elapsed)
}
