package reporting

// ChannelReporter delivers updates over a buffered channel for consumers
// that render asynchronously, such as the TUI dashboard. Sends never block;
// when the consumer falls behind, updates are dropped rather than stalling
// the supervisor.
type ChannelReporter struct {
	ch chan ForwardUpdate
}

func NewChannelReporter(buffer int) *ChannelReporter {
	if buffer < 1 {
		buffer = 64
	}
	return &ChannelReporter{ch: make(chan ForwardUpdate, buffer)}
}

func (r *ChannelReporter) Report(update ForwardUpdate) {
	select {
	case r.ch <- update:
	default:
	}
}

// Updates returns the receive side of the reporter.
func (r *ChannelReporter) Updates() <-chan ForwardUpdate { return r.ch }

// Close releases the channel. Call only after the supervisor has stopped
// reporting.
func (r *ChannelReporter) Close() { close(r.ch) }
