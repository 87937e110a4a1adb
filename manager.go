package chanlog

import (
	"sort"
	"sync"

	"github.com/user/chanlog/internal/index"
	"github.com/user/chanlog/internal/metrics"
	"github.com/user/chanlog/internal/registry"
)

// channel bundles one channel's index and registry: the pair every
// dispatch and administrative call against a channel id resolves to.
type channel struct {
	idx *index.Index
	reg *registry.Registry
}

// Manager owns every channel in a process: creation/deletion, and
// dispatch to whichever channel an emitted record names. The zero value
// is not usable; construct with NewManager.
type Manager struct {
	diag Diagnostics

	mu       sync.RWMutex
	channels map[string]*channel
}

// NewManager returns an empty Manager. diag receives every sink's
// out-of-band diagnostics (writer failures, lifetime expiries, supersedes);
// a nil diag discards them. Composite wait timeouts are not among them: a
// composite coordinator reports those through its own onWaitTimeout callback.
func NewManager(diag Diagnostics) *Manager {
	return &Manager{diag: diag, channels: make(map[string]*channel)}
}

// CreateChannel registers a new, empty channel under id. Returns
// AlreadyInstalledError if id is already in use.
func (m *Manager) CreateChannel(id string) error {
	if id == "" {
		return &InvalidArgumentError{Field: "channel.id", Reason: "must be non-empty"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.channels[id]; ok {
		return &AlreadyInstalledError{SinkID: id}
	}
	idx := index.New()
	m.channels[id] = &channel{idx: idx, reg: registry.New(id, idx, m.diag)}
	metrics.ActiveChannels.Inc()
	return nil
}

// DeleteChannel tears down every sink on id and removes the channel.
func (m *Manager) DeleteChannel(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[id]
	if !ok {
		return &NotFoundError{SinkID: id}
	}
	ch.reg.Close()
	delete(m.channels, id)
	metrics.ActiveChannels.Dec()
	metrics.ActiveSinks.DeleteLabelValues(id)
	metrics.IndexSize.DeleteLabelValues(id)
	return nil
}

// ListChannels returns every channel id, sorted.
func (m *Manager) ListChannels() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.channels))
	for id := range m.channels {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (m *Manager) get(channelID string) (*channel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.channels[channelID]
	if !ok {
		return nil, &ChannelNotRunningError{ChannelID: channelID}
	}
	return ch, nil
}

// InstallSink installs sink on channelID under opts.
func (m *Manager) InstallSink(channelID string, sink SinkHandle, opts InstallOptions) (InstallResult, error) {
	ch, err := m.get(channelID)
	if err != nil {
		return InstallResult{}, err
	}
	res, err := ch.reg.Install(sink, opts)
	if err == nil {
		if !res.HadPrevious {
			metrics.ActiveSinks.WithLabelValues(channelID).Inc()
		}
		metrics.IndexSize.WithLabelValues(channelID).Set(float64(len(ch.idx.Snapshot())))
	}
	return res, err
}

// UninstallSink removes sinkID from channelID, returning its last handle.
func (m *Manager) UninstallSink(channelID, sinkID string) (SinkHandle, error) {
	ch, err := m.get(channelID)
	if err != nil {
		return SinkHandle{}, err
	}
	h, err := ch.reg.Uninstall(sinkID)
	if err == nil {
		metrics.ActiveSinks.WithLabelValues(channelID).Dec()
		metrics.IndexSize.WithLabelValues(channelID).Set(float64(len(ch.idx.Snapshot())))
	}
	return h, err
}

// FindSink looks up sinkID's current handle on channelID.
func (m *Manager) FindSink(channelID, sinkID string) (SinkHandle, error) {
	ch, err := m.get(channelID)
	if err != nil {
		return SinkHandle{}, err
	}
	return ch.reg.Find(sinkID)
}

// ListSinks returns every sink installed on channelID, ordered by id.
func (m *Manager) ListSinks(channelID string) ([]SinkHandle, error) {
	ch, err := m.get(channelID)
	if err != nil {
		return nil, err
	}
	return ch.reg.ListSinks()
}

// SetCondition re-indexes sinkID on channelID under a new condition,
// returning its previous condition.
func (m *Manager) SetCondition(channelID, sinkID string, cond Condition) (Condition, error) {
	ch, err := m.get(channelID)
	if err != nil {
		return Condition{}, err
	}
	prev, err := ch.reg.SetCondition(sinkID, cond)
	if err == nil {
		metrics.IndexSize.WithLabelValues(channelID).Set(float64(len(ch.idx.Snapshot())))
	}
	return prev, err
}
