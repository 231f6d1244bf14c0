package systemd

import (
	"fmt"
	"net"

	"github.com/coreos/go-systemd/v22/activation"
	"github.com/coreos/go-systemd/v22/daemon"
)

// Socket names expected in FileDescriptorName= of focuswatch.socket.
const (
	ControlSocket = "control"
	MetricsSocket = "metrics"
)

// Listeners holds all systemd-activated listeners
type Listeners struct {
	Control   net.Listener
	Metrics   net.Listener
	Activated bool
}

// GetListeners retrieves systemd socket-activated file descriptors.
// Returns nil listeners if not running under socket activation.
func GetListeners() (*Listeners, error) {
	// ListenersWithNames returns an empty map when LISTEN_FDS is unset.
	byName, err := activation.ListenersWithNames()
	if err != nil {
		return nil, fmt.Errorf("failed to get systemd listeners: %w", err)
	}
	return fromNamed(byName), nil
}

func fromNamed(byName map[string][]net.Listener) *Listeners {
	listeners := &Listeners{}
	if lns, ok := byName[ControlSocket]; ok && len(lns) > 0 {
		listeners.Control = lns[0]
		listeners.Activated = true
	}
	if lns, ok := byName[MetricsSocket]; ok && len(lns) > 0 {
		listeners.Metrics = lns[0]
		listeners.Activated = true
	}
	return listeners
}

// NotifyReady sends READY=1 notification to systemd.
// Returns false when not running under systemd.
func NotifyReady() (bool, error) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		return false, fmt.Errorf("failed to send sd_notify: %w", err)
	}
	return sent, nil
}

// NotifyStopping sends STOPPING=1 notification to systemd
func NotifyStopping() (bool, error) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyStopping)
	if err != nil {
		return false, fmt.Errorf("failed to send sd_notify stopping: %w", err)
	}
	return sent, nil
}
