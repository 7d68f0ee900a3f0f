package bluez

import (
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/edgelight/edgelight-go/pkg/radio"
)

// Link is one Device1 connection.
type Link struct {
	radio  *Radio
	addr   string
	path   dbus.ObjectPath
	events radio.LinkEvents

	mu           sync.Mutex
	connected    bool
	resolved     bool
	wantServices bool
	char         dbus.ObjectPath
	closed       bool
}

// Address implements radio.Link.
func (l *Link) Address() string {
	return l.addr
}

func (l *Link) device() dbus.BusObject {
	return l.radio.conn.Object(busName, l.path)
}

func (l *Link) connect() {
	err := l.device().Call(deviceInterface+".Connect", 0).Err

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	if err != nil {
		l.mu.Unlock()
		l.radio.debugLog("connect failed", "address", l.addr, "error", err)
		l.stateChange(radio.StatusGATTError, radio.LinkDisconnected)
		return
	}
	l.connected = true
	l.mu.Unlock()
	l.stateChange(radio.StatusSuccess, radio.LinkConnected)
}

// DiscoverServices implements radio.Link. BlueZ resolves services on its
// own after connecting; this waits for ServicesResolved and then locates
// the command characteristic.
func (l *Link) DiscoverServices() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return radio.ErrLinkClosed
	}
	l.wantServices = true
	l.mu.Unlock()

	var resolved bool
	if err := l.device().StoreProperty(deviceInterface+".ServicesResolved", &resolved); err != nil {
		return mapError("discover services", err)
	}
	if resolved {
		go l.servicesResolved()
	}
	return nil
}

func (l *Link) servicesResolved() {
	l.mu.Lock()
	if l.closed || !l.wantServices || l.resolved {
		l.mu.Unlock()
		return
	}
	l.resolved = true
	l.mu.Unlock()

	status := radio.StatusSuccess
	objects, err := l.radio.managedObjects()
	if err == nil {
		char, ok := findCharacteristic(objects, l.path, l.radio.cfg.ServiceUUID, l.radio.cfg.CharacteristicUUID)
		if ok {
			l.mu.Lock()
			l.char = char
			l.mu.Unlock()
		} else {
			status = radio.StatusGATTError
		}
	} else {
		status = radio.StatusGATTError
	}
	if l.events.OnServicesDiscovered != nil {
		l.events.OnServicesDiscovered(status)
	}
}

// propertiesChanged handles Device1 property updates.
func (l *Link) propertiesChanged(changed map[string]dbus.Variant) {
	if v, ok := variantValue[bool](changed, "Connected"); ok && !v {
		l.mu.Lock()
		was := l.connected
		l.connected = false
		l.resolved = false
		l.char = ""
		closed := l.closed
		l.mu.Unlock()
		if was && !closed {
			l.stateChange(radio.StatusSuccess, radio.LinkDisconnected)
		}
		return
	}
	if v, ok := variantValue[bool](changed, "ServicesResolved"); ok && v {
		go l.servicesResolved()
	}
}

func (l *Link) stateChange(status int, state radio.LinkState) {
	if l.events.OnStateChange != nil {
		l.events.OnStateChange(status, state)
	}
}

// Write implements radio.Link.
func (l *Link) Write(data []byte) error {
	l.mu.Lock()
	closed, connected, char := l.closed, l.connected, l.char
	l.mu.Unlock()
	switch {
	case closed:
		return radio.ErrLinkClosed
	case !connected || char == "":
		return radio.ErrNotConnected
	}

	opts := map[string]dbus.Variant{"type": dbus.MakeVariant("request")}
	err := l.radio.conn.Object(busName, char).Call(gattCharacteristicIface+".WriteValue", 0, data, opts).Err
	return mapError("write", err)
}

// Disconnect implements radio.Link.
func (l *Link) Disconnect() error {
	l.mu.Lock()
	l.connected = false
	l.mu.Unlock()
	return mapError("disconnect", l.device().Call(deviceInterface+".Disconnect", 0).Err)
}

// Close implements radio.Link. No callbacks fire after Close.
func (l *Link) Close() error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.radio.forget(l)
	return nil
}

// ForceForget implements radio.Link. Unpaired devices are removed from
// the adapter, dropping BlueZ's cached state. Paired devices keep their
// bond so they are found again without scanning.
func (l *Link) ForceForget() error {
	adapter, err := l.radio.adapterPath()
	if err != nil {
		return err
	}
	var paired bool
	if err := l.device().StoreProperty(deviceInterface+".Paired", &paired); err == nil && paired {
		return nil
	}
	err = l.radio.conn.Object(busName, adapter).Call(adapterInterface+".RemoveDevice", 0, l.path).Err
	if errorName(err) == "org.bluez.Error.DoesNotExist" {
		return nil
	}
	return mapError("remove device", err)
}

var _ radio.Link = (*Link)(nil)
