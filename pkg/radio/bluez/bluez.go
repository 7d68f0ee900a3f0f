package bluez

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"

	"github.com/edgelight/edgelight-go/pkg/radio"
)

// Fixture GATT identifiers.
var (
	DefaultServiceUUID        = uuid.MustParse("0000fee9-0000-1000-8000-00805f9b34fb")
	DefaultCharacteristicUUID = uuid.MustParse("d44bc439-abfd-45a2-b575-925416129600")
)

// Config configures a Radio.
type Config struct {
	// Adapter selects the controller, e.g. "hci0". Empty picks the first.
	Adapter string

	// ServiceUUID and CharacteristicUUID locate the command characteristic.
	ServiceUUID        uuid.UUID
	CharacteristicUUID uuid.UUID

	// Logger is the operational logger. Nil disables logging.
	Logger *slog.Logger
}

// DefaultConfig returns the configuration for the reference fixtures.
func DefaultConfig() Config {
	return Config{
		ServiceUUID:        DefaultServiceUUID,
		CharacteristicUUID: DefaultCharacteristicUUID,
	}
}

// Radio is a BlueZ-backed radio.Radio.
type Radio struct {
	cfg    Config
	conn   *dbus.Conn
	logger *slog.Logger

	signals chan *dbus.Signal
	done    chan struct{}

	mu       sync.Mutex
	adapter  dbus.ObjectPath
	watching bool
	onResult func(string)
	links    map[dbus.ObjectPath]*Link
}

// Open connects to the system bus.
func Open(cfg Config) (*Radio, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("%w: system bus: %v", radio.ErrUnavailable, err)
	}
	return New(conn, cfg), nil
}

// New creates a radio on an existing bus connection.
func New(conn *dbus.Conn, cfg Config) *Radio {
	if cfg.ServiceUUID == uuid.Nil {
		cfg.ServiceUUID = DefaultServiceUUID
	}
	if cfg.CharacteristicUUID == uuid.Nil {
		cfg.CharacteristicUUID = DefaultCharacteristicUUID
	}
	return &Radio{
		cfg:     cfg,
		conn:    conn,
		logger:  cfg.Logger,
		signals: make(chan *dbus.Signal, 64),
		done:    make(chan struct{}),
		links:   make(map[dbus.ObjectPath]*Link),
	}
}

// Close stops signal processing and closes the bus connection.
func (r *Radio) Close() error {
	r.mu.Lock()
	watching := r.watching
	r.watching = false
	r.mu.Unlock()

	if watching {
		r.conn.RemoveSignal(r.signals)
		close(r.done)
	}
	return r.conn.Close()
}

// Available implements radio.Radio. It locates the adapter, checks it is
// powered and starts signal processing.
func (r *Radio) Available() error {
	objects, err := r.managedObjects()
	if err != nil {
		return fmt.Errorf("%w: %v", radio.ErrUnavailable, err)
	}
	adapter, ok := findAdapter(objects, r.cfg.Adapter)
	if !ok {
		return fmt.Errorf("%w: no adapter %q", radio.ErrUnavailable, r.cfg.Adapter)
	}
	if powered, _ := variantValue[bool](objects[adapter][adapterInterface], "Powered"); !powered {
		return fmt.Errorf("%w: adapter %s powered off", radio.ErrUnavailable, adapter)
	}

	r.mu.Lock()
	r.adapter = adapter
	r.mu.Unlock()
	return r.watch()
}

// Paired implements radio.Radio.
func (r *Radio) Paired() ([]string, error) {
	adapter, err := r.adapterPath()
	if err != nil {
		return nil, err
	}
	objects, err := r.managedObjects()
	if err != nil {
		return nil, err
	}
	return pairedDevices(objects, adapter), nil
}

// StartScan implements radio.Radio.
func (r *Radio) StartScan(onResult func(string)) error {
	adapter, err := r.adapterPath()
	if err != nil {
		return err
	}
	obj := r.conn.Object(busName, adapter)

	filter := map[string]dbus.Variant{"Transport": dbus.MakeVariant("le")}
	if err := obj.Call(adapterInterface+".SetDiscoveryFilter", 0, filter).Err; err != nil {
		return fmt.Errorf("%w: set filter: %v", radio.ErrScanFailed, err)
	}

	r.mu.Lock()
	r.onResult = onResult
	r.mu.Unlock()

	if err := obj.Call(adapterInterface+".StartDiscovery", 0).Err; err != nil {
		r.mu.Lock()
		r.onResult = nil
		r.mu.Unlock()
		return fmt.Errorf("%w: %v", radio.ErrScanFailed, err)
	}
	r.debugLog("discovery started", "adapter", adapter)
	return nil
}

// StopScan implements radio.Radio.
func (r *Radio) StopScan() error {
	r.mu.Lock()
	r.onResult = nil
	adapter := r.adapter
	r.mu.Unlock()
	if adapter == "" {
		return nil
	}

	err := r.conn.Object(busName, adapter).Call(adapterInterface+".StopDiscovery", 0).Err
	if errorName(err) == "org.bluez.Error.NotReady" || errorName(err) == "org.bluez.Error.Failed" {
		// not discovering
		return nil
	}
	return err
}

// Connect implements radio.Radio. The Device1.Connect call runs in the
// background; its outcome is reported through events.
func (r *Radio) Connect(addr string, events radio.LinkEvents) (radio.Link, error) {
	adapter, err := r.adapterPath()
	if err != nil {
		return nil, err
	}
	path := devicePath(adapter, addr)
	l := &Link{
		radio:  r,
		addr:   strings.ToUpper(addr),
		path:   path,
		events: events,
	}

	r.mu.Lock()
	r.links[path] = l
	r.mu.Unlock()

	go l.connect()
	return l, nil
}

func (r *Radio) adapterPath() (dbus.ObjectPath, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.adapter == "" {
		return "", fmt.Errorf("%w: adapter not initialized", radio.ErrUnavailable)
	}
	return r.adapter, nil
}

func (r *Radio) managedObjects() (managedObjects, error) {
	objects := managedObjects{}
	err := r.conn.Object(busName, "/").Call(objectManagerInterface+".GetManagedObjects", 0).Store(&objects)
	if err != nil {
		return nil, err
	}
	return objects, nil
}

// watch subscribes to BlueZ signals once.
func (r *Radio) watch() error {
	r.mu.Lock()
	if r.watching {
		r.mu.Unlock()
		return nil
	}
	r.watching = true
	r.mu.Unlock()

	if err := r.conn.AddMatchSignal(
		dbus.WithMatchSender(busName),
		dbus.WithMatchInterface(objectManagerInterface),
		dbus.WithMatchMember("InterfacesAdded"),
	); err != nil {
		return fmt.Errorf("%w: match InterfacesAdded: %v", radio.ErrUnavailable, err)
	}
	if err := r.conn.AddMatchSignal(
		dbus.WithMatchSender(busName),
		dbus.WithMatchInterface(propertiesInterface),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		return fmt.Errorf("%w: match PropertiesChanged: %v", radio.ErrUnavailable, err)
	}
	r.conn.Signal(r.signals)
	go r.dispatch()
	return nil
}

func (r *Radio) dispatch() {
	for {
		select {
		case <-r.done:
			return
		case sig, ok := <-r.signals:
			if !ok {
				return
			}
			r.handleSignal(sig)
		}
	}
}

// handleSignal routes one BlueZ signal.
func (r *Radio) handleSignal(sig *dbus.Signal) {
	switch sig.Name {
	case signalInterfacesAdded:
		var path dbus.ObjectPath
		var ifaces map[string]map[string]dbus.Variant
		if err := dbus.Store(sig.Body, &path, &ifaces); err != nil {
			return
		}
		if props, ok := ifaces[deviceInterface]; ok {
			r.scanResult(path, props)
		}

	case signalPropertiesChanged:
		var iface string
		var changed map[string]dbus.Variant
		var invalidated []string
		if err := dbus.Store(sig.Body, &iface, &changed, &invalidated); err != nil {
			return
		}
		if iface != deviceInterface {
			return
		}
		if _, ok := changed["RSSI"]; ok {
			r.scanResult(sig.Path, changed)
		}
		r.mu.Lock()
		l := r.links[sig.Path]
		r.mu.Unlock()
		if l != nil {
			l.propertiesChanged(changed)
		}
	}
}

func (r *Radio) scanResult(path dbus.ObjectPath, props map[string]dbus.Variant) {
	r.mu.Lock()
	cb := r.onResult
	adapter := r.adapter
	r.mu.Unlock()
	if cb == nil || !under(path, adapter) {
		return
	}

	addr, ok := variantValue[string](props, "Address")
	if !ok {
		addr, ok = addressFromPath(path)
	}
	if ok {
		cb(strings.ToUpper(addr))
	}
}

func (r *Radio) forget(l *Link) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.links[l.path] == l {
		delete(r.links, l.path)
	}
}

func (r *Radio) debugLog(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

// errorName returns the D-Bus error name of err, or "".
func errorName(err error) string {
	var de dbus.Error
	if errors.As(err, &de) {
		return de.Name
	}
	var pde *dbus.Error
	if errors.As(err, &pde) {
		return pde.Name
	}
	return ""
}

// mapError converts a BlueZ error to the radio taxonomy.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch errorName(err) {
	case "org.bluez.Error.NotConnected":
		return fmt.Errorf("%s: %w", op, radio.ErrNotConnected)
	case "org.bluez.Error.Failed", "org.bluez.Error.InProgress", "org.bluez.Error.NotPermitted",
		"org.bluez.Error.NotAuthorized", "org.bluez.Error.InvalidValueLength":
		return &radio.StatusError{Op: op, Code: radio.StatusGATTError}
	}
	return fmt.Errorf("%s: %w", op, err)
}

var _ radio.Radio = (*Radio)(nil)
