package bluez

import (
	"errors"
	"sync"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgelight/edgelight-go/pkg/radio"
)

const (
	hci0 = dbus.ObjectPath("/org/bluez/hci0")
	hci1 = dbus.ObjectPath("/org/bluez/hci1")
)

func variants(kv ...any) map[string]dbus.Variant {
	out := map[string]dbus.Variant{}
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i].(string)] = dbus.MakeVariant(kv[i+1])
	}
	return out
}

func sampleObjects() managedObjects {
	dev := devicePath(hci0, "08:7C:BE:2E:EF:82")
	svc := dev + "/service000c"
	return managedObjects{
		hci1: {adapterInterface: variants("Powered", false)},
		hci0: {adapterInterface: variants("Powered", true)},
		dev: {deviceInterface: variants(
			"Address", "08:7C:BE:2E:EF:82",
			"Adapter", hci0,
			"Paired", true,
		)},
		devicePath(hci0, "08:7C:BE:2F:A2:49"): {deviceInterface: variants(
			"Address", "08:7C:BE:2F:A2:49",
			"Adapter", hci0,
			"Paired", false,
		)},
		devicePath(hci1, "08:7C:BE:2E:EF:F3"): {deviceInterface: variants(
			"Address", "08:7c:be:2e:ef:f3",
			"Adapter", hci1,
			"Paired", true,
		)},
		svc: {gattServiceInterface: variants("UUID", DefaultServiceUUID.String())},
		svc + "/char000d": {gattCharacteristicIface: variants("UUID", "00002a00-0000-1000-8000-00805f9b34fb")},
		svc + "/char000f": {gattCharacteristicIface: variants("UUID", "D44BC439-ABFD-45A2-B575-925416129600")},
	}
}

func TestFindAdapter(t *testing.T) {
	objects := sampleObjects()

	path, ok := findAdapter(objects, "")
	require.True(t, ok)
	assert.Equal(t, hci0, path, "first adapter by path")

	path, ok = findAdapter(objects, "hci1")
	require.True(t, ok)
	assert.Equal(t, hci1, path)

	_, ok = findAdapter(objects, "hci7")
	assert.False(t, ok)

	_, ok = findAdapter(managedObjects{}, "")
	assert.False(t, ok)
}

func TestPairedDevices(t *testing.T) {
	objects := sampleObjects()
	assert.Equal(t, []string{"08:7C:BE:2E:EF:82"}, pairedDevices(objects, hci0))
	assert.Equal(t, []string{"08:7C:BE:2E:EF:F3"}, pairedDevices(objects, hci1), "addresses are upper-cased")
}

func TestFindCharacteristic(t *testing.T) {
	objects := sampleObjects()
	dev := devicePath(hci0, "08:7C:BE:2E:EF:82")

	path, ok := findCharacteristic(objects, dev, DefaultServiceUUID, DefaultCharacteristicUUID)
	require.True(t, ok)
	assert.Equal(t, dev+"/service000c/char000f", path)

	_, ok = findCharacteristic(objects, dev, uuid.MustParse("0000180f-0000-1000-8000-00805f9b34fb"), DefaultCharacteristicUUID)
	assert.False(t, ok, "wrong service")

	_, ok = findCharacteristic(objects, devicePath(hci0, "08:7C:BE:2F:A2:49"), DefaultServiceUUID, DefaultCharacteristicUUID)
	assert.False(t, ok, "other device")
}

func TestDevicePathRoundTrip(t *testing.T) {
	path := devicePath(hci0, "08:7c:be:2e:ef:82")
	assert.Equal(t, dbus.ObjectPath("/org/bluez/hci0/dev_08_7C_BE_2E_EF_82"), path)

	addr, ok := addressFromPath(path)
	require.True(t, ok)
	assert.Equal(t, "08:7C:BE:2E:EF:82", addr)

	_, ok = addressFromPath(path + "/service000c")
	assert.False(t, ok)
	_, ok = addressFromPath(hci0)
	assert.False(t, ok)
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError("write", nil))

	err := mapError("write", dbus.Error{Name: "org.bluez.Error.NotConnected"})
	assert.ErrorIs(t, err, radio.ErrNotConnected)

	err = mapError("write", dbus.Error{Name: "org.bluez.Error.Failed", Body: []any{"Operation failed"}})
	assert.ErrorIs(t, err, radio.ErrProtocol)
	code, ok := radio.StatusCode(err)
	require.True(t, ok)
	assert.Equal(t, radio.StatusGATTError, code)

	err = mapError("write", dbus.NewError("org.bluez.Error.InProgress", nil))
	assert.ErrorIs(t, err, radio.ErrProtocol)

	other := errors.New("bus gone")
	err = mapError("write", other)
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, radio.ErrProtocol)
}

func TestHandleSignalScanResults(t *testing.T) {
	r := New(nil, Config{})
	r.adapter = hci0

	var mu sync.Mutex
	var found []string
	r.onResult = func(addr string) {
		mu.Lock()
		defer mu.Unlock()
		found = append(found, addr)
	}

	dev := devicePath(hci0, "08:7C:BE:2F:A1:D5")
	r.handleSignal(&dbus.Signal{
		Name: signalInterfacesAdded,
		Body: []any{dev, map[string]map[string]dbus.Variant{
			deviceInterface: variants("Address", "08:7c:be:2f:a1:d5"),
		}},
	})

	// known device re-advertising
	r.handleSignal(&dbus.Signal{
		Name: signalPropertiesChanged,
		Path: devicePath(hci0, "08:7C:BE:2E:EF:F3"),
		Body: []any{deviceInterface, variants("RSSI", int16(-60)), []string{}},
	})

	// other adapter and non-device interfaces are ignored
	r.handleSignal(&dbus.Signal{
		Name: signalInterfacesAdded,
		Body: []any{devicePath(hci1, "08:7C:BE:00:00:01"), map[string]map[string]dbus.Variant{
			deviceInterface: variants("Address", "08:7C:BE:00:00:01"),
		}},
	})
	r.handleSignal(&dbus.Signal{
		Name: signalPropertiesChanged,
		Path: hci0,
		Body: []any{adapterInterface, variants("Discovering", true), []string{}},
	})

	assert.Equal(t, []string{"08:7C:BE:2F:A1:D5", "08:7C:BE:2E:EF:F3"}, found)
}

func TestHandleSignalLinkDrop(t *testing.T) {
	r := New(nil, Config{})
	r.adapter = hci0

	type change struct {
		status int
		state  radio.LinkState
	}
	var changes []change
	path := devicePath(hci0, "08:7C:BE:2E:EF:82")
	l := &Link{
		radio: r,
		addr:  "08:7C:BE:2E:EF:82",
		path:  path,
		events: radio.LinkEvents{
			OnStateChange: func(status int, state radio.LinkState) {
				changes = append(changes, change{status, state})
			},
		},
		connected: true,
		char:      path + "/service000c/char000f",
	}
	r.links[path] = l

	drop := &dbus.Signal{
		Name: signalPropertiesChanged,
		Path: path,
		Body: []any{deviceInterface, variants("Connected", false), []string{}},
	}
	r.handleSignal(drop)
	assert.Equal(t, []change{{radio.StatusSuccess, radio.LinkDisconnected}}, changes)
	assert.ErrorIs(t, l.Write([]byte("$GON?")), radio.ErrNotConnected)

	// a second drop on an already disconnected link is not reported
	r.handleSignal(drop)
	assert.Len(t, changes, 1)

	require.NoError(t, l.Close())
	assert.ErrorIs(t, l.Write([]byte("$GON?")), radio.ErrLinkClosed)
	assert.ErrorIs(t, l.DiscoverServices(), radio.ErrLinkClosed)
	assert.Empty(t, r.links)
}

func TestDefaultsFilled(t *testing.T) {
	r := New(nil, Config{Adapter: "hci1"})
	assert.Equal(t, DefaultServiceUUID, r.cfg.ServiceUUID)
	assert.Equal(t, DefaultCharacteristicUUID, r.cfg.CharacteristicUUID)
	assert.Equal(t, DefaultConfig().ServiceUUID, r.cfg.ServiceUUID)

	_, err := r.Paired()
	assert.ErrorIs(t, err, radio.ErrUnavailable, "adapter not initialized")
	_, err = r.Connect("08:7C:BE:2E:EF:82", radio.LinkEvents{})
	assert.ErrorIs(t, err, radio.ErrUnavailable)
	assert.NoError(t, r.StopScan(), "stop before start is a no-op")
}
