package bluez

import (
	"sort"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
)

// D-Bus names.
const (
	busName = "org.bluez"

	adapterInterface        = "org.bluez.Adapter1"
	deviceInterface         = "org.bluez.Device1"
	gattServiceInterface    = "org.bluez.GattService1"
	gattCharacteristicIface = "org.bluez.GattCharacteristic1"

	objectManagerInterface = "org.freedesktop.DBus.ObjectManager"
	propertiesInterface    = "org.freedesktop.DBus.Properties"

	signalInterfacesAdded   = objectManagerInterface + ".InterfacesAdded"
	signalPropertiesChanged = propertiesInterface + ".PropertiesChanged"
)

// managedObjects is the GetManagedObjects reply.
type managedObjects map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// findAdapter returns the adapter named name ("hci0"), or the first adapter
// by path when name is empty.
func findAdapter(objects managedObjects, name string) (dbus.ObjectPath, bool) {
	var paths []string
	for path, ifaces := range objects {
		if _, ok := ifaces[adapterInterface]; !ok {
			continue
		}
		if name != "" && !strings.HasSuffix(string(path), "/"+name) {
			continue
		}
		paths = append(paths, string(path))
	}
	if len(paths) == 0 {
		return "", false
	}
	sort.Strings(paths)
	return dbus.ObjectPath(paths[0]), true
}

// pairedDevices returns the addresses of paired devices on adapter.
func pairedDevices(objects managedObjects, adapter dbus.ObjectPath) []string {
	var out []string
	for _, ifaces := range objects {
		props, ok := ifaces[deviceInterface]
		if !ok {
			continue
		}
		if owner, _ := variantValue[dbus.ObjectPath](props, "Adapter"); owner != adapter {
			continue
		}
		if paired, _ := variantValue[bool](props, "Paired"); !paired {
			continue
		}
		if addr, ok := variantValue[string](props, "Address"); ok {
			out = append(out, strings.ToUpper(addr))
		}
	}
	sort.Strings(out)
	return out
}

// findCharacteristic locates the characteristic chr inside service svc of
// device.
func findCharacteristic(objects managedObjects, device dbus.ObjectPath, svc, chr uuid.UUID) (dbus.ObjectPath, bool) {
	var service dbus.ObjectPath
	for path, ifaces := range objects {
		props, ok := ifaces[gattServiceInterface]
		if !ok || !under(path, device) {
			continue
		}
		if uuidProp(props) == svc {
			service = path
			break
		}
	}
	if service == "" {
		return "", false
	}
	for path, ifaces := range objects {
		props, ok := ifaces[gattCharacteristicIface]
		if !ok || !under(path, service) {
			continue
		}
		if uuidProp(props) == chr {
			return path, true
		}
	}
	return "", false
}

// devicePath returns the object path BlueZ uses for addr on adapter.
func devicePath(adapter dbus.ObjectPath, addr string) dbus.ObjectPath {
	return dbus.ObjectPath(string(adapter) + "/dev_" + strings.ReplaceAll(strings.ToUpper(addr), ":", "_"))
}

// addressFromPath extracts the MAC address from a device object path.
func addressFromPath(path dbus.ObjectPath) (string, bool) {
	s := string(path)
	i := strings.LastIndex(s, "/dev_")
	if i < 0 {
		return "", false
	}
	mac := s[i+len("/dev_"):]
	if len(mac) != 17 || strings.Contains(mac, "/") {
		return "", false
	}
	return strings.ReplaceAll(mac, "_", ":"), true
}

func under(path, parent dbus.ObjectPath) bool {
	return strings.HasPrefix(string(path), string(parent)+"/")
}

func uuidProp(props map[string]dbus.Variant) uuid.UUID {
	s, ok := variantValue[string](props, "UUID")
	if !ok {
		return uuid.Nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func variantValue[T any](props map[string]dbus.Variant, key string) (T, bool) {
	var zero T
	v, ok := props[key]
	if !ok {
		return zero, false
	}
	t, ok := v.Value().(T)
	return t, ok
}
