// Package bluez implements radio.Radio on Linux over the BlueZ D-Bus API.
//
// Objects used:
//
//	org.bluez.Adapter1            power check, discovery, RemoveDevice
//	org.bluez.Device1             Connect, Disconnect, Paired, ServicesResolved
//	org.bluez.GattService1        service lookup by UUID
//	org.bluez.GattCharacteristic1 WriteValue
//
// Discovery results arrive as InterfacesAdded signals for new devices and
// as PropertiesChanged (RSSI) signals for devices BlueZ already knows.
// Link drops and service resolution arrive as Device1 PropertiesChanged.
//
// BlueZ does not expose raw GATT status codes. Failed operations are
// reported as radio.StatusGATTError.
package bluez
