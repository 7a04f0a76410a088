package device

import (
	"io"

	"spudos/kernel"
)

// Driver is an interface implemented by all drivers.
type Driver interface {
	// DriverName returns the name of the driver.
	DriverName() string

	// DriverVersion returns the driver version.
	DriverVersion() (major uint16, minor uint16, patch uint16)

	// DriverInit initializes the device driver. If the driver init code
	// needs to log some output, it can use the supplied io.Writer in
	// conjunction with a call to kfmt.Fprintf.
	DriverInit(io.Writer) *kernel.Error
}

// ProbeFn is a function that scans for the presence of a particular
// piece of hardware and returns a driver for it.
type ProbeFn func() Driver

// DetectOrder specifies when each driver's probe function will be invoked
// by the hal package.
type DetectOrder int8

// The list of supported detection orders.
const (
	// DetectOrderEarly is used by drivers that other drivers depend on,
	// such as the display consoles.
	DetectOrderEarly DetectOrder = -128

	// DetectOrderBeforeTTY is used by drivers that must be available before
	// a terminal is attached, such as the keyboard and serial ports.
	DetectOrderBeforeTTY DetectOrder = -127

	// DetectOrderTTY is used by the terminal drivers.
	DetectOrderTTY DetectOrder = 0

	// DetectOrderLast is used by drivers that can be probed at any point,
	// such as storage controllers and the PC speaker.
	DetectOrderLast DetectOrder = 127
)

// DriverInfo is used by device drivers to register themselves with the hal.
type DriverInfo struct {
	// Order specifies at which stage of the hw detection the driver's probe
	// function will be invoked.
	Order DetectOrder

	// Probe is the function that checks for the presence of the hardware
	// handled by the driver.
	Probe ProbeFn
}

// DriverInfoList is a list of registered drivers that implements sort.Interface.
type DriverInfoList []*DriverInfo

// Len returns the length of the driver info list.
func (l DriverInfoList) Len() int { return len(l) }

// Swap exchanges 2 elements in the driver info list.
func (l DriverInfoList) Swap(i, j int) { l[i], l[j] = l[j], l[i] }

// Less compares 2 elements of the driver info list.
func (l DriverInfoList) Less(i, j int) bool { return l[i].Order < l[j].Order }

var registeredDrivers DriverInfoList

// RegisterDriver adds the supplied driver info to the list of drivers that
// the hal probes during boot.
func RegisterDriver(info *DriverInfo) {
	registeredDrivers = append(registeredDrivers, info)
}

// DriverList returns the list of registered drivers.
func DriverList() DriverInfoList {
	return registeredDrivers
}
