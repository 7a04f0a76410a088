// Package ide detects drives attached to the legacy ATA channels.
package ide

import (
	"io"

	"spudos/device"
	"spudos/kernel"
	"spudos/kernel/cpu"
	"spudos/kernel/kfmt"
)

const (
	primaryBase   = 0x1f0
	secondaryBase = 0x170

	regDriveSelect = 6
	regStatus      = 7

	selectMaster = 0xa0
	selectSlave  = 0xb0

	// floatingBus is read from the status register of an empty channel.
	floatingBus = 0xff

	// settleReads is the number of status reads needed for a drive select
	// to take effect (roughly 400ns).
	settleReads = 4
)

var (
	portWriteByteFn = cpu.PortWriteByte
	portReadByteFn  = cpu.PortReadByte
)

// Drive describes a detected ATA drive.
type Drive struct {
	// Name is the drive node name: "ide" followed by the channel
	// ('p'rimary or 's'econdary) and the position on the channel (0 for
	// master, 1 for slave).
	Name string

	// Base is the I/O base port of the channel.
	Base uint16

	// Slave is set for the second drive on the channel.
	Slave bool
}

type slot struct {
	name  string
	base  uint16
	slave bool
}

var slots = []slot{
	{"idep0", primaryBase, false},
	{"idep1", primaryBase, true},
	{"ides0", secondaryBase, false},
	{"ides1", secondaryBase, true},
}

// Detect probes all four ATA positions and returns the drives that respond.
func Detect() []Drive {
	var drives []Drive
	for _, s := range slots {
		if present(s.base, s.slave) {
			drives = append(drives, Drive{Name: s.name, Base: s.base, Slave: s.slave})
		}
	}
	return drives
}

func present(base uint16, slave bool) bool {
	sel := uint8(selectMaster)
	if slave {
		sel = selectSlave
	}
	portWriteByteFn(base+regDriveSelect, sel)

	var status uint8
	for i := 0; i < settleReads; i++ {
		status = portReadByteFn(base + regStatus)
	}

	return status != 0 && status != floatingBus
}

// Controller is a driver that records the drives found at boot.
type Controller struct {
	drives []Drive
}

// NewController returns an IDE controller driver.
func NewController() *Controller {
	return &Controller{}
}

// Drives returns the drives detected by DriverInit.
func (c *Controller) Drives() []Drive {
	return c.drives
}

// DriverName returns the name of this driver.
func (c *Controller) DriverName() string {
	return "ide"
}

// DriverVersion returns the version of this driver.
func (c *Controller) DriverVersion() (uint16, uint16, uint16) {
	return 0, 0, 1
}

// DriverInit probes the ATA channels.
func (c *Controller) DriverInit(w io.Writer) *kernel.Error {
	c.drives = Detect()
	for _, d := range c.drives {
		kfmt.Fprintf(w, "found drive %s\n", d.Name)
	}
	return nil
}

func probeForController() device.Driver {
	return NewController()
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderLast,
		Probe: probeForController,
	})
}
