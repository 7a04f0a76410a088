package cpu

var (
	cpuidFn = ID
)

// DisableInterrupts disables interrupt handling.
func DisableInterrupts()

// Halt stops instruction execution.
func Halt()

// ID returns information about the CPU and its features. It
// is implemented as a CPUID instruction with EAX=leaf and
// returns the values in EAX, EBX, ECX and EDX.
func ID(leaf uint32) (uint32, uint32, uint32, uint32)

// Vendor returns the 12-character vendor identification string reported by
// CPUID leaf 0 (e.g. "GenuineIntel", "AuthenticAMD").
func Vendor() string {
	var id [12]byte

	_, ebx, ecx, edx := cpuidFn(0)
	for i, reg := range [3]uint32{ebx, edx, ecx} {
		id[i*4+0] = byte(reg)
		id[i*4+1] = byte(reg >> 8)
		id[i*4+2] = byte(reg >> 16)
		id[i*4+3] = byte(reg >> 24)
	}

	return string(id[:])
}

// PortWriteByte writes a uint8 value to the requested port.
func PortWriteByte(port uint16, val uint8)

// PortWriteWord writes a uint16 value to the requested port.
func PortWriteWord(port uint16, val uint16)

// PortReadByte reads a uint8 value from the requested port.
func PortReadByte(port uint16) uint8
