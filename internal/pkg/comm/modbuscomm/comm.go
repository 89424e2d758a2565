package modbuscomm

import "fmt"

// DataType defines the type of Modbus register for decoding
type DataType string

// Constants of DataType
const (
	U16 DataType = "u16"
	U32 DataType = "u32"
	U64 DataType = "u64"
	I16 DataType = "i16"
	I32 DataType = "i32"
	I64 DataType = "i64"
	F32 DataType = "f32"
	F64 DataType = "f64"
)

// Endian byte order of Modbus register for decoding
type Endian string

// Constants of Endian
const (
	LittleEndian Endian = "little"
	BigEndian    Endian = "big"
)

// Function codes supported for meter reads.
const (
	ReadHolding = 3
	ReadInput   = 4
)

// Register contains the data required to read a meter register. The decoded value is
// multiplied by Scale; a zero Scale reads the raw value.
type Register struct {
	Name         string   `json:"Name"`
	Address      uint16   `json:"Address"`
	DataType     DataType `json:"DataType"`
	FunctionCode int      `json:"FunctionCode"`
	Endianness   Endian   `json:"Endianness"`
	Scale        float64  `json:"Scale"`
}

// Check reports a register the poller cannot read.
func (r Register) Check() error {
	if sizeOf(r.DataType) == 0 {
		return fmt.Errorf("register %q: unknown data type %q", r.Name, r.DataType)
	}
	switch r.FunctionCode {
	case 0, ReadHolding, ReadInput:
	default:
		return fmt.Errorf("register %q: unsupported function code %d", r.Name, r.FunctionCode)
	}
	switch r.Endianness {
	case "", LittleEndian, BigEndian:
	default:
		return fmt.Errorf("register %q: unknown byte order %q", r.Name, r.Endianness)
	}
	return nil
}

// Reader reads named register values from a device.
type Reader interface {
	Read([]Register) (map[string]float64, error)
}
