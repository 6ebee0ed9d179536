package modbus

import "fmt"

// FunctionCode is the second byte of every Modbus frame.
type FunctionCode byte

const (
	ReadCoils              FunctionCode = 0x01
	ReadDiscreteInputs     FunctionCode = 0x02
	ReadHoldingRegisters   FunctionCode = 0x03
	ReadInputRegisters     FunctionCode = 0x04
	WriteSingleCoil        FunctionCode = 0x05
	WriteSingleRegister    FunctionCode = 0x06
	ReadExceptionStatus    FunctionCode = 0x07
	Diagnostics            FunctionCode = 0x08
	WriteMultipleCoils     FunctionCode = 0x0F
	WriteMultipleRegisters FunctionCode = 0x10
	ReportServerID         FunctionCode = 0x11
	MaskWriteRegister      FunctionCode = 0x16
	ReadWriteRegisters     FunctionCode = 0x17
	ReadDeviceID           FunctionCode = 0x2B

	// ExceptionFlag is set in the function code of exception responses.
	ExceptionFlag FunctionCode = 0x80
)

var functionNames = map[FunctionCode]string{
	ReadCoils:              "Read Coils",
	ReadDiscreteInputs:     "Read Discrete Inputs",
	ReadHoldingRegisters:   "Read Holding Registers",
	ReadInputRegisters:     "Read Input Registers",
	WriteSingleCoil:        "Write Single Coil",
	WriteSingleRegister:    "Write Single Register",
	ReadExceptionStatus:    "Read Exception Status",
	Diagnostics:            "Diagnostics",
	WriteMultipleCoils:     "Write Multiple Coils",
	WriteMultipleRegisters: "Write Multiple Registers",
	ReportServerID:         "Report Server ID",
	MaskWriteRegister:      "Mask Write Register",
	ReadWriteRegisters:     "Read/Write Multiple Registers",
	ReadDeviceID:           "Read Device Identification",
}

// IsException reports whether the exception flag is set.
func (f FunctionCode) IsException() bool { return f&ExceptionFlag != 0 }

// Base strips the exception flag.
func (f FunctionCode) Base() FunctionCode { return f &^ ExceptionFlag }

func (f FunctionCode) String() string {
	name, ok := functionNames[f.Base()]
	if !ok {
		name = "Unknown Function"
	}
	if f.IsException() {
		return fmt.Sprintf("0x%02X %s (exception)", byte(f), name)
	}
	return fmt.Sprintf("0x%02X %s", byte(f), name)
}

// ExceptionCode is the single payload byte of an exception response.
type ExceptionCode byte

const (
	IllegalFunction                    ExceptionCode = 0x01
	IllegalDataAddress                 ExceptionCode = 0x02
	IllegalDataValue                   ExceptionCode = 0x03
	ServerDeviceFailure                ExceptionCode = 0x04
	Acknowledge                        ExceptionCode = 0x05
	ServerDeviceBusy                   ExceptionCode = 0x06
	NegativeAcknowledge                ExceptionCode = 0x07
	MemoryParityError                  ExceptionCode = 0x08
	GatewayPathUnavailable             ExceptionCode = 0x0A
	GatewayTargetDeviceFailedToRespond ExceptionCode = 0x0B
)

var exceptionDescriptions = map[ExceptionCode]string{
	IllegalFunction:                    "Illegal Function",
	IllegalDataAddress:                 "Illegal Data Address",
	IllegalDataValue:                   "Illegal Data Value",
	ServerDeviceFailure:                "Server Device Failure",
	Acknowledge:                        "Acknowledge",
	ServerDeviceBusy:                   "Server Device Busy",
	NegativeAcknowledge:                "Negative Acknowledge",
	MemoryParityError:                  "Memory Parity Error",
	GatewayPathUnavailable:             "Gateway Path Unavailable",
	GatewayTargetDeviceFailedToRespond: "Gateway Target Device Failed to Respond",
}

func (e ExceptionCode) String() string {
	if d, ok := exceptionDescriptions[e]; ok {
		return d
	}
	return fmt.Sprintf("Unknown Exception 0x%02X", byte(e))
}
