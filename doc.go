// Package serial opens and configures serial lines on Linux for the
// serialscope tools.
//
// A Port is the byte source and sink behind the frame monitor and the
// Modbus RTU client: both read through ReadContext so a cancelled capture
// or transaction does not hang on a quiet line.
//
// # Basic Usage
//
//	port, err := serial.Open("/dev/ttyUSB0",
//	    serial.WithBaudRate(9600),
//	    serial.WithParity(serial.ParityEven),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
// # Frame Timing
//
// The line configuration determines when a silent line ends a frame.
// Config.Timing converts it for the stream package:
//
//	timing := port.Config().Timing(true) // Modbus RTU character accounting
//	fmt.Println(timing.Silence())        // 4.010416ms at 9600 8N1
//
// # Port Discovery
//
//	ports, err := serial.ListPorts()
//	for _, portPath := range ports {
//	    info, _ := serial.GetPortInfo(portPath)
//	    fmt.Printf("%s: %s (VID=%s PID=%s Serial=%s)\n",
//	        info.Path, info.Description, info.VendorID, info.ProductID, info.SerialNumber)
//	}
//
// USB metadata comes from go.bug.st/serial/enumerator.
//
// # Error Handling
//
// Open maps errno values onto ErrDeviceNotFound, ErrPermissionDenied,
// ErrDeviceInUse and ErrNotSerial; use errors.Is to test for them.
//
// # Default Configuration
//
//   - BaudRate: 115200
//   - DataBits: 8
//   - StopBits: 1
//   - Parity: None
//   - FlowControl: None
//   - ReadTimeout: 100ms
//   - WriteMode: Buffered
package serial
