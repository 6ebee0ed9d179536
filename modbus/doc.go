// Package modbus implements the Modbus RTU master side of a serial line:
// the frame codec, PDU builders and the single-flight transaction manager.
//
// # Frames
//
// An RTU frame is the slave address, the function code, the payload and a
// CRC-16/MODBUS sent low byte first. Encode builds one from a Request and
// Decode checks one that the stream package cut from the line:
//
//	req, _ := modbus.NewReadHoldingRegisters(1, 0, 1)
//	adu := modbus.Encode(req) // 01 03 00 00 00 01 0A 84
//
// Decoding never fails. A frame that is too short or too long is Malformed,
// one whose checksum does not match is CrcMismatch. Exception responses are
// Ok at this layer; Response.Err turns them into an *ExceptionError.
//
// # Transactions
//
// RTU has no transaction identifier, so a Manager allows one outstanding
// request per line and accepts only a response from the same slave for
// the same function. Submit while a response is awaited fails with
// ErrBusy. Unanswered requests are resent unchanged until the retries run
// out and the transaction ends with ErrTimeout.
//
// The Manager takes the current time as an argument and is driven by its
// caller. Client wraps it with a read loop and a timer for use on a real
// port:
//
//	client, err := modbus.NewClient(ctx, port,
//	    modbus.WithTiming(stream.ModbusTiming(19200)),
//	    modbus.WithTimeout(500*time.Millisecond),
//	    modbus.WithRetries(3),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	resp, err := client.Do(ctx, req)
//	if err != nil {
//	    return err
//	}
//	regs, err := resp.Registers()
package modbus
