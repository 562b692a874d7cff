package host

import (
	"encoding/binary"
	"fmt"
)

// PackArgs lays out args back to back for a buffer export.
// Integers are written as 4 byte little endian values, and strings and byte slices are copied as is.
func PackArgs(args ...any) ([]byte, error) {
	var buf []byte
	for i, arg := range args {
		switch v := arg.(type) {
		case int32:
			buf = binary.LittleEndian.AppendUint32(buf, uint32(v))
		case uint32:
			buf = binary.LittleEndian.AppendUint32(buf, v)
		case int:
			if int64(v) < -1<<31 || int64(v) > 1<<32-1 {
				return nil, fmt.Errorf("%w: argument %d value %d doesn't fit in 4 bytes", ErrArgType, i, v)
			}
			buf = binary.LittleEndian.AppendUint32(buf, uint32(v))
		case string:
			buf = append(buf, v...)
		case []byte:
			buf = append(buf, v...)
		default:
			return nil, fmt.Errorf("%w: argument %d is %T", ErrArgType, i, arg)
		}
	}
	return buf, nil
}
