package marksweep

import "strconv"

func fmtBytes(n uintptr) string {
	return strconv.FormatUint(uint64(n), 10) + " bytes"
}

func fmtUint(n uint64) string {
	return strconv.FormatUint(n, 10)
}
