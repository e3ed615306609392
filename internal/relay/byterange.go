package relay

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errUnsatisfiableRange = errors.New("range not satisfiable")

// byteRange is a resolved single range within a source of known size.
type byteRange struct {
	start  int64
	length int64
}

func (r byteRange) contentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.start, r.start+r.length-1, size)
}

// parseRange resolves a Range header against size. It returns nil when the
// whole source should be served: no header, a malformed header, or more
// than one range. errUnsatisfiableRange is returned when the range starts
// past the end.
func parseRange(header string, size int64) (*byteRange, error) {
	if header == "" {
		return nil, nil
	}

	rangeSet, ok := strings.CutPrefix(header, "bytes=")
	if !ok || strings.Contains(rangeSet, ",") {
		return nil, nil
	}

	startStr, endStr, ok := strings.Cut(strings.TrimSpace(rangeSet), "-")
	if !ok {
		return nil, nil
	}
	startStr = strings.TrimSpace(startStr)
	endStr = strings.TrimSpace(endStr)

	// Suffix range: last N bytes
	if startStr == "" {
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n < 0 {
			return nil, nil
		}
		if n == 0 || size == 0 {
			return nil, errUnsatisfiableRange
		}
		if n > size {
			n = size
		}
		return &byteRange{start: size - n, length: n}, nil
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return nil, nil
	}
	if start >= size {
		return nil, errUnsatisfiableRange
	}

	end := size - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil || end < start {
			return nil, nil
		}
		if end >= size {
			end = size - 1
		}
	}

	return &byteRange{start: start, length: end - start + 1}, nil
}
