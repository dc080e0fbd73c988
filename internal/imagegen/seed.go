package imagegen

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"
)

func deterministicSeed(values ...any) int64 {
	if len(values) == 0 {
		return 0
	}
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprint(v))
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	value := int64(binary.BigEndian.Uint32(sum[:4]) % 2147483647)
	if value <= 0 {
		fallback := binary.BigEndian.Uint32(sum[4:8]) % 2147483647
		if fallback == 0 {
			fallback = 1
		}
		value = int64(fallback)
	}
	return value
}
