package utils

import (
	"encoding/hex"
	"github.com/cespare/xxhash/v2"
)

func FastHashHex(b []byte) string {
	h := xxhash.New()
	_, _ = h.Write(b)
	return hex.EncodeToString(h.Sum(nil))
}

func GenerateEtag(b []byte) string {
	return "W/" + "\"" + FastHashHex(b) + "\""
}

func DedupStringSlice(strSlice []string) []string {
	keys := make(map[string]struct{}, len(strSlice))
	var result []string
	for _, item := range strSlice {
		if _, ok := keys[item]; !ok {
			keys[item] = struct{}{}
			result = append(result, item)
		}
	}
	return result
}

func Keys[M ~map[K]V, K comparable, V any](m M) []K {
	r := make([]K, 0, len(m))
	for k := range m {
		r = append(r, k)
	}
	return r
}
