package pkg

import (
	"math/rand"
)

const codeRunes = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomString returns n random alphanumeric characters. Used for voucher
// share codes, which must stay decodable as bare tokens (letters and digits
// only, no separators).
func RandomString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = codeRunes[rand.Intn(len(codeRunes))]
	}
	return string(b)
}

// VoucherCodeLength is the length of generated share codes. Minimum usable
// length for a bare code is 8; 12 keeps collisions practically unreachable.
const VoucherCodeLength = 12

func NewVoucherCode() string {
	return RandomString(VoucherCodeLength)
}
