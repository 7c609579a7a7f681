package rooms

import (
	"crypto/rand"
	"math/big"
)

// Picker returns a uniformly random index in [0, n). n is always positive.
type Picker func(n int) int

// CryptoPicker draws from crypto/rand.
func CryptoPicker(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("crypto/rand failure: " + err.Error())
	}

	return int(v.Int64())
}
