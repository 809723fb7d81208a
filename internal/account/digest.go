package account

import "fmt"

// Digest scrambles a password into the 64-hex-char form stored in
// accounts.dat. It is a single djb2 pass widened to four 64-bit words by
// XOR masks — NOT a cryptographic hash. It stays this way so that account
// files written by earlier servers keep authenticating; changing it means
// migrating every deployed accounts.dat.
func Digest(password string) string {
	var h uint64 = 5381
	for i := 0; i < len(password); i++ {
		h = h*33 + uint64(password[i])
	}
	return fmt.Sprintf("%016x%016x%016x%016x",
		h, h^0xDEADBEEF, h^0xCAFEBABE, h^0x12345678)
}
