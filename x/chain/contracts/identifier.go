package contracts

import "fmt"

// PriceIdentifier encodes an identifier such as "ETHUSD" the way UMA stores it: the UTF-8
// bytes left-aligned in a bytes32 and zero padded on the right.
func PriceIdentifier(id string) ([32]byte, error) {
	var out [32]byte
	if id == "" {
		return out, fmt.Errorf("price identifier cannot be empty")
	}
	if len(id) > len(out) {
		return out, fmt.Errorf("price identifier %q is %d bytes, max %d", id, len(id), len(out))
	}
	copy(out[:], id)
	return out, nil
}
