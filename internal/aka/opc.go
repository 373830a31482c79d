package aka

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/wmnsk/milenage"
)

// DeriveOPc computes OPc from the subscriber key and the operator key. Both
// inputs and the result are 32-character hex strings; the result is upper case
// to match how Open5GS tooling stores keys.
func DeriveOPc(k, op string) (string, error) {
	kBytes, err := decodeKey("K", k)
	if err != nil {
		return "", err
	}
	opBytes, err := decodeKey("OP", op)
	if err != nil {
		return "", err
	}

	opc, err := milenage.ComputeOPc(kBytes, opBytes)
	if err != nil {
		return "", fmt.Errorf("computing OPc: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(opc)), nil
}

func decodeKey(name, value string) ([]byte, error) {
	b, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	if len(b) != 16 {
		return nil, fmt.Errorf("invalid %s: want 16 bytes, got %d", name, len(b))
	}
	return b, nil
}
