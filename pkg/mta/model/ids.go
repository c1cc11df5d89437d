package model

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateTaskID produces a session-random 6-digit decimal task id, as
// required by the SendRequest construction rules.
func GenerateTaskID() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// GenerateSenderID produces a session-random 4 hex digit sender id.
func GenerateSenderID() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(0x10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04x", n.Int64()), nil
}
