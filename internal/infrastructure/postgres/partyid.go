package postgres

import "crypto/rand"

// 64 URL-safe symbols: masking a random byte with 0x3f maps uniformly.
const partyIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

const partyIDLength = 10

func newPartyID() (string, error) {
	buf := make([]byte, partyIDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = partyIDAlphabet[b&0x3f]
	}
	return string(buf), nil
}
