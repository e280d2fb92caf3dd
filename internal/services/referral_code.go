package services

import (
	"crypto/rand"
	"math/big"
)

// ReferralCodeLength is the length of every generated referral code.
const ReferralCodeLength = 8

// referralAlphabet omits 0/O and 1/I so codes survive being read aloud.
const referralAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateReferralCode returns a random code drawn from referralAlphabet.
func GenerateReferralCode() (string, error) {
	max := big.NewInt(int64(len(referralAlphabet)))
	code := make([]byte, ReferralCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = referralAlphabet[n.Int64()]
	}
	return string(code), nil
}
