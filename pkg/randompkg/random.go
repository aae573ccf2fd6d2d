// Package randompkg provides functionality for generating random application items.
package randompkg

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/bxcodec/faker/v3"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/pkg/moneypkg"
)

// Intn is a shortcut for generating a random integer between 0 and max using crypto/rand.
func Intn(max int64) int64 {
	nBig, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		panic(err)
	}

	return nBig.Int64()
}

// ID generates a random positive account id.
func ID() int64 {
	return Intn(1_000_000) + 1
}

// Email generates a random lower case email.
func Email() string {
	return strings.ToLower(faker.Email())
}

// Amount generates a random valid amount between min and max whole units.
func Amount(min, max int64) decimal.Decimal {
	cents := Intn((max-min)*100+1) + min*100
	if cents == 0 {
		cents = 1
	}

	return decimal.New(cents, -moneypkg.Scale)
}
