// Package Biometrics covers face enrollment and the voice command flow that
// depends on it. Matching is behind Verifier so a real model can replace the
// simulated one.
package Biometrics

import (
	"crypto/sha256"
	"encoding/hex"
	"math/rand"
	"sync"
	"time"

	"Lulan/Models"
)

type Verifier interface {
	Verify(template Models.BiometricTemplate, sample []byte) bool
}

// DefaultSuccessRate matches the demo verifier's behaviour.
const DefaultSuccessRate = 0.8

// SimulatedVerifier accepts a sample with probability SuccessRate.
type SimulatedVerifier struct {
	SuccessRate float64

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSimulatedVerifier(successRate float64, seed int64) *SimulatedVerifier {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimulatedVerifier{SuccessRate: successRate, rnd: rand.New(rand.NewSource(seed))}
}

func (v *SimulatedVerifier) Verify(template Models.BiometricTemplate, sample []byte) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rnd.Float64() < v.SuccessRate
}

// DigestVerifier accepts a sample whose sha256 matches the template digest.
type DigestVerifier struct{}

func (DigestVerifier) Verify(template Models.BiometricTemplate, sample []byte) bool {
	return template.Digest != "" && Digest(sample) == template.Digest
}

func Digest(sample []byte) string {
	sum := sha256.Sum256(sample)
	return hex.EncodeToString(sum[:])
}
