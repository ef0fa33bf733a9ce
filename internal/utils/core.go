package utils

import (
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const nanoIdAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func Now() time.Time {
	return time.Now().UTC()
}

// GenerateNanoIDWithPrefix returns an id like "dom_x7k2m9p4q1n8r5t3".
func GenerateNanoIDWithPrefix(prefix string, length int) string {
	id, _ := gonanoid.Generate(nanoIdAlphabet, length)
	return prefix + "_" + id
}

func StringPtr(s string) *string {
	return &s
}
