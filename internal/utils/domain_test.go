package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Example.COM", "example.com"},
		{"example.com.", "example.com"},
		{"  shop.example.com  ", "shop.example.com"},
		{"bücher.example", "xn--bcher-kva.example"},
		{"already.normalized.io", "already.normalized.io"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeDomain(tt.input), "input %q", tt.input)
	}
}

func TestIsValidHostname(t *testing.T) {
	valid := []string{
		"example.com",
		"shop.example.com",
		"a.b.c.example.co.uk",
		"xn--bcher-kva.example",
		"my-shop.example.com",
	}
	for _, hostname := range valid {
		assert.True(t, IsValidHostname(hostname), "expected %q to be valid", hostname)
	}

	invalid := []string{
		"",
		"nodots",
		"*.example.com",
		"-leading.example.com",
		"trailing-.example.com",
		"under_score.example.com",
		"example.c0m1",
	}
	for _, hostname := range invalid {
		assert.False(t, IsValidHostname(hostname), "expected %q to be invalid", hostname)
	}
}

func TestIsApexDomain(t *testing.T) {
	assert.True(t, IsApexDomain("example.com"))
	assert.False(t, IsApexDomain("shop.example.com"))
	assert.False(t, IsApexDomain("a.b.example.com"))
}
