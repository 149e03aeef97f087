package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFactText(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"lowercases", "Database Engine", "database engine"},
		{"collapses whitespace", "a  \t b", "a b"},
		{"normalizes line endings", "a\r\nb", "a b"},
		{"trims", "  x  ", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeFactText(tt.in))
		})
	}
}

func TestCanonicalizeObject(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"plain text", "PostgreSQL", "postgresql"},
		{"thousands separators", "1,000,000", "1000000"},
		{"embedded spaces", "1 000 000", "1000000"},
		{"true uppercase", "TRUE", "true"},
		{"false mixed case", "False", "false"},
		{"not numeric", "10 connections", "10 connections"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanonicalizeObject(tt.in))
		})
	}
}

func TestFactHash_EqualForCanonicallyEqualTriples(t *testing.T) {
	assert.Equal(t,
		FactHash("Database", "is", "PostgreSQL"),
		FactHash("database", "IS", "postgresql"))
	assert.Equal(t,
		FactHash("Max Connections", "is", "1,000"),
		FactHash("max  connections", "is", "1000"))
	assert.NotEqual(t,
		FactHash("Database", "is", "PostgreSQL"),
		FactHash("Database", "is", "MySQL"))
}

func TestNewFact_DerivedFields(t *testing.T) {
	fact := NewFact("Database", "is", "PostgreSQL", "R1-CONFIG.md", "Storage", 4, 4)

	assert.Equal(t, "database::is", fact.NormalizedKey)
	assert.Equal(t, "postgresql", fact.CanonicalObject)
	assert.NotEmpty(t, fact.Hash)
	assert.Equal(t, 4, fact.LineStart)
	assert.Equal(t, 4, fact.LineEnd)
}
