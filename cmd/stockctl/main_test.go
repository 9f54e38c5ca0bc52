package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockroom/internal/domain/models"
)

func TestCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["user"])
	assert.True(t, names["report"])
	assert.True(t, names["export"])

	sub, _, err := rootCmd.Find([]string{"user", "role"})
	require.NoError(t, err)
	assert.Equal(t, "role", sub.Name())
}

func TestArgumentValidation(t *testing.T) {
	for _, args := range [][]string{
		{"user", "add"},
		{"user", "role", "a@example.com"},
		{"report", "extra"},
	} {
		rootCmd.SetArgs(args)
		rootCmd.SetOut(&bytes.Buffer{})
		assert.Error(t, rootCmd.Execute(), args)
	}
}

func TestParseRole(t *testing.T) {
	role, err := parseRole(" Admin ")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)

	_, err = parseRole("owner")
	assert.Error(t, err)
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	report := models.InventoryReport{
		GeneratedAt: time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC),
		TotalItems:  1,
		CostValue:   375,
		RetailValue: 809.2,
		LowStock:    []models.LowStockEntry{{ItemName: "Clear 12mm", Category: "Glass", Type: "Tempered", Location: "Rack A", Quantity: 1, MinStock: 5}},
	}
	require.NoError(t, printReport(&buf, report))
	assert.Contains(t, buf.String(), `"totalItems": 1`)
	assert.Contains(t, buf.String(), "value at cost $375.00, at retail $809.20")
	assert.Contains(t, buf.String(), "Low stock alert")
}
