package serial

import (
	"fmt"
	"testing"
	"time"

	"daze_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() []model.Product {
	return []model.Product{
		{Code: "DB07", Name: "Dazebox C", Points: 100, IsActive: true},
		{Code: "DT01", Name: "Dazebox Home T", Points: 50, IsActive: true},
		{Code: "DS02", Name: "Dazebox Share S", Points: 80, IsActive: true},
		{Code: "US01", Name: "Urban S", Points: 120, IsActive: true},
	}
}

func TestParseValidSerial(t *testing.T) {
	result := Parse("25DT0101143", testCatalog())

	require.True(t, result.IsValid, result.Error)
	require.NotNil(t, result.Product)
	assert.Equal(t, "DT01", result.Product.Code)
	assert.Equal(t, "Dazebox Home T", result.Product.Name)
	assert.Equal(t, 2025, result.Year)
	assert.Equal(t, 1143, result.ProductionNumber, "leading zeros stripped")
}

func TestParseTrimsAndUppercases(t *testing.T) {
	result := Parse("  25dt0101143 ", testCatalog())

	require.True(t, result.IsValid, result.Error)
	assert.Equal(t, "DT01", result.Product.Code)
}

func TestParseYearTooOld(t *testing.T) {
	result := Parse("19DT0101143", testCatalog())

	assert.False(t, result.IsValid)
	assert.Contains(t, result.Error, "2019")
}

func TestParseYearTooFarAhead(t *testing.T) {
	yy := (time.Now().Year() + 6) % 100
	result := Parse(fmt.Sprintf("%02dDT0101143", yy), testCatalog())

	assert.False(t, result.IsValid)
	assert.Contains(t, result.Error, "Invalid year")
}

func TestParseUnknownFamilyCode(t *testing.T) {
	result := Parse("25ZZ0101143", testCatalog())

	assert.False(t, result.IsValid)
	assert.Contains(t, result.Error, "Unrecognized serial format")
}

func TestParseWrongLength(t *testing.T) {
	result := Parse("25DT010114", testCatalog())

	assert.False(t, result.IsValid)
	assert.Contains(t, result.Error, "11 characters")
}

func TestParseProductMissingFromCatalog(t *testing.T) {
	// OT01 is a known family but absent from the supplied catalog
	result := Parse("25OT0100134", testCatalog())

	assert.False(t, result.IsValid)
	assert.Contains(t, result.Error, "OT01")
	assert.Contains(t, result.Error, "not found")
}

func TestParseAllKnownFamilies(t *testing.T) {
	catalog := make([]model.Product, 0, len(productCodes))
	for _, code := range productCodes {
		catalog = append(catalog, model.Product{Code: code, Points: 10, IsActive: true})
	}

	for _, code := range productCodes {
		result := Parse("25"+code+"00042", catalog)
		require.True(t, result.IsValid, "family %s: %s", code, result.Error)
		assert.Equal(t, code, result.Product.Code)
		assert.Equal(t, 42, result.ProductionNumber)
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		name    string
		serial  string
		valid   bool
		errPart string
	}{
		{"valid", "25DT0101143", true, ""},
		{"empty", "", false, "required"},
		{"whitespace only", "   ", false, "required"},
		{"too short", "25DT010114", false, "(currently 10)"},
		{"too long", "25DT01011435", false, "(currently 12)"},
		{"non alphanumeric", "25DT01-1143", false, "letters and numbers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, errMsg := ValidateFormat(tt.serial)
			assert.Equal(t, tt.valid, ok)
			if tt.errPart != "" {
				assert.Contains(t, errMsg, tt.errPart)
			}
		})
	}
}

func TestPatternOrderIsDeterministic(t *testing.T) {
	assert.Equal(t, []string{
		"DB07", "DT01", "DS01", "DK01", "DT02", "DS02", "DK02",
		"UT01", "US01", "OT01", "OS01",
	}, productCodes)
	assert.Len(t, productPatterns, len(productCodes))
}
