package serial

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"daze_backend/internal/model"
)

const SerialLength = 11

// MinYear first year Daze wallboxes were manufactured.
const MinYear = 2020

// productCodes fixed declared order. Family codes are fixed-width and
// non-overlapping, so first match is only match, but iteration order is
// kept deterministic anyway.
var productCodes = []string{
	"DB07", "DT01", "DS01", "DK01", "DT02", "DS02", "DK02",
	"UT01", "US01", "OT01", "OS01",
}

// productPatterns {2-digit year}{4-char product code}{5-digit sequence}
var productPatterns = func() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(productCodes))
	for _, code := range productCodes {
		patterns[code] = regexp.MustCompile(`^(\d{2})` + code + `(\d{5})$`)
	}
	return patterns
}()

var alphanumeric = regexp.MustCompile(`^[0-9A-Za-z]+$`)

type ParseResult struct {
	IsValid          bool           `json:"is_valid"`
	Product          *model.Product `json:"product,omitempty"`
	Year             int            `json:"year,omitempty"`
	ProductionNumber int            `json:"production_number,omitempty"`
	Error            string         `json:"error,omitempty"`
}

// Parse validates a wallbox serial against the known product families
// and resolves the product from the supplied catalog. Pure function:
// the caller owns the catalog.
func Parse(serialCode string, products []model.Product) ParseResult {
	trimmed := strings.ToUpper(strings.TrimSpace(serialCode))

	if len(trimmed) != SerialLength {
		return ParseResult{IsValid: false, Error: "Serial must be 11 characters"}
	}

	for _, code := range productCodes {
		match := productPatterns[code].FindStringSubmatch(trimmed)
		if match == nil {
			continue
		}

		year := 2000 + mustAtoi(match[1])
		maxYear := time.Now().Year() + 5
		if year < MinYear || year > maxYear {
			return ParseResult{
				IsValid: false,
				Error:   fmt.Sprintf("Invalid year %d: must be between %d and %d", year, MinYear, maxYear),
			}
		}

		var product *model.Product
		for i := range products {
			if products[i].Code == code {
				product = &products[i]
				break
			}
		}
		if product == nil {
			return ParseResult{
				IsValid: false,
				Error:   fmt.Sprintf("Product %s not found in catalog", code),
			}
		}

		return ParseResult{
			IsValid:          true,
			Product:          product,
			Year:             year,
			ProductionNumber: mustAtoi(match[2]),
		}
	}

	return ParseResult{
		IsValid: false,
		Error:   "Unrecognized serial format. Valid examples: " + strings.Join(ProductExamples(), ", "),
	}
}

// ValidateFormat structural pre-check for early field feedback. Both
// this and Parse must pass for a serial to be accepted.
func ValidateFormat(serialCode string) (bool, string) {
	trimmed := strings.TrimSpace(serialCode)

	if len(trimmed) == 0 {
		return false, "Serial is required"
	}
	if len(trimmed) != SerialLength {
		return false, fmt.Sprintf("Serial must be 11 characters (currently %d)", len(trimmed))
	}
	if !alphanumeric.MatchString(trimmed) {
		return false, "Serial may contain only letters and numbers"
	}
	return true, ""
}

// ProductExamples sample serials shown in format errors.
func ProductExamples() []string {
	return []string{"25DT0101143", "25DB0701225", "25US0100115"}
}

// mustAtoi inputs are regex-matched \d groups, conversion cannot fail.
func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
