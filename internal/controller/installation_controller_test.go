package controller

import (
	"net/http/httptest"
	"strings"
	"testing"

	"daze_backend/internal/model"
	"daze_backend/pkg/utils/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batchCatalog() []model.Product {
	return []model.Product{
		{Code: "DT01", Name: "Dazebox Home T", Points: 60, IsActive: true},
		{Code: "US01", Name: "Urban S", Points: 100, IsActive: true},
	}
}

func neverRegistered(string) bool { return false }

func TestValidateSerialBatchAccepts(t *testing.T) {
	validated, errResp := validateSerialBatch(
		[]string{"25DT0101143", " 25us0100115 "},
		batchCatalog(), neverRegistered)

	require.Nil(t, errResp)
	require.Len(t, validated, 2)
	assert.Equal(t, "25DT0101143", validated[0].code)
	assert.Equal(t, "25US0100115", validated[1].code, "normalized before insertion")
	assert.Equal(t, "US01", validated[1].result.Product.Code)
}

func TestValidateSerialBatchRejectsEmpty(t *testing.T) {
	_, errResp := validateSerialBatch(nil, batchCatalog(), neverRegistered)

	require.NotNil(t, errResp)
	assert.Contains(t, errResp["error"], "At least one serial")
}

func TestValidateSerialBatchRejectsInBatchDuplicate(t *testing.T) {
	// Same unit twice in one submission, differing only in case and
	// whitespace.
	_, errResp := validateSerialBatch(
		[]string{"25DT0101143", " 25dt0101143 "},
		batchCatalog(), neverRegistered)

	require.NotNil(t, errResp)
	assert.Equal(t, "duplicate_serial", errResp["code"])
	assert.Contains(t, errResp["error"], "Duplicate serial in submission")
	assert.Equal(t, " 25dt0101143 ", errResp["serial"], "reports the offending input verbatim")
}

func TestValidateSerialBatchRejectsAlreadyRegistered(t *testing.T) {
	registered := func(code string) bool { return code == "25US0100115" }

	_, errResp := validateSerialBatch(
		[]string{"25DT0101143", "25US0100115"},
		batchCatalog(), registered)

	require.NotNil(t, errResp)
	assert.Equal(t, "duplicate_serial", errResp["code"])
	assert.Contains(t, errResp["error"], "already been registered")
}

func TestValidateSerialBatchRejectsBadFormat(t *testing.T) {
	_, errResp := validateSerialBatch(
		[]string{"25DT010114"},
		batchCatalog(), neverRegistered)

	require.NotNil(t, errResp)
	assert.Contains(t, errResp["error"], "11 characters")
}

func TestValidateSerialBatchRejectsUnknownProduct(t *testing.T) {
	// OT01 is a valid family but absent from the supplied catalog.
	_, errResp := validateSerialBatch(
		[]string{"25OT0100134"},
		batchCatalog(), neverRegistered)

	require.NotNil(t, errResp)
	assert.Contains(t, errResp["error"], "OT01")
}

func TestRegisterLeadSerialsRequiresInstallerProfile(t *testing.T) {
	app := fiber.New()
	app.Post("/leads/:id/serials", func(c *fiber.Ctx) error {
		c.Locals("user", &jwt.Claims{UserID: 1, Email: "admin@daze.eu", Role: "admin"})
		return RegisterLeadSerials(c)
	})

	req := httptest.NewRequest("POST", "/leads/1/serials",
		strings.NewReader(`{"serials":["25DT0101143"]}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
