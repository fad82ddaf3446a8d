package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeadSortOrder(t *testing.T) {
	assert.Equal(t, "leads.created_at desc", leadSortOrder("newest"))
	assert.Equal(t, "leads.created_at asc", leadSortOrder("oldest"))
	assert.Equal(t, "leads.status asc, leads.created_at desc", leadSortOrder("status"))
	assert.Equal(t, "leads.last_name asc, leads.first_name asc", leadSortOrder("name"))
}

func TestLeadSortOrderFallsBackToDefault(t *testing.T) {
	// Only whitelisted values reach the ORDER BY clause.
	assert.Equal(t, "leads.created_at desc", leadSortOrder(""))
	assert.Equal(t, "leads.created_at desc", leadSortOrder("leads.id; drop table leads"))
	assert.Equal(t, "leads.created_at desc", leadSortOrder("created_at"))
}
