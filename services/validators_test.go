package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCUIT(t *testing.T) {
	assert.True(t, ValidateCUIT("20123456786"))
	assert.True(t, ValidateCUIT("20-12345678-6"))
	assert.True(t, ValidateCUIT("30500010912"))
	assert.False(t, ValidateCUIT("20123456780"))
	assert.False(t, ValidateCUIT("2012345678"))
	assert.False(t, ValidateCUIT(""))
}

func TestValidateRegistration(t *testing.T) {
	assert.True(t, ValidateRegistration("LV-ABC"))
	assert.True(t, ValidateRegistration(" lq-xyz "))
	assert.True(t, ValidateRegistration("N12345"))
	assert.False(t, ValidateRegistration("LV-A"))
	assert.False(t, ValidateRegistration("LV ABC"))
	assert.False(t, ValidateRegistration("ABCDEFGHIJK"))

	assert.True(t, IsArgentineRegistration("lv-abc"))
	assert.False(t, IsArgentineRegistration("N12345"))
}

func TestValidateContact(t *testing.T) {
	assert.True(t, ValidateEmail("info@aeroclubnorte.com.ar"))
	assert.False(t, ValidateEmail("Info <info@x.com>"))
	assert.False(t, ValidateEmail("no-at-sign"))

	assert.True(t, ValidatePhone("+54 11 4444-5555"))
	assert.True(t, ValidatePhone("1144445555"))
	assert.False(t, ValidatePhone("12345"))
	assert.False(t, ValidatePhone("0114444555566"))
}
