package netutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateHttpUrl(t *testing.T) {
	for _, valid := range []string{
		"https://sandbox-api.sablepay.io",
		"https://api.sablepay.io/v1",
		"http://localhost:8080",
		"http://127.0.0.1:4000/path",
	} {
		parsed, err := ValidateHttpUrl(valid, false)
		require.NoError(t, err, valid)
		assert.NotEmpty(t, parsed.Host)
	}

	for _, invalid := range []string{
		"",
		"sandbox-api.sablepay.io",
		"ftp://sandbox-api.sablepay.io",
		"https://",
		"http://bad_domain!.io",
	} {
		_, err := ValidateHttpUrl(invalid, false)
		assert.Error(t, err, invalid)
	}

	_, err := ValidateHttpUrl("http://api.sablepay.io", true)
	assert.Error(t, err)

	_, err = ValidateHttpUrl("https://api.sablepay.io", true)
	assert.NoError(t, err)
}

func TestJoinBaseUrl(t *testing.T) {
	assert.Equal(t, "https://api.sablepay.io/v1/payments", JoinBaseUrl("https://api.sablepay.io", "v1/payments"))
	assert.Equal(t, "https://api.sablepay.io/v1/payments", JoinBaseUrl("https://api.sablepay.io///", "/v1/payments"))
	assert.Equal(t, "https://api.sablepay.io/", JoinBaseUrl("https://api.sablepay.io/", ""))
	assert.Equal(t, "https://api.sablepay.io", TrimTrailingSlashes("https://api.sablepay.io//"))
}

func TestValidateDomainName(t *testing.T) {
	assert.NoError(t, ValidateDomainName("sablepay.io"))
	assert.NoError(t, ValidateDomainName("sandbox-api.sablepay.io."))
	assert.Error(t, ValidateDomainName(""))
	assert.Error(t, ValidateDomainName("."))
	assert.Error(t, ValidateDomainName(strings.Repeat("a", 64)+".io"))

	ascii, err := ToASCIIDomain("café.sablepay.io")
	require.NoError(t, err)
	assert.Equal(t, "xn--caf-dma.sablepay.io", ascii)
}

func TestGetAvailablePortForAddress(t *testing.T) {
	port, err := GetAvailablePortForAddress("localhost")
	require.NoError(t, err)
	assert.True(t, port > 0)
}
