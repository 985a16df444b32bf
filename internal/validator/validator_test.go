package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type endpoint struct {
	URL     string `mapstructure:"url" validate:"required,httpurl"`
	Hook    string `mapstructure:"hook" validate:"httpurl"`
	Family  string `mapstructure:"family" validate:"oneof=any ipv4 ipv6"`
	Retries int    `mapstructure:"retries" validate:"gte=0"`
}

func TestStruct(t *testing.T) {
	v := New()

	require.NoError(t, v.Struct(endpoint{URL: "https://api.ipify.org", Family: "any"}))

	err := v.Struct(endpoint{URL: "ftp://example.com", Family: "any"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url must be a valid http(s) URL")

	err = v.Struct(endpoint{Family: "ipv5", Retries: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url is required")
	assert.Contains(t, err.Error(), "family must be one of [any ipv4 ipv6]")
	assert.Contains(t, err.Error(), "retries must be at least 0")
}

func TestHTTPURL(t *testing.T) {
	v := New()

	assert.NoError(t, v.Var("", "httpurl"))
	assert.NoError(t, v.Var("http://127.0.0.1:8080/ip", "httpurl"))
	assert.Error(t, v.Var("not a url", "httpurl"))
	assert.Error(t, v.Var("https://", "httpurl"))
}
