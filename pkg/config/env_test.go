package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvString(t *testing.T) {
	t.Setenv("HTTP_ADDR", "  :9090 ")
	assert.Equal(t, ":9090", GetEnvString("HTTP_ADDR", ":8080"))

	t.Setenv("HTTP_ADDR", "   ")
	assert.Equal(t, ":8080", GetEnvString("HTTP_ADDR", ":8080"))
}

func TestGetEnvStringList(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want []string
	}{
		{"unset", "", []string{"default"}},
		{"single", "https://editor.example", []string{"https://editor.example"}},
		{"trims and drops blanks", " a , ,b,, c ", []string{"a", "b", "c"}},
		{"only separators", ", ,", []string{"default"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CORS_ALLOWED_ORIGINS", tt.env)
			assert.Equal(t, tt.want, GetEnvStringList("CORS_ALLOWED_ORIGINS", []string{"default"}))
		})
	}
}
