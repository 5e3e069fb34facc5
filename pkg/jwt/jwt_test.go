package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldelectronics558-art/inventory-plus-sub000/pkg/jwt"
)

func TestGenerateParse_RoundTrip(t *testing.T) {
	sub := jwt.Subject{UserID: "u-1", ScopeID: "app-1", Role: "admin", DisplayName: "Ana"}

	token, exp, err := jwt.Generate("s3cr3t", sub, "inventory-sync", 5)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), exp, 5*time.Second)

	claims, err := jwt.Parse("s3cr3t", token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "app-1", claims.ScopeID)
	assert.Equal(t, "Ana", claims.DisplayName)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	token, _, err := jwt.Generate("uno", jwt.Subject{UserID: "u"}, "x", 5)
	require.NoError(t, err)

	_, err = jwt.Parse("otro", token)
	assert.Error(t, err)
}

func TestParse_TokenExpirado(t *testing.T) {
	token, _, err := jwt.Generate("s", jwt.Subject{UserID: "u"}, "x", -1)
	require.NoError(t, err)

	_, err = jwt.Parse("s", token)
	assert.Error(t, err)
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, _, err := jwt.Generate("", jwt.Subject{UserID: "u"}, "x", 5)
	assert.Error(t, err)
}
