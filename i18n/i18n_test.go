package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthMessageKnownCodes(t *testing.T) {
	assert.Equal(t, "Email ou mot de passe invalide.", AuthMessage("INVALID_LOGIN_CREDENTIALS", ""))
	assert.Equal(t, "Aucun compte avec cet email.", AuthMessage("EMAIL_NOT_FOUND", ""))
	assert.Equal(t, "Cet email est déjà utilisé.", AuthMessage("EMAIL_EXISTS", ""))
	assert.Equal(t, "Mot de passe trop faible (6+).", AuthMessage("WEAK_PASSWORD", ""))
}

func TestAuthMessageFallback(t *testing.T) {
	assert.Equal(t, "custom", AuthMessage("SOME_NEW_CODE", "custom"))
	assert.Equal(t, "Erreur de connexion.", AuthMessage("SOME_NEW_CODE", ""))
}
