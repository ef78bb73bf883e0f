// Package i18n maps machine error codes to the French messages shown to
// users. Unknown codes fall back to the raw message so nothing is ever
// swallowed.
package i18n

var authMessages = map[string]string{
	"INVALID_LOGIN_CREDENTIALS": "Email ou mot de passe invalide.",
	"INVALID_CREDENTIAL":        "Email ou mot de passe invalide.",
	"EMAIL_NOT_FOUND":           "Aucun compte avec cet email.",
	"INVALID_PASSWORD":          "Mot de passe incorrect.",
	"EMAIL_EXISTS":              "Cet email est déjà utilisé.",
	"WEAK_PASSWORD":             "Mot de passe trop faible (6+).",
	"INVALID_EMAIL":             "Email invalide.",
}

// AuthMessage returns the user-facing message for an identity-provider
// error code, or fallback when the code is not recognized.
func AuthMessage(code, fallback string) string {
	if msg, ok := authMessages[code]; ok {
		return msg
	}
	if fallback != "" {
		return fallback
	}
	return "Erreur de connexion."
}
