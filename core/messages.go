package core

import (
	"net/http"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/fr"
	ut "github.com/go-playground/universal-translator"
	"github.com/pkg/errors"
)

const (
	msgCredentials = "auth.credentials"
	msgDeactivated = "auth.deactivated"
	msgExpired     = "auth.expired"
	msgNetwork     = "error.network"
	msgTimeout     = "error.timeout"
	msgServer      = "error.server"
	msgNotFound    = "error.notfound"
	msgForbidden   = "error.forbidden"
	msgValidation  = "error.validation"
	msgMockBanner  = "mock.banner"
	msgMockError   = "mock.error"
)

var catalog = map[string]map[string]string{
	"en": {
		msgCredentials: "Incorrect username or password.",
		msgDeactivated: "This account has been deactivated.",
		msgExpired:     "Your session has expired, please sign in again.",
		msgNetwork:     "Unable to reach the server. Check your connection.",
		msgTimeout:     "The server took too long to respond. Please try again.",
		msgServer:      "The server encountered an error. Please try again later.",
		msgNotFound:    "The requested item could not be found.",
		msgForbidden:   "You do not have permission to do this.",
		msgValidation:  "Some fields are invalid.",
		msgMockBanner:  "Offline mode: showing local demo data.",
		msgMockError:   "Offline mode: this action used local demo data only.",
	},
	"fr": {
		msgCredentials: "Nom d'utilisateur ou mot de passe incorrect.",
		msgDeactivated: "Ce compte a été désactivé.",
		msgExpired:     "Votre session a expiré, veuillez vous reconnecter.",
		msgNetwork:     "Impossible de joindre le serveur. Vérifiez votre connexion.",
		msgTimeout:     "Le serveur a mis trop de temps à répondre. Veuillez réessayer.",
		msgServer:      "Le serveur a rencontré une erreur. Veuillez réessayer plus tard.",
		msgNotFound:    "L'élément demandé est introuvable.",
		msgForbidden:   "Vous n'avez pas la permission d'effectuer cette action.",
		msgValidation:  "Certains champs sont invalides.",
		msgMockBanner:  "Mode hors ligne : données de démonstration locales.",
		msgMockError:   "Mode hors ligne : cette action n'a utilisé que des données locales.",
	},
}

// Messages renders user-facing, localized messages for errors and mode banners.
type Messages struct {
	uni      *ut.UniversalTranslator
	fallback string
}

func NewMessages() *Messages {
	_en := en.New()
	uni := ut.New(_en, _en, fr.New())
	for _, lt := range []locales.Translator{_en, fr.New()} {
		trans, _ := uni.GetTranslator(lt.Locale())
		for key, text := range catalog[lt.Locale()] {
			_ = trans.Add(key, text, true)
		}
	}
	return &Messages{uni: uni, fallback: "en"}
}

func (m *Messages) translate(lang, key string) string {
	trans, _ := m.uni.GetTranslator(lang) // falls back to "en"
	s, err := trans.T(key)
	if err != nil {
		return catalog[m.fallback][key]
	}
	return s
}

// ForError maps err onto the message shown to the user.
func (m *Messages) ForError(lang string, err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return m.translate(lang, msgCredentials)
	case errors.Is(err, ErrAccountDeactivated):
		return m.translate(lang, msgDeactivated)
	case errors.Is(err, ErrAuthExpired), errors.Is(err, ErrUnauthenticated), IsUnauthorized(err):
		return m.translate(lang, msgExpired)
	case IsTimeout(err):
		return m.translate(lang, msgTimeout)
	case IsNetwork(err):
		return m.translate(lang, msgNetwork)
	case IsValidation(err):
		return m.translate(lang, msgValidation)
	case IsNotFound(err):
		return m.translate(lang, msgNotFound)
	case StatusOf(err) == http.StatusForbidden:
		return m.translate(lang, msgForbidden)
	default:
		return m.translate(lang, msgServer)
	}
}

// ForModeError is ForError prefixed with the offline variant when running on mock services.
func (m *Messages) ForModeError(lang string, err error, mock bool) string {
	msg := m.ForError(lang, err)
	if mock && msg != "" {
		return m.translate(lang, msgMockError) + " " + msg
	}
	return msg
}

func (m *Messages) MockBanner(lang string) string {
	return m.translate(lang, msgMockBanner)
}
