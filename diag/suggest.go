package diag

import "strings"

var suggestions = []struct {
	needle string
	advice string
}{
	{"FINSI", "Vérifiez que chaque 'SI' a son 'FINSI' correspondant"},
	{"FIN TANT QUE", "Vérifiez que chaque 'TANT QUE' a son 'FIN TANT QUE' correspondant"},
	{"FINPOUR", "Vérifiez que chaque 'POUR' a son 'FINPOUR' correspondant"},
	{"FINFONCTION", "Vérifiez que chaque 'FONCTION' a son 'FINFONCTION' correspondant"},
	{"non déclarée", "Déclarez la variable dans la section VARIABLES avant de l'utiliser"},
	{"←", "Utilisez '←' (ou '<-') pour l'affectation"},
	{"AFFICHER", "Syntaxe: AFFICHER(expression) ou AFFICHER(expr1, expr2, ...)"},
	{"LIRE", "Syntaxe: LIRE(nomVariable)"},
}

// Suggest returns advisory text for e, or "". The advice is derived from
// the message wording and is for display only.
func Suggest(e *Error) string {
	if e == nil {
		return ""
	}
	for _, s := range suggestions {
		if strings.Contains(e.Message, s.needle) {
			return s.advice
		}
	}
	return ""
}

// Format renders e with its suggestion on a second line.
func Format(e *Error) string {
	msg := e.Error()
	if s := Suggest(e); s != "" {
		msg += "\nConseil: " + s
	}
	return msg
}
