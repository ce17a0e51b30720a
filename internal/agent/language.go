package agent

import (
	"fmt"
	"strings"

	"piedpiper/internal/session"
)

// switchLanguage retargets the conversation. Recognition and synthesis must
// both switch before the session flips, so a failure partway leaves the old
// language fully in effect.
func (a *Agent) switchLanguage(sess *session.Context, name string) (string, error) {
	lang, ok := session.ParseLanguage(name)
	if !ok {
		names := make([]string, 0, len(session.All()))
		for _, l := range session.All() {
			names = append(names, l.Name())
		}
		return fmt.Sprintf("I don't speak %s yet. I can do %s.", name, strings.Join(names, ", ")), nil
	}

	if sess.Language() == lang {
		return fmt.Sprintf("We're already speaking %s!", lang.Name()), nil
	}

	if a.speech != nil {
		if err := a.speech.UpdateSTTLanguage(string(lang)); err != nil {
			return "", fmt.Errorf("switch recognition to %s: %w", lang, err)
		}
		if err := a.speech.UpdateTTSLanguage(string(lang)); err != nil {
			return "", fmt.Errorf("switch synthesis to %s: %w", lang, err)
		}
	}
	sess.SetLanguage(lang)
	return lang.Greeting(), nil
}
