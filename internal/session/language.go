package session

import "strings"

// Language is a supported conversation language code.
type Language string

const (
	English Language = "en"
	Spanish Language = "es"
	French  Language = "fr"
	German  Language = "de"
	Italian Language = "it"
	Hindi   Language = "hi"
)

var languageNames = map[Language]string{
	English: "English",
	Spanish: "Spanish",
	French:  "French",
	German:  "German",
	Italian: "Italian",
	Hindi:   "Hindi",
}

var greetings = map[Language]string{
	English: "Hello! I'm now speaking in English. How can I help you today?",
	Spanish: "¡Hola! Ahora estoy hablando en español. ¿Cómo puedo ayudarte hoy?",
	French:  "Bonjour! Je parle maintenant en français. Comment puis-je vous aider aujourd'hui?",
	German:  "Hallo! Ich spreche jetzt Deutsch. Wie kann ich Ihnen heute helfen?",
	Italian: "Ciao! Ora parlo in italiano. Come posso aiutarti oggi?",
	Hindi:   "नमस्ते! अब मैं हिंदी में बात कर रहा हूँ। आज मैं आपकी कैसे मदद कर सकता हूँ?",
}

var nameToLanguage = map[string]Language{
	"english": English, "en": English,
	"spanish": Spanish, "español": Spanish, "es": Spanish,
	"french": French, "français": French, "fr": French,
	"german": German, "deutsch": German, "de": German,
	"italian": Italian, "italiano": Italian, "it": Italian,
	"hindi": Hindi, "hi": Hindi,
}

// All lists the supported languages in presentation order.
func All() []Language {
	return []Language{English, Spanish, French, German, Italian, Hindi}
}

// Supported reports whether code names a supported language.
func Supported(code Language) bool {
	_, ok := languageNames[code]
	return ok
}

// ParseLanguage resolves a spoken language name or code to a Language.
func ParseLanguage(name string) (Language, bool) {
	lang, ok := nameToLanguage[strings.TrimSpace(strings.ToLower(name))]
	return lang, ok
}

// Name returns the display name for a language code.
func (l Language) Name() string { return languageNames[l] }

// Greeting returns the localized confirmation spoken after a switch.
func (l Language) Greeting() string { return greetings[l] }
