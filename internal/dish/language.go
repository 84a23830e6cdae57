package dish

// Language is a display language the inference service translates into.
type Language string

const (
	English            Language = "English"
	ChineseSimplified  Language = "Chinese (Simplified)"
	ChineseTraditional Language = "Chinese (Traditional)"
	Japanese           Language = "Japanese"
	Korean             Language = "Korean"
	Spanish            Language = "Spanish"
	French             Language = "French"
	Thai               Language = "Thai"
	Vietnamese         Language = "Vietnamese"
	German             Language = "German"
	Italian            Language = "Italian"
)

// Languages lists every supported target language.
var Languages = []Language{
	English, ChineseSimplified, ChineseTraditional, Japanese, Korean,
	Spanish, French, Thai, Vietnamese, German, Italian,
}

// Valid reports whether l is one of Languages.
func (l Language) Valid() bool {
	for _, known := range Languages {
		if l == known {
			return true
		}
	}
	return false
}
