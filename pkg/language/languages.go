package language

const (
	English = "en"
	German  = "de"

	Default = English
)

// Options controls both allowed languages and the order of the chooser
// buttons. Labels are matched exactly against user input.
var Options = []Language{
	{Code: English, Label: "English"},
	{Code: German, Label: "German"},
}

type Language struct {
	Code  string
	Label string
}

var (
	languageByCode  = buildIndex(func(l Language) string { return l.Code })
	languageByLabel = buildIndex(func(l Language) string { return l.Label })
)

func buildIndex(key func(Language) string) map[string]Language {
	out := make(map[string]Language, len(Options))
	for _, option := range Options {
		out[key(option)] = option
	}
	return out
}

func IsSupported(code string) bool {
	_, ok := languageByCode[code]
	return ok
}

// Normalize maps unknown or empty codes to Default.
func Normalize(code string) string {
	if IsSupported(code) {
		return code
	}
	return Default
}

// FromLabel is case sensitive: "German" matches, "german" does not.
func FromLabel(label string) (Language, bool) {
	option, ok := languageByLabel[label]
	return option, ok
}

func Labels() []string {
	labels := make([]string, 0, len(Options))
	for _, option := range Options {
		labels = append(labels, option.Label)
	}
	return labels
}
