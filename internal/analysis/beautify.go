package analysis

import "regexp"

var numberPattern = regexp.MustCompile(`\d+`)

// beautify wraps every run of digits in a bold span so metric values
// stand out in the rendered response.
func beautify(text string) string {
	return numberPattern.ReplaceAllString(text, `<span class="fw-bold">$0</span>`)
}
