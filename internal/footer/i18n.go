package footer

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys double as the English text.
const (
	msgVersion      = "Version: %s"
	msgLatest       = "(latest)"
	msgNewVersion   = "New version found"
	msgFailed       = "detection failed"
	msgUnknown      = "unknown version"
	msgErrorDetails = "Error details: %s"
)

var translations = map[language.Tag]map[string]string{
	language.TraditionalChinese: {
		msgVersion:      "版本: %s",
		msgLatest:       "(最新版本)",
		msgNewVersion:   "發現新版",
		msgFailed:       "檢測失敗",
		msgUnknown:      "未知版本",
		msgErrorDetails: "錯誤資訊: %s",
	},
}

var (
	supported = []language.Tag{language.English, language.TraditionalChinese}
	matcher   = language.NewMatcher(supported)
	messages  = buildCatalog()
)

var messageKeys = []string{msgVersion, msgLatest, msgNewVersion, msgFailed, msgUnknown, msgErrorDetails}

// buildCatalog registers every message. It panics on a malformed entry since
// it runs at package init.
func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, key := range messageKeys {
		mustSet(b, language.English, key, key)
	}
	for tag, msgs := range translations {
		for key, text := range msgs {
			mustSet(b, tag, key, text)
		}
	}
	return b
}

func mustSet(b *catalog.Builder, tag language.Tag, key, text string) {
	if err := b.SetString(tag, key, text); err != nil {
		panic(fmt.Sprintf("footer: registering %q for %s: %v", key, tag, err))
	}
}

// Labels prints footer text in one language.
type Labels struct {
	tag     language.Tag
	printer *message.Printer
}

// NewLabels picks the best supported language for the given preferences,
// which may be BCP 47 tags or raw Accept-Language header values. English is
// used when nothing matches.
func NewLabels(prefs ...string) *Labels {
	_, idx := language.MatchStrings(matcher, prefs...)
	tag := supported[idx]
	return &Labels{tag: tag, printer: message.NewPrinter(tag, message.Catalog(messages))}
}

// Language returns the tag the labels are printed in.
func (l *Labels) Language() language.Tag { return l.tag }

func (l *Labels) sprintf(key string, args ...any) string {
	return l.printer.Sprintf(key, args...)
}
