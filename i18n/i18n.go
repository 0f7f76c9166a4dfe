package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

//go:embed locales/*.json
var locales embed.FS

// DefaultLang is served when the client asks for nothing we support.
const DefaultLang = "en"

// Catalog holds the fixed response messages of every supported language.
type Catalog struct {
	messages map[string]map[string]string
	langs    []string
	matcher  language.Matcher
}

var catalog = mustLoad(locales)

func mustLoad(fsys fs.FS) *Catalog {
	c, err := Load(fsys)
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads every locales/<lang>.json file in fsys. The default language
// must be present.
func Load(fsys fs.FS) (*Catalog, error) {
	files, err := fs.Glob(fsys, "locales/*.json")
	if err != nil {
		return nil, err
	}

	c := &Catalog{messages: make(map[string]map[string]string)}
	for _, file := range files {
		lang := strings.TrimSuffix(path.Base(file), ".json")
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, err
		}
		var msgs map[string]string
		if err := json.Unmarshal(data, &msgs); err != nil {
			return nil, fmt.Errorf("locale %s: %w", lang, err)
		}
		c.messages[lang] = msgs
		c.langs = append(c.langs, lang)
	}
	if _, ok := c.messages[DefaultLang]; !ok {
		return nil, fmt.Errorf("locale %s not found", DefaultLang)
	}

	// The matcher falls back to its first tag.
	sort.SliceStable(c.langs, func(i, j int) bool {
		return c.langs[i] == DefaultLang && c.langs[j] != DefaultLang
	})
	tags := make([]language.Tag, len(c.langs))
	for i, lang := range c.langs {
		tags[i] = language.Make(lang)
	}
	c.matcher = language.NewMatcher(tags)
	return c, nil
}

// Languages lists the loaded languages, default first.
func (c *Catalog) Languages() []string {
	return append([]string(nil), c.langs...)
}

// Message returns the text for key in lang, then in the default language,
// then the key itself.
func (c *Catalog) Message(lang, key string) string {
	if val, ok := c.messages[lang][key]; ok {
		return val
	}
	if val, ok := c.messages[DefaultLang][key]; ok {
		return val
	}
	return key
}

// Language picks the best supported language from Accept-Language.
func (c *Catalog) Language(r *http.Request) string {
	desired, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(desired) == 0 {
		return DefaultLang
	}
	_, idx, conf := c.matcher.Match(desired...)
	if conf == language.No {
		return DefaultLang
	}
	return c.langs[idx]
}

func T(lang, key string) string {
	return catalog.Message(lang, key)
}

func DetectLanguage(r *http.Request) string {
	return catalog.Language(r)
}
