// Package locale holds the translations of the CSV header labels and of
// the messages printed to the user.
package locale

import (
	"embed"
	"path"
	"sync"

	goi18n "github.com/nicksnyder/go-i18n/i18n"
)

const DefaultLang = "pt-BR"

// Translation ids of the fixed audit columns, in column order.
const (
	HeaderCreatedAt = "export.csv.header.created_at"
	HeaderUpdatedAt = "export.csv.header.updated_at"
	HeaderIP        = "export.csv.header.ip"
	HeaderEntryID   = "export.csv.header.entry_id"
	HeaderKey       = "export.csv.header.key"

	NoticeEntry   = "export.notice.entry"
	NoticeSuccess = "export.notice.success"
)

//go:embed translations/*.json
var translations embed.FS

var (
	loadOnce sync.Once
	loadErr  error
)

func load() error {
	loadOnce.Do(func() {
		files, err := translations.ReadDir("translations")
		if err != nil {
			loadErr = err
			return
		}
		for _, f := range files {
			name := path.Join("translations", f.Name())
			buf, err := translations.ReadFile(name)
			if err != nil {
				loadErr = err
				return
			}
			if err = goi18n.ParseTranslationFileBytes(f.Name(), buf); err != nil {
				loadErr = err
				return
			}
		}
	})
	return loadErr
}

// Tfunc returns the translate function of lang. Ids missing from the
// bundle translate to themselves.
func Tfunc(lang string) (goi18n.TranslateFunc, error) {
	if err := load(); err != nil {
		return nil, err
	}
	return goi18n.Tfunc(lang)
}

// Headers returns the labels of the five audit columns.
func Headers(T goi18n.TranslateFunc) []string {
	return []string{
		T(HeaderCreatedAt),
		T(HeaderUpdatedAt),
		T(HeaderIP),
		T(HeaderEntryID),
		T(HeaderKey),
	}
}
