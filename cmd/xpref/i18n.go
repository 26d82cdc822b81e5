package main

import "github.com/creamcroissant/xpref/internal/support/i18n"

func newI18nManager(locales *i18n.LocaleSet) (*i18n.Manager, error) {
	manager, err := i18n.NewManager(locales, i18n.WithLogger(newLogger()))
	if err != nil {
		return nil, err
	}
	if cfg.Locale.CatalogDir != "" {
		if err := manager.LoadFromDir(cfg.Locale.CatalogDir); err != nil {
			return nil, err
		}
	}
	return manager, nil
}
