// 文件路径: internal/support/i18n/i18n.go
// 模块说明: 这是 internal 模块里的 i18n 逻辑，负责接口错误信息和语言名称的翻译。
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

//go:embed locales/*.json
var embeddedLocales embed.FS

// Manager 管理翻译内容。
type Manager struct {
	locales      *LocaleSet
	translations map[string]map[string]string
	logger       *slog.Logger
	mu           sync.RWMutex
}

// Option 用于配置 Manager。
type Option func(*Manager)

// WithLogger 设置 Manager 使用的日志实例。
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager 创建 i18n Manager。Catalog files are keyed by locale code; files for
// locales outside the supported set are still loaded but never selected.
func NewManager(locales *LocaleSet, opts ...Option) (*Manager, error) {
	if locales == nil {
		return nil, fmt.Errorf("i18n: locale set is required / 语言集合不能为空")
	}
	m := &Manager{
		locales:      locales,
		translations: make(map[string]map[string]string),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.loadEmbeddedTranslations(); err != nil {
		return nil, err
	}
	for _, code := range locales.Supported() {
		if _, ok := m.translations[strings.ToLower(code)]; !ok {
			m.logger.Warn("no message catalog for supported locale", "locale", code)
		}
	}
	return m, nil
}

func (m *Manager) loadEmbeddedTranslations() error {
	entries, err := embeddedLocales.ReadDir("locales")
	if err != nil {
		return fmt.Errorf("failed to read locales directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := embeddedLocales.ReadFile("locales/" + entry.Name())
		if err != nil {
			return fmt.Errorf("failed to read locale file %s: %w", entry.Name(), err)
		}
		var content map[string]string
		if err := json.Unmarshal(data, &content); err != nil {
			return fmt.Errorf("failed to unmarshal locale file %s: %w", entry.Name(), err)
		}
		m.merge(strings.TrimSuffix(entry.Name(), ".json"), content)
	}
	return nil
}

// LoadFromDir 从外部目录加载翻译文件，覆盖内置的同名键。
func (m *Manager) LoadFromDir(dir string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // 外部目录不存在也可以继续。
		}
		return fmt.Errorf("failed to read external locales directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			m.logger.Warn("failed to read external locale file", "file", file.Name(), "error", err)
			continue
		}
		var content map[string]string
		if err := json.Unmarshal(data, &content); err != nil {
			m.logger.Warn("failed to unmarshal external locale file", "file", file.Name(), "error", err)
			continue
		}
		m.merge(strings.TrimSuffix(file.Name(), ".json"), content)
	}
	return nil
}

func (m *Manager) merge(lang string, content map[string]string) {
	key := strings.ToLower(lang)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.translations[key]; !exists {
		m.translations[key] = make(map[string]string, len(content))
	}
	for k, v := range content {
		m.translations[key][k] = v
	}
}

// Locales returns the locale set the manager negotiates against.
func (m *Manager) Locales() *LocaleSet {
	return m.locales
}

// Translate 按语言与键名返回翻译内容。lang may be any client tag; it is negotiated
// onto a supported locale first, then the default locale, then the key itself.
func (m *Manager) Translate(lang, key string, args ...any) string {
	candidates := make([]string, 0, 2)
	if code, ok := m.locales.Detect([]string{lang}); ok {
		candidates = append(candidates, code)
	}
	candidates = append(candidates, m.locales.Default())

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, code := range candidates {
		trans, ok := m.translations[strings.ToLower(code)]
		if !ok {
			continue
		}
		if val, ok := trans[key]; ok {
			if len(args) > 0 {
				return fmt.Sprintf(val, args...)
			}
			return val
		}
	}
	// 回退为原始 key
	return key
}

// LocaleLabel returns the display name of a supported locale in the given language.
func (m *Manager) LocaleLabel(lang, code string) string {
	key := "locale." + code
	if label := m.Translate(lang, key); label != key {
		return label
	}
	return code
}
