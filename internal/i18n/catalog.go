// Package i18n loads per-language message trees and resolves dotted keys
// into formatted strings.
//
// Lookups never fail: a missing key resolves to the key itself, and a
// template with a missing placeholder resolves to the raw template.
package i18n

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dmitrijs2005/verifybot/internal/common"
	"github.com/dmitrijs2005/verifybot/internal/logging"
)

// FallbackLanguage is used when neither the requested nor the default
// language is loaded.
const FallbackLanguage = "en"

// RequiredSections must exist at the top level of the default language.
var RequiredSections = []string{"welcome_embed", "verification"}

const filePrefix, fileSuffix = "language-", ".json"

// Catalog is immutable after construction and safe for concurrent use.
type Catalog struct {
	languages   map[string]*Value
	defaultLang string
	logger      logging.Logger
}

// NewCatalog builds a catalog from already parsed trees.
func NewCatalog(languages map[string]*Value, defaultLang string, logger logging.Logger) *Catalog {
	if languages == nil {
		languages = map[string]*Value{}
	}
	return &Catalog{languages: languages, defaultLang: defaultLang, logger: logger}
}

// LoadDir reads every language-<code>.json file in dir and validates the
// default language.
func LoadDir(dir, defaultLang string, logger logging.Logger) (*Catalog, error) {
	ctx := context.Background()

	paths, err := filepath.Glob(filepath.Join(dir, filePrefix+"*"+fileSuffix))
	if err != nil {
		return nil, fmt.Errorf("%w: scan %s: %v", common.ErrConfiguration, dir, err)
	}
	sort.Strings(paths)

	languages := make(map[string]*Value, len(paths))
	for _, p := range paths {
		code := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(p), filePrefix), fileSuffix)
		tree, err := readTree(p)
		if err != nil {
			return nil, err
		}
		languages[code] = tree
		logger.Info(ctx, "loaded language file", "language", code, "path", p)
		logger.Debug(ctx, "language keys", "language", code, "keys", tree.Keys())
	}
	if len(languages) == 0 {
		return nil, fmt.Errorf("%w: no %s*%s files in %s", common.ErrConfiguration, filePrefix, fileSuffix, dir)
	}

	c := NewCatalog(languages, defaultLang, logger)
	if _, ok := languages[defaultLang]; !ok {
		logger.Error(ctx, "default language not loaded, falling back", "language", defaultLang, "fallback", FallbackLanguage)
		c.defaultLang = FallbackLanguage
	}

	if missing := c.missingSections(c.defaultLang); len(missing) > 0 {
		logger.Error(ctx, "default language is missing expected keys", "language", c.defaultLang, "missing", missing)
		if c.defaultLang == FallbackLanguage || len(c.missingSections(FallbackLanguage)) > 0 {
			return nil, fmt.Errorf("%w: language %q lacks sections %v", common.ErrConfiguration, c.defaultLang, missing)
		}
		c.defaultLang = FallbackLanguage
	}

	logger.Info(ctx, "languages ready", "available", c.Languages(), "default", c.defaultLang)
	return c, nil
}

func readTree(path string) (*Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", common.ErrConfiguration, path, err)
	}
	tree := &Value{}
	if err := json.Unmarshal(data, tree); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", common.ErrConfiguration, path, err)
	}
	if tree.children == nil {
		return nil, fmt.Errorf("%w: %s must contain a JSON object", common.ErrConfiguration, path)
	}
	return tree, nil
}

func (c *Catalog) missingSections(lang string) []string {
	tree := c.languages[lang]
	var missing []string
	for _, s := range RequiredSections {
		if !tree.Has(s) {
			missing = append(missing, s)
		}
	}
	return missing
}

// Default returns the effective default language.
func (c *Catalog) Default() string { return c.defaultLang }

// Languages lists loaded language codes.
func (c *Catalog) Languages() []string {
	out := make([]string, 0, len(c.languages))
	for k := range c.languages {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the template at key in lang (or the default language when
// lang is empty or not loaded) with params substituted.
func (c *Catalog) Resolve(key, lang string, params map[string]any) string {
	ctx := context.Background()

	tree, ok := c.languages[lang]
	if !ok {
		tree, ok = c.languages[c.defaultLang]
	}
	if !ok {
		tree, ok = c.languages[FallbackLanguage]
	}
	if !ok {
		c.logger.Warn(ctx, "no language data, returning key", "language", lang, "key", key)
		return key
	}

	template, found := tree.Lookup(key)
	if !found {
		c.logger.Warn(ctx, "key not found, returning key", "language", lang, "key", key)
		return key
	}

	out, err := Format(template, params)
	if err != nil {
		var mp *MissingParamError
		if errors.As(err, &mp) {
			c.logger.Warn(ctx, "missing format key", "key", key, "param", mp.Name)
		}
		return template
	}
	return out
}

// Get resolves key in the default language.
func (c *Catalog) Get(key string, params map[string]any) string {
	return c.Resolve(key, "", params)
}
