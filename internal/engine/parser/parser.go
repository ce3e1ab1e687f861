// # internal/engine/parser/parser.go
package parser

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"codemap/internal/core/errors"
)

// Parser turns source files into file maps. It owns language detection,
// leases tree-sitter parsers from the per-language pools, and dispatches
// to the registered extractor.
//
// A file that cannot be parsed at all still yields a map: an empty one
// carrying an UnparseableFile diagnostic. Partial syntax damage never
// aborts a file; broken declarations surface as anomalies and the rest is
// extracted normally.
type Parser struct {
	loader         *GrammarLoader
	registry       *Registry
	extensions     map[string]string
	filenames      map[string]string
	testFileSuffix []string
}

func NewParser(loader *GrammarLoader) *Parser {
	p := &Parser{
		loader:     loader,
		registry:   NewRegistry(),
		extensions: make(map[string]string),
		filenames:  make(map[string]string),
	}
	for lang, spec := range loader.LanguageRegistry() {
		if !spec.Enabled {
			continue
		}
		for _, ext := range spec.Extensions {
			p.extensions[strings.ToLower(ext)] = lang
		}
		for _, name := range spec.Filenames {
			p.filenames[strings.ToLower(filepath.Base(name))] = lang
		}
		p.testFileSuffix = append(p.testFileSuffix, spec.TestFileSuffixes...)
	}
	sort.Strings(p.testFileSuffix)
	return p
}

// DefaultExtractorForLanguage builds the stock extractor for a language id.
func DefaultExtractorForLanguage(lang string) (Extractor, error) {
	switch lang {
	case "python":
		return NewPythonExtractor()
	case "go":
		return NewGoExtractor(), nil
	case "javascript":
		return NewJavaScriptExtractor(), nil
	case "typescript":
		return NewTypeScriptExtractor("typescript"), nil
	case "tsx":
		return NewTypeScriptExtractor("tsx"), nil
	case "rust":
		return NewRustExtractor(), nil
	case "java":
		return NewJavaExtractor(), nil
	case "css":
		return NewCSSExtractor(), nil
	case "html":
		return NewHTMLExtractor(), nil
	default:
		return nil, errors.New(errors.CodeNotSupported, fmt.Sprintf("no extractor for language: %s", lang))
	}
}

// RegisterExtractor registers a custom extractor, validating its
// capability table. Call before RegisterDefaultExtractors to override a
// stock language.
func (p *Parser) RegisterExtractor(ext Extractor) error {
	return p.registry.Register(ext)
}

// RegisterDefaultExtractors fills the registry for every enabled language
// that does not already have an extractor.
func (p *Parser) RegisterDefaultExtractors() error {
	for lang, spec := range p.loader.LanguageRegistry() {
		if !spec.Enabled {
			continue
		}
		if _, ok := p.registry.Get(lang); ok {
			continue
		}
		ext, err := DefaultExtractorForLanguage(lang)
		if err != nil {
			return err
		}
		if err := p.registry.Register(ext); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) ParseFile(path string, content []byte) (*FileMap, error) {
	lang := p.detectLanguage(path)
	if lang == "" {
		return nil, errors.AddContext(errors.New(errors.CodeNotSupported, "unsupported file type"), errors.CtxPath, path)
	}

	extractor, ok := p.registry.Get(lang)
	if !ok {
		return nil, errors.New(errors.CodeNotSupported, fmt.Sprintf("no extractor registered for: %s", lang))
	}

	pool, ok := p.loader.Pool(lang)
	if !ok {
		return nil, errors.New(errors.CodeInternal, fmt.Sprintf("grammar not loaded: %s", lang))
	}
	parser := pool.Get()
	defer pool.Put(parser)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return unparseableFile(path, lang, nil, "parser produced no tree"), nil
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return unparseableFile(path, lang, nil, "parser produced no tree"), nil
	}
	if wholeFileBroken(root) {
		return unparseableFile(path, lang, root, "file could not be parsed"), nil
	}

	file, err := extractor.Extract(root, content, path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "extraction failed")
	}
	markBrokenDeclarations(file, root)
	return file, nil
}

// wholeFileBroken reports whether nothing in the file survived parsing:
// the root is an error, or every top-level construct is.
func wholeFileBroken(root *sitter.Node) bool {
	if root.Kind() == "ERROR" {
		return true
	}
	if !root.HasError() || root.NamedChildCount() == 0 {
		return false
	}
	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		if child.Kind() != "ERROR" && !commentNodeKinds[child.Kind()] {
			return false
		}
	}
	return true
}

func unparseableFile(path, lang string, root *sitter.Node, message string) *FileMap {
	span := Span{StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 1}
	if root != nil {
		span = nodeSpan(root)
	}
	return &FileMap{
		Path:       path,
		Language:   lang,
		AnalyzedAt: time.Now(),
		Diagnostics: []Diagnostic{{
			Kind:    DiagUnparseableFile,
			Message: message,
			Span:    span,
		}},
	}
}

// markBrokenDeclarations records an anomaly for each top-level construct
// the parser could not recover.
func markBrokenDeclarations(file *FileMap, root *sitter.Node) {
	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		if child.Kind() != "ERROR" {
			continue
		}
		file.Diagnostics = append(file.Diagnostics, Diagnostic{
			Kind:    DiagDeclarationAnomaly,
			Message: "unparseable declaration",
			Span:    nodeSpan(child),
		})
	}
}

func (p *Parser) detectLanguage(path string) string {
	base := strings.ToLower(filepath.Base(path))
	if lang, ok := p.filenames[base]; ok {
		return lang
	}
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := p.extensions[ext]; ok {
		return lang
	}
	return ""
}

func (p *Parser) IsSupportedPath(path string) bool {
	return p.detectLanguage(path) != ""
}

func (p *Parser) GetLanguage(path string) string {
	return p.detectLanguage(path)
}

func (p *Parser) IsTestFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	for _, suffix := range p.testFileSuffix {
		if strings.HasSuffix(base, strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}

func (p *Parser) Languages() []string {
	return p.registry.Languages()
}

func (p *Parser) SupportedExtensions() []string {
	return p.loader.SupportedExtensions()
}

func (p *Parser) SupportedFilenames() []string {
	return p.loader.SupportedFilenames()
}

func (p *Parser) SupportedTestFileSuffixes() []string {
	return p.loader.SupportedTestFileSuffixes()
}
