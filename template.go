package docbatch

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"docbatch/internal/fileutil"
)

// Reserved generated-field names. These are computed per document by the
// batch and are distinct from spreadsheet columns; a column with the same
// name is overwritten by the generated value.
const (
	// FieldBarcode is the document identifier: current year followed by
	// the daily sequence number zero-padded to 12 digits.
	FieldBarcode = "BARCODE"

	// FieldNoticeDate is the formatted notification date.
	FieldNoticeDate = "NOTICE_DATE"
)

// Patterns for placeholder tokens and local asset references.
var (
	// placeholderPattern matches any {{IDENTIFIER}} token left after
	// substitution. Leftover tokens render as the empty string.
	placeholderPattern = regexp.MustCompile(`\{\{[A-Za-z0-9_]+\}\}`)

	// cssURLPattern matches CSS url(...) references, with optional quotes.
	cssURLPattern = regexp.MustCompile(`url\(['"]?([^'")]+)['"]?\)`)

	// imgTagPattern matches <img> tags, capturing the src attribute value.
	imgTagPattern = regexp.MustCompile(`<img[^>]+src=['"]([^'"]+)['"][^>]*>`)
)

// Renderer produces the final HTML for one document: placeholder
// substitution followed by asset inlining. Rendering never fails; broken
// asset references degrade to the original reference.
type Renderer struct {
	logger *zap.Logger
}

// NewRenderer creates a Renderer. A nil logger disables diagnostics.
func NewRenderer(logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{logger: logger}
}

// Render substitutes placeholders from fields and generated, then inlines
// local images referenced by the template. assetDir is the directory the
// template was loaded from; relative asset paths resolve against it.
func (r *Renderer) Render(templateText string, fields, generated map[string]string, assetDir string) string {
	html := SubstitutePlaceholders(templateText, fields, generated)
	html = r.inlineCSSBackgrounds(html, assetDir)
	html = r.inlineImgTags(html, assetDir)
	return html
}

// SubstitutePlaceholders replaces every {{KEY}} occurrence with the value
// from fields, then from generated (generated wins on collision). Tokens
// with no matching key are removed, so substitution is total and
// idempotent: the output contains no {{...}} tokens.
func SubstitutePlaceholders(text string, fields, generated map[string]string) string {
	for key, value := range fields {
		text = strings.ReplaceAll(text, "{{"+key+"}}", value)
	}
	for key, value := range generated {
		text = strings.ReplaceAll(text, "{{"+key+"}}", value)
	}
	return placeholderPattern.ReplaceAllString(text, "")
}

// inlineCSSBackgrounds rewrites url(...) references to data URIs.
func (r *Renderer) inlineCSSBackgrounds(html, assetDir string) string {
	return cssURLPattern.ReplaceAllStringFunc(html, func(match string) string {
		src := cssURLPattern.FindStringSubmatch(match)[1]
		if !isLocalAsset(src) {
			return match
		}
		dataURI, ok := r.inlineAsset(src, assetDir)
		if !ok {
			return match
		}
		return "url('" + dataURI + "')"
	})
}

// inlineImgTags rewrites the src attribute of <img> tags to data URIs,
// preserving the rest of the tag markup.
func (r *Renderer) inlineImgTags(html, assetDir string) string {
	return imgTagPattern.ReplaceAllStringFunc(html, func(match string) string {
		src := imgTagPattern.FindStringSubmatch(match)[1]
		if !isLocalAsset(src) {
			return match
		}
		dataURI, ok := r.inlineAsset(src, assetDir)
		if !ok {
			return match
		}
		return strings.Replace(match, src, dataURI, 1)
	})
}

// inlineAsset resolves src against assetDir and returns its contents as a
// base64 data URI. Returns false when the file is outside assetDir,
// missing, or unreadable; the caller keeps the original reference.
func (r *Renderer) inlineAsset(src, assetDir string) (string, bool) {
	path := filepath.Join(assetDir, filepath.FromSlash(src))

	if !fileutil.IsPathUnderDir(path, assetDir) {
		r.logger.Warn("asset path escapes template directory", zap.String("src", src))
		return "", false
	}
	if !fileutil.FileExists(path) {
		r.logger.Warn("asset not found, leaving reference as-is", zap.String("src", src))
		return "", false
	}

	data, err := os.ReadFile(path) // #nosec G304 -- containment checked above
	if err != nil {
		r.logger.Warn("asset unreadable, leaving reference as-is",
			zap.String("src", src), zap.Error(err))
		return "", false
	}

	return "data:" + mimeTypeByExtension(src) + ";base64," +
		base64.StdEncoding.EncodeToString(data), true
}

// isLocalAsset reports whether src points at a local file rather than a
// remote URL or an already-embedded data URI.
func isLocalAsset(src string) bool {
	return !strings.HasPrefix(src, "http") && !strings.HasPrefix(src, "data:")
}

// mimeTypeByExtension selects the embedded MIME type: PNG keeps its type,
// everything else is treated as JPEG.
func mimeTypeByExtension(src string) string {
	if strings.HasSuffix(strings.ToLower(src), ".png") {
		return "image/png"
	}
	return "image/jpeg"
}
