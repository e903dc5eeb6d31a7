package ingest

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RoutingRule is one entry in a FolderTemplate's ordered rule list.
// Exactly one of MediaType/Extensions should be set; leaving both
// empty makes the rule a catch-all.
type RoutingRule struct {
	Label       string    `yaml:"label"`
	MediaType   MediaType `yaml:"media_type,omitempty"`
	Extensions  []string  `yaml:"extensions,omitempty"`
	DestPattern string    `yaml:"dest_pattern"`
}

// matches reports whether the rule accepts the given scanned file.
func (r RoutingRule) matches(f ScannedFile) bool {
	if r.MediaType == "" && len(r.Extensions) == 0 {
		return true
	}
	if r.MediaType != "" && r.MediaType == f.MediaType {
		return true
	}
	if len(r.Extensions) > 0 {
		ext := extOf(f.SrcRel)
		for _, e := range r.Extensions {
			if strings.EqualFold(e, ext) {
				return true
			}
		}
	}
	return false
}

// FolderTemplate is a declarative routing config: ordered rules, the
// directories to scaffold at project setup, and default token values.
// A nil *FolderTemplate selects legacy mode.
type FolderTemplate struct {
	ID            string            `yaml:"id"`
	Name          string            `yaml:"name"`
	Description   string            `yaml:"description,omitempty"`
	Rules         []RoutingRule     `yaml:"rules"`
	Scaffolds     []string          `yaml:"scaffolds"`
	TokenDefaults map[string]string `yaml:"token_defaults,omitempty"`
}

// LoadFolderTemplate reads a FolderTemplate from a YAML file on disk.
// This is the one load path the CLI needs to turn an operator-authored
// file into the in-memory FolderTemplate routing consumes; managing a
// template library is someone else's job.
func LoadFolderTemplate(path string) (*FolderTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load folder template: %w", err)
	}
	var tmpl FolderTemplate
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("load folder template: %w", err)
	}
	if len(tmpl.Rules) == 0 {
		return nil, fmt.Errorf("load folder template: %s: rules must be non-empty", path)
	}
	return &tmpl, nil
}

// legacyScaffolds is the fixed scaffold set used when no template is
// supplied.
var legacyScaffolds = []string{"01_RAW", "02_EXPORTS", "03_DELIVERY"}

// scaffoldsFor returns the directories that should be created at
// project setup for the given (possibly nil) template.
func scaffoldsFor(tmpl *FolderTemplate) []string {
	if tmpl == nil {
		return legacyScaffolds
	}
	return tmpl.Scaffolds
}

// TokenContext is the substitution environment for one file: calendar,
// media, and camera tokens, layered under user overrides.
type TokenContext map[string]string

// buildTokenContext materializes the full token map for one file,
// applying template defaults first and user overrides last.
func buildTokenContext(f ScannedFile, captureDate time.Time, cam cameraInfo, tmpl *FolderTemplate, userTokens map[string]string) TokenContext {
	ctx := TokenContext{}

	if tmpl != nil {
		for k, v := range tmpl.TokenDefaults {
			ctx[k] = v
		}
	}

	ctx["YYYY"] = captureDate.Format("2006")
	ctx["MM"] = captureDate.Format("01")
	ctx["DD"] = captureDate.Format("02")

	ctx["EXT"] = strings.TrimPrefix(extOf(f.SrcRel), ".")
	ctx["ORIGINAL_FILENAME"] = baseName(f.SrcRel)
	ctx["MEDIA_TYPE"] = string(f.MediaType)

	if cam.Model != "" {
		ctx["CAMERA_MODEL"] = cam.Model
	}
	if cam.SerialShort != "" {
		ctx["CAMERA_SERIAL_SHORT"] = cam.SerialShort
	}
	if cam.Label() != "" {
		ctx["CAMERA_LABEL"] = cam.Label()
	}

	for k, v := range userTokens {
		ctx[k] = v
	}

	return ctx
}

// expandTokens replaces every {TOKEN} occurrence in pattern with its
// value from ctx; unknown tokens expand to the empty string. Token
// name characters are uppercase ASCII and underscore, matched with a
// single left-to-right scan.
func expandTokens(pattern string, ctx TokenContext) string {
	var b strings.Builder
	i := 0
	for i < len(pattern) {
		c := pattern[i]
		if c != '{' {
			b.WriteByte(c)
			i++
			continue
		}
		end := strings.IndexByte(pattern[i:], '}')
		if end < 0 {
			b.WriteString(pattern[i:])
			break
		}
		name := pattern[i+1 : i+end]
		if isTokenName(name) {
			b.WriteString(ctx[name]) // zero value "" for unknown tokens
			i += end + 1
			continue
		}
		b.WriteByte(c)
		i++
	}
	return b.String()
}

func isTokenName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c == '_' || (c >= 'A' && c <= 'Z')) {
			return false
		}
	}
	return true
}

// route computes dst_rel and the routed_by label for one scanned
// file. A nil template selects legacy mode: destination
// "01_RAW/<src_rel>", routed_by "legacy".
func route(f ScannedFile, ctx TokenContext, tmpl *FolderTemplate) (dstRel string, routedBy string) {
	if tmpl == nil {
		return normalizeRelPath("01_RAW/" + f.SrcRel), "legacy"
	}
	for _, rule := range tmpl.Rules {
		if rule.matches(f) {
			expanded := expandTokens(rule.DestPattern, ctx)
			return normalizeRelPath(expanded + "/" + f.SrcRel), rule.Label
		}
	}
	// No rule matched. Validation only checks that the rule list is
	// non-empty, so a template without a trailing catch-all lands such
	// a file at its source-relative path with an empty routed_by.
	return normalizeRelPath(f.SrcRel), ""
}

// normalizeRelPath forward-slashes path, collapses empty components
// produced by token expansion (e.g. an unset {YYYY} leaving a bare
// "//"), and drops every "." and ".." segment wherever it appears so
// the result never escapes the project root.
func normalizeRelPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	parts := strings.Split(path, "/")
	kept := parts[:0]
	for _, p := range parts {
		if p == "" || p == "." {
			continue
		}
		if p == ".." {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, "/")
}

func extOf(relPath string) string {
	idx := strings.LastIndexByte(relPath, '.')
	slash := strings.LastIndexByte(relPath, '/')
	if idx <= slash {
		return ""
	}
	return strings.ToLower(relPath[idx:])
}

func baseName(relPath string) string {
	if i := strings.LastIndexByte(relPath, '/'); i >= 0 {
		return relPath[i+1:]
	}
	return relPath
}
