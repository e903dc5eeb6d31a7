package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandTokensUnknownTokenIsEmpty(t *testing.T) {
	ctx := TokenContext{"YYYY": "2024"}
	got := expandTokens("{YYYY}/{UNKNOWN_TOKEN}/x", ctx)
	want := "2024//x"
	if got != want {
		t.Errorf("expandTokens = %q, want %q", got, want)
	}
}

func TestExpandTokensNoBraces(t *testing.T) {
	ctx := TokenContext{}
	got := expandTokens("plain/path", ctx)
	if got != "plain/path" {
		t.Errorf("expandTokens = %q", got)
	}
}

func TestRouteLegacyMode(t *testing.T) {
	f := ScannedFile{SrcRel: "IMG_0001.nef", MediaType: MediaRAW}
	dstRel, routedBy := route(f, nil, nil)
	if dstRel != "01_RAW/IMG_0001.nef" {
		t.Errorf("dstRel = %q, want 01_RAW/IMG_0001.nef", dstRel)
	}
	if routedBy != "legacy" {
		t.Errorf("routedBy = %q, want legacy", routedBy)
	}
}

func TestRouteTemplateRules(t *testing.T) {
	tmpl := &FolderTemplate{
		ID: "studio-v1",
		Rules: []RoutingRule{
			{Label: "RAW", MediaType: MediaRAW, DestPattern: "RAW"},
			{Label: "VIDEO", MediaType: MediaVideo, DestPattern: "VIDEO"},
			{Label: "PHOTO", DestPattern: "PHOTO"},
		},
		Scaffolds: []string{"RAW", "VIDEO", "PHOTO"},
	}

	cases := []struct {
		srcRel    string
		mediaType MediaType
		wantDst   string
		wantLabel string
	}{
		{"a.nef", MediaRAW, "RAW/a.nef", "RAW"},
		{"b.mov", MediaVideo, "VIDEO/b.mov", "VIDEO"},
		{"c.jpg", MediaPhoto, "PHOTO/c.jpg", "PHOTO"},
	}
	for _, tc := range cases {
		f := ScannedFile{SrcRel: tc.srcRel, MediaType: tc.mediaType}
		ctx := buildTokenContext(f, time.Now(), cameraInfo{}, tmpl, nil)
		dstRel, routedBy := route(f, ctx, tmpl)
		if dstRel != tc.wantDst {
			t.Errorf("route(%s) dstRel = %q, want %q", tc.srcRel, dstRel, tc.wantDst)
		}
		if routedBy != tc.wantLabel {
			t.Errorf("route(%s) routedBy = %q, want %q", tc.srcRel, routedBy, tc.wantLabel)
		}
	}
}

func TestBuildTokenContextPrecedence(t *testing.T) {
	tmpl := &FolderTemplate{
		TokenDefaults: map[string]string{"CREW": "default-crew", "STUDIO": "studio-a"},
	}
	userTokens := map[string]string{"CREW": "user-crew"}

	f := ScannedFile{SrcRel: "dir/IMG_01.jpg", MediaType: MediaPhoto}
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	ctx := buildTokenContext(f, date, cameraInfo{Model: "R5", SerialShort: "1234"}, tmpl, userTokens)

	if ctx["CREW"] != "user-crew" {
		t.Errorf("user token should win over template default, got %q", ctx["CREW"])
	}
	if ctx["STUDIO"] != "studio-a" {
		t.Errorf("template default should apply when no user override, got %q", ctx["STUDIO"])
	}
	if ctx["YYYY"] != "2024" || ctx["MM"] != "03" || ctx["DD"] != "05" {
		t.Errorf("calendar tokens wrong: YYYY=%s MM=%s DD=%s", ctx["YYYY"], ctx["MM"], ctx["DD"])
	}
	if ctx["ORIGINAL_FILENAME"] != "IMG_01.jpg" {
		t.Errorf("ORIGINAL_FILENAME = %q", ctx["ORIGINAL_FILENAME"])
	}
	if ctx["CAMERA_MODEL"] != "R5" {
		t.Errorf("CAMERA_MODEL = %q", ctx["CAMERA_MODEL"])
	}
	if ctx["CAMERA_SERIAL_SHORT"] != "1234" {
		t.Errorf("CAMERA_SERIAL_SHORT = %q", ctx["CAMERA_SERIAL_SHORT"])
	}
	if ctx["CAMERA_LABEL"] != "R5 1234" {
		t.Errorf("CAMERA_LABEL = %q, want \"R5 1234\"", ctx["CAMERA_LABEL"])
	}
}

func TestCameraLabelDropsEmptySides(t *testing.T) {
	cases := []struct {
		cam  cameraInfo
		want string
	}{
		{cameraInfo{Model: "R5", SerialShort: "1234"}, "R5 1234"},
		{cameraInfo{Model: "R5"}, "R5"},
		{cameraInfo{SerialShort: "1234"}, "1234"},
		{cameraInfo{}, ""},
	}
	for _, tc := range cases {
		if got := tc.cam.Label(); got != tc.want {
			t.Errorf("Label(%+v) = %q, want %q", tc.cam, got, tc.want)
		}
	}
}

func TestLoadFolderTemplateFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "studio.yaml")
	yamlDoc := `
id: studio-v1
name: Studio Default
rules:
  - label: RAW
    media_type: RAW
    dest_pattern: "RAW/{YYYY}"
  - label: VIDEO
    media_type: VIDEO
    dest_pattern: VIDEO
  - label: PHOTO
    dest_pattern: PHOTO
scaffolds: [RAW, VIDEO, PHOTO]
token_defaults:
  STUDIO: studio-a
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))

	tmpl, err := LoadFolderTemplate(path)
	require.NoError(t, err)
	assert.Equal(t, "studio-v1", tmpl.ID)
	assert.Len(t, tmpl.Rules, 3)
	assert.Equal(t, "RAW", tmpl.Rules[0].Label)
	assert.Equal(t, MediaRAW, tmpl.Rules[0].MediaType)
	assert.Equal(t, "studio-a", tmpl.TokenDefaults["STUDIO"])
}

func TestLoadFolderTemplateRejectsEmptyRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("id: empty\n"), 0o644))

	_, err := LoadFolderTemplate(path)
	assert.Error(t, err)
}

func TestNormalizeRelPathCollapsesAndStripsTraversal(t *testing.T) {
	got := normalizeRelPath("a//b/../c/./d")
	want := "a/b/c/d"
	if got != want {
		t.Errorf("normalizeRelPath = %q, want %q", got, want)
	}
}
