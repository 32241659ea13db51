package render

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nishantc/manim-video-api/internal/types"
)

// TestQualityFlagMapping checks tier-to-flag mapping with a medium default
func TestQualityFlagMapping(t *testing.T) {
	cases := []struct {
		quality string
		want    string
	}{
		{types.QualityLow, "-ql"},
		{types.QualityMedium, "-qm"},
		{types.QualityHigh, "-qh"},
		{"ultra", "-qm"},
		{"", "-qm"},
	}

	for _, tc := range cases {
		if got := qualityFlag(tc.quality); got != tc.want {
			t.Errorf("qualityFlag(%q) = %q, want %q", tc.quality, got, tc.want)
		}
	}
}

// TestRenderWithoutSceneClass checks class-less source degrades to a
// placeholder artifact instead of an error
func TestRenderWithoutSceneClass(t *testing.T) {
	r := NewRenderer("", "")
	out := filepath.Join(t.TempDir(), "video", "scene_1.mp4")

	got := r.Render(context.Background(), "print('not manim code')", out, types.QualityLow)
	if got != out {
		t.Fatalf("Render = %q, want %q", got, out)
	}

	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("placeholder artifact missing: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("placeholder artifact is empty")
	}
}

// TestRenderMissingEngine checks a missing manim binary degrades to a
// placeholder for valid scene code
func TestRenderMissingEngine(t *testing.T) {
	r := NewRenderer("definitely-not-a-real-manim-binary", "")
	out := filepath.Join(t.TempDir(), "scene_1.mp4")

	code := "from manim import *\n\nclass Scene1(Scene):\n    def construct(self):\n        pass\n"
	got := r.Render(context.Background(), code, out, types.QualityMedium)
	if got != out {
		t.Fatalf("Render = %q, want %q", got, out)
	}

	if _, err := os.Stat(out); err != nil {
		t.Fatalf("placeholder artifact missing: %v", err)
	}
}

// TestRenderSamePathForSameScene checks artifact addressing is stable
func TestRenderSamePathForSameScene(t *testing.T) {
	r := NewRenderer("definitely-not-a-real-manim-binary", "definitely-not-ffmpeg")
	dir := t.TempDir()
	out := filepath.Join(dir, "scene_3.mp4")

	code := "from manim import *\n\nclass Scene3(Scene):\n    def construct(self):\n        pass\n"
	first := r.Render(context.Background(), code, out, types.QualityLow)
	second := r.Render(context.Background(), code, out, types.QualityLow)
	if first != second {
		t.Fatalf("repeat render paths differ: %q vs %q", first, second)
	}
}

// TestRenderBlockedOutputDir checks a workspace defect still returns the
// artifact path without panicking
func TestRenderBlockedOutputDir(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "video")
	if err := os.WriteFile(blocker, []byte("not a directory"), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewRenderer("definitely-not-a-real-manim-binary", "definitely-not-ffmpeg")
	out := filepath.Join(blocker, "scene_1.mp4")

	code := "from manim import *\n\nclass Scene1(Scene):\n    def construct(self):\n        pass\n"
	if got := r.Render(context.Background(), code, out, types.QualityLow); got != out {
		t.Fatalf("Render = %q, want %q", got, out)
	}
}

// TestFindRenderedVideo checks discovery under the media directory layout
func TestFindRenderedVideo(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "videos", "scene", "480p15")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	videoPath := filepath.Join(nested, "scene_1.mp4")
	if err := os.WriteFile(videoPath, []byte("mp4"), 0644); err != nil {
		t.Fatal(err)
	}

	if got := findRenderedVideo(filepath.Join(dir, "videos")); got != videoPath {
		t.Fatalf("findRenderedVideo = %q, want %q", got, videoPath)
	}

	if got := findRenderedVideo(filepath.Join(dir, "missing")); got != "" {
		t.Fatalf("findRenderedVideo on missing dir = %q, want empty", got)
	}
}
