package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

// testColor is a neutral color used for sparkline tests.
var testColor = lipgloss.Color("#ffffff")

func TestRenderSparkline_Empty(t *testing.T) {
	result := stripANSI(RenderSparkline(nil, 10, testColor))
	if result != strings.Repeat(" ", 10) {
		t.Errorf("expected 10 spaces, got %q", result)
	}
}

func TestRenderSparkline_FlatSeries(t *testing.T) {
	values := []float64{55, 55, 55, 55, 55}
	result := stripANSI(RenderSparkline(values, 5, testColor))
	runes := []rune(result)
	if len(runes) != 5 {
		t.Fatalf("expected 5 runes, got %d: %q", len(runes), result)
	}
	for i, ch := range runes {
		if ch != '▁' {
			t.Errorf("index %d: expected '▁', got %q", i, ch)
		}
	}
}

func TestRenderSparkline_Ascending(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	result := []rune(stripANSI(RenderSparkline(values, 8, testColor)))

	if len(result) != 8 {
		t.Fatalf("expected 8 runes, got %d: %q", len(result), string(result))
	}
	for i := 1; i < len(result); i++ {
		if result[i] < result[i-1] {
			t.Errorf("index %d: expected non-decreasing, got %q < %q", i, result[i], result[i-1])
		}
	}
	if result[0] != '▁' {
		t.Errorf("first char: expected '▁', got %q", result[0])
	}
	if result[7] != '█' {
		t.Errorf("last char: expected '█', got %q", result[7])
	}
}

func TestRenderSparkline_SmallSwingOnHighBaseline(t *testing.T) {
	// Temperatures hover in a narrow band; the swing must still span the full height.
	values := []float64{54.0, 57.0, 54.0}
	result := []rune(stripANSI(RenderSparkline(values, 3, testColor)))
	if string(result) != "▁█▁" {
		t.Errorf("expected %q, got %q", "▁█▁", string(result))
	}
}

func TestRenderSparkline_TruncatesLeft(t *testing.T) {
	// 20 values; width=10 → only the last 10 values are used.
	values := make([]float64, 20)
	for i := range values {
		values[i] = float64(i)
	}
	result := []rune(stripANSI(RenderSparkline(values, 10, testColor)))

	if len(result) != 10 {
		t.Fatalf("expected 10 runes, got %d", len(result))
	}
	if result[0] != '▁' || result[9] != '█' {
		t.Errorf("expected the visible window rescaled, got %q", string(result))
	}
}

func TestRenderSparkline_PadsLeft(t *testing.T) {
	result := []rune(stripANSI(RenderSparkline([]float64{30, 40}, 5, testColor)))

	if len(result) != 5 {
		t.Fatalf("expected 5 runes, got %d", len(result))
	}
	if got := string(result[:3]); got != "   " {
		t.Errorf("expected 3 leading spaces, got %q", got)
	}
	if got := string(result[3:]); got != "▁█" {
		t.Errorf("expected %q, got %q", "▁█", got)
	}
}

func TestRenderSparkline_ZeroWidth(t *testing.T) {
	result := RenderSparkline([]float64{1, 2, 3}, 0, testColor)
	if result != "" {
		t.Errorf("expected empty string for width=0, got %q", result)
	}
}
