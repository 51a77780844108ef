package core

import (
	"strings"
	"testing"
)

func TestNewScreen(t *testing.T) {
	s := NewScreen(80, 24)

	if s.Width() != 80 {
		t.Errorf("Width() = %d, expected 80", s.Width())
	}
	if s.Height() != 24 {
		t.Errorf("Height() = %d, expected 24", s.Height())
	}

	for y := 0; y < s.Height(); y++ {
		for x := 0; x < s.Width(); x++ {
			if s.Get(x, y) != ' ' {
				t.Fatalf("New screen should be filled with spaces, got %q at (%d, %d)", s.Get(x, y), x, y)
			}
		}
	}
}

func TestScreenSetGetCell(t *testing.T) {
	s := NewScreen(10, 10)

	s.Set(5, 5, '@', ColorYellow)
	cell := s.GetCell(5, 5)
	if cell.Rune != '@' || cell.Color != ColorYellow {
		t.Errorf("GetCell(5, 5) = %+v, expected '@' in yellow", cell)
	}

	// Out of bounds writes are ignored
	s.Set(-1, 0, 'A', ColorRed)
	s.Set(100, 0, 'A', ColorRed)
	s.Set(0, -1, 'A', ColorRed)
	s.Set(0, 100, 'A', ColorRed)

	if got := s.GetCell(-1, 0); got.Rune != ' ' || got.Color != ColorDefault {
		t.Errorf("Out of bounds GetCell = %+v, expected blank", got)
	}
}

func TestScreenClearResetsColor(t *testing.T) {
	s := NewScreen(4, 4)
	s.FillRect(NewRect(0, 0, 4, 4), '#', ColorGreen)
	s.Clear()

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if cell := s.GetCell(x, y); cell != blank {
				t.Errorf("After Clear, cell (%d, %d) = %+v, expected blank", x, y, cell)
			}
		}
	}
}

func TestScreenDrawText(t *testing.T) {
	s := NewScreen(20, 5)
	s.DrawText(2, 1, "Hello", ColorCyan)

	for i, ch := range "Hello" {
		if s.Get(2+i, 1) != ch {
			t.Errorf("DrawText: expected %q at (%d, 1), got %q", ch, 2+i, s.Get(2+i, 1))
		}
	}

	// Clipped at the right edge
	s.DrawText(18, 0, "Hello", ColorCyan)
	if s.Get(18, 0) != 'H' || s.Get(19, 0) != 'e' {
		t.Error("Text should be clipped at right boundary")
	}
}

func TestScreenDrawTextMultibyte(t *testing.T) {
	s := NewScreen(5, 1)
	s.DrawText(0, 0, "▲▶x", ColorDefault)

	if s.Row(0) != "▲▶x  " {
		t.Errorf("Row(0) = %q, expected %q", s.Row(0), "▲▶x  ")
	}
}

func TestScreenDrawBox(t *testing.T) {
	s := NewScreen(10, 10)
	s.DrawBox(NewRect(1, 1, 5, 4), ColorGray)

	corners := []struct {
		x, y int
		want rune
	}{
		{1, 1, '┌'},
		{5, 1, '┐'},
		{1, 4, '└'},
		{5, 4, '┘'},
	}
	for _, c := range corners {
		if got := s.Get(c.x, c.y); got != c.want {
			t.Errorf("Get(%d, %d) = %q, expected %q", c.x, c.y, got, c.want)
		}
	}

	if s.Get(3, 1) != '─' || s.Get(1, 2) != '│' {
		t.Error("Box edges not drawn")
	}
}

func TestScreenString(t *testing.T) {
	s := NewScreen(5, 3)
	s.DrawText(0, 0, "AAAAA", ColorDefault)
	s.DrawText(0, 1, "BBBBB", ColorDefault)
	s.DrawText(0, 2, "CCCCC", ColorDefault)

	expected := "AAAAA\nBBBBB\nCCCCC"
	if result := s.String(); result != expected {
		t.Errorf("String() = %q, expected %q", result, expected)
	}
}

func TestScreenResize(t *testing.T) {
	s := NewScreen(10, 10)
	s.DrawText(0, 0, "Hello", ColorDefault)

	s.Resize(8, 4)
	if s.Width() != 8 || s.Height() != 4 {
		t.Errorf("After resize, dimensions should be 8x4, got %dx%d", s.Width(), s.Height())
	}
	if row := s.Row(0); strings.TrimSpace(row) != "" {
		t.Errorf("Resize should clear content, row 0 = %q", row)
	}
	if outOfBounds := s.Row(-1); outOfBounds != "        " {
		t.Errorf("Out of bounds row should be spaces, got %q", outOfBounds)
	}
}
