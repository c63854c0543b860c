package platforms

import "testing"

func TestParseISODuration(t *testing.T) {
	t.Run("Minutes And Seconds", func(t *testing.T) {
		ms, ok := ParseISODuration("PT3M27S")
		if !ok {
			t.Fatal("expected duration to parse")
		}
		if ms != (3*60+27)*1000 {
			t.Errorf("expected 207000, got %d", ms)
		}
	})

	t.Run("Hours", func(t *testing.T) {
		ms, ok := ParseISODuration("PT1H2M3S")
		if !ok {
			t.Fatal("expected duration to parse")
		}
		if ms != (3600+2*60+3)*1000 {
			t.Errorf("expected 3723000, got %d", ms)
		}
	})

	t.Run("Days", func(t *testing.T) {
		ms, ok := ParseISODuration("P1DT1S")
		if !ok {
			t.Fatal("expected duration to parse")
		}
		if ms != 24*3600*1000+1000 {
			t.Errorf("expected 86401000, got %d", ms)
		}
	})

	t.Run("Zero Length Content", func(t *testing.T) {
		ms, ok := ParseISODuration("P0D")
		if !ok {
			t.Fatal("expected P0D to parse")
		}
		if ms != 0 {
			t.Errorf("expected 0, got %d", ms)
		}
	})

	t.Run("Fractional Seconds Truncate", func(t *testing.T) {
		ms, ok := ParseISODuration("PT1.5S")
		if !ok {
			t.Fatal("expected duration to parse")
		}
		if ms != 1500 {
			t.Errorf("expected 1500, got %d", ms)
		}
	})

	t.Run("Garbage", func(t *testing.T) {
		if _, ok := ParseISODuration("3:27"); ok {
			t.Error("expected non-ISO input to be rejected")
		}
		if _, ok := ParseISODuration(""); ok {
			t.Error("expected empty input to be rejected")
		}
	})
}

func TestSplitArtistTitle(t *testing.T) {
	t.Run("Plain Hyphen", func(t *testing.T) {
		artist, title, ok := SplitArtistTitle("Daft Punk - Around the World")
		if !ok {
			t.Fatal("expected split to succeed")
		}
		if artist != "Daft Punk" || title != "Around the World" {
			t.Errorf("got artist %q title %q", artist, title)
		}
	})

	t.Run("Splits On First Delimiter Only", func(t *testing.T) {
		artist, title, ok := SplitArtistTitle("A - B - C")
		if !ok {
			t.Fatal("expected split to succeed")
		}
		if artist != "A" || title != "B - C" {
			t.Errorf("got artist %q title %q", artist, title)
		}
	})

	t.Run("En Dash", func(t *testing.T) {
		artist, title, ok := SplitArtistTitle("Queen – Bohemian Rhapsody")
		if !ok {
			t.Fatal("expected split to succeed")
		}
		if artist != "Queen" || title != "Bohemian Rhapsody" {
			t.Errorf("got artist %q title %q", artist, title)
		}
	})

	t.Run("No Delimiter", func(t *testing.T) {
		if _, _, ok := SplitArtistTitle("Bohemian Rhapsody"); ok {
			t.Error("expected split to fail without a delimiter")
		}
	})

	t.Run("Empty Side", func(t *testing.T) {
		if _, _, ok := SplitArtistTitle(" - Intro"); ok {
			t.Error("expected split to fail with an empty artist side")
		}
	})
}

func TestCleanTitle(t *testing.T) {
	t.Run("Strips Parentheses And Brackets", func(t *testing.T) {
		got := CleanTitle("Around the World (Official Video) [HD]")
		if got != "Around the World" {
			t.Errorf("expected clean title, got %q", got)
		}
	})

	t.Run("Keeps Plain Titles", func(t *testing.T) {
		got := CleanTitle("Around the World")
		if got != "Around the World" {
			t.Errorf("expected unchanged title, got %q", got)
		}
	})

	t.Run("Never Empties A Title", func(t *testing.T) {
		got := CleanTitle("(Intro)")
		if got != "(Intro)" {
			t.Errorf("expected original title back, got %q", got)
		}
	})
}
