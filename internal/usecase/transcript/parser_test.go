package transcript

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/johnquangdev/meeting-insights/errors"
)

var day = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

func TestParse_SpeakerLines(t *testing.T) {
	raw := "Weekly sync notes\n" +
		"Alice: We decided to use Postgres for storage.\n" +
		"Bob: Sounds good.\n" +
		"I'll prepare the migration plan\n" +
		"by Friday.\n" +
		"Alice: Thanks.\n"

	p := NewParser(nil)
	tr, err := p.Parse("2024-01-10", day, "2024-01-10.md", raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(tr.Utterances) != 3 {
		t.Fatalf("expected 3 utterances, got %d", len(tr.Utterances))
	}
	if tr.Utterances[0].Speaker != "Alice" {
		t.Errorf("unexpected speaker %q", tr.Utterances[0].Speaker)
	}
	want := "Sounds good.\nI'll prepare the migration plan\nby Friday."
	if tr.Utterances[1].Text != want {
		t.Errorf("continuation lines not preserved: %q", tr.Utterances[1].Text)
	}
	for i, u := range tr.Utterances {
		if u.Position != i {
			t.Errorf("position %d out of order: %d", i, u.Position)
		}
		if u.Text == "" {
			t.Errorf("utterance %d has empty text", i)
		}
	}
}

func TestParse_DiscardsPreambleAndTimestamps(t *testing.T) {
	raw := "Meeting recording 2024-01-10\n" +
		"10:30\n" +
		"Alice: first point\n" +
		"[11:45]\n" +
		"still the first point\n"

	p := NewParser(nil)
	tr, err := p.Parse("t", day, "t.md", raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(tr.Utterances) != 1 {
		t.Fatalf("expected 1 utterance, got %d", len(tr.Utterances))
	}
	if tr.Utterances[0].Text != "first point\nstill the first point" {
		t.Errorf("unexpected text %q", tr.Utterances[0].Text)
	}
}

func TestParse_Unparsable(t *testing.T) {
	p := NewParser(nil)
	_, err := p.Parse("t", day, "t.md", "just some notes\nwithout any dialogue\n")
	if err == nil {
		t.Fatal("expected error for transcript without utterances")
	}
	var appErr apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrorCode_TRANSCRIPT_UNPARSABLE {
		t.Fatalf("expected TRANSCRIPT_UNPARSABLE, got %v", err)
	}
}

func TestParse_FrontMatterDate(t *testing.T) {
	raw := "---\nmeeting_date: 2024-02-01\ntitle: Storage sync\n---\n" +
		"Bob: The Postgres decision is being revisited.\n"

	p := NewParser(nil)
	tr, err := p.Parse("t", day, "t.md", raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := tr.MeetingDate.Format("2006-01-02"); got != "2024-02-01" {
		t.Errorf("front matter date not applied: %s", got)
	}
	if tr.Title != "Storage sync" {
		t.Errorf("unexpected title %q", tr.Title)
	}
	if len(tr.Utterances) != 1 {
		t.Fatalf("expected 1 utterance, got %d", len(tr.Utterances))
	}
}

func TestSplitFrontMatter_Malformed(t *testing.T) {
	raw := "---\n: bad: [yaml\n---\nAlice: hi there\n"
	fm, body := SplitFrontMatter(raw)
	if fm.Title != "" || fm.MeetingDate != "" {
		t.Errorf("expected empty front matter, got %+v", fm)
	}
	if body != raw {
		t.Errorf("malformed front matter should leave body untouched")
	}
}
