package editor

import (
	"fmt"

	"github.com/KaramelBytes/rams-cli/internal/rams"
)

// Session owns the Document for one editing session. Edits apply
// immediately; there is no undo.
type Session struct {
	doc   rams.Document
	steps []Step
	cur   int
	dirty bool
}

// NewSession starts editing a copy of doc at the first step.
func NewSession(doc rams.Document) *Session {
	return &Session{doc: doc.Clone(), steps: Steps()}
}

func (s *Session) Steps() []Step { return s.steps }

func (s *Session) Current() Step { return s.steps[s.cur] }

func (s *Session) Index() int { return s.cur }

// Goto jumps to the step with the given id.
func (s *Session) Goto(id StepID) error {
	for i, st := range s.steps {
		if st.ID == id {
			s.cur = i
			return nil
		}
	}
	return fmt.Errorf("unknown step %q", id)
}

// GotoIndex jumps to step i, clamped to the valid range.
func (s *Session) GotoIndex(i int) {
	s.cur = max(0, min(i, len(s.steps)-1))
}

// Next advances one step and reports whether it moved.
func (s *Session) Next() bool {
	if s.cur >= len(s.steps)-1 {
		return false
	}
	s.cur++
	return true
}

// Prev goes back one step and reports whether it moved.
func (s *Session) Prev() bool {
	if s.cur == 0 {
		return false
	}
	s.cur--
	return true
}

// Fields lists the current step's values.
func (s *Session) Fields() []Field { return s.Current().Fields(s.doc) }

// Set edits one field of the current step.
func (s *Session) Set(key, value string) error {
	doc, err := s.Current().Set(s.doc, key, value)
	if err != nil {
		return err
	}
	s.doc, s.dirty = doc, true
	return nil
}

// Add appends an empty row to the current step.
func (s *Session) Add() error {
	st := s.Current()
	if !st.HasRows() {
		return fmt.Errorf("%s: %w", st.ID, ErrNotList)
	}
	s.doc, s.dirty = st.Add(s.doc), true
	return nil
}

// Remove deletes row index from the current step.
func (s *Session) Remove(index int) error {
	st := s.Current()
	if !st.HasRows() {
		return fmt.Errorf("%s: %w", st.ID, ErrNotList)
	}
	doc, err := st.Remove(s.doc, index)
	if err != nil {
		return err
	}
	s.doc, s.dirty = doc, true
	return nil
}

// Document returns a copy of the edited document.
func (s *Session) Document() rams.Document { return s.doc.Clone() }

// Dirty reports whether any edit happened since the last MarkSaved.
func (s *Session) Dirty() bool { return s.dirty }

func (s *Session) MarkSaved() { s.dirty = false }
