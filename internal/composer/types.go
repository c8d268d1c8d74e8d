package composer

import "fmt"

// Mode says whether the document may be mutated.
type Mode string

const (
	ModeEdit Mode = "edit"
	ModeRead Mode = "read"
)

func (m Mode) Toggle() Mode {
	if m == ModeEdit {
		return ModeRead
	}
	return ModeEdit
}

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeEdit, ModeRead:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// View selects the editing surface: the rich-text engine or a plain text input.
type View string

const (
	ViewRich View = "rich"
	ViewRaw  View = "raw"
)

func (v View) Toggle() View {
	if v == ViewRich {
		return ViewRaw
	}
	return ViewRich
}

func ParseView(s string) (View, error) {
	switch View(s) {
	case ViewRich, ViewRaw:
		return View(s), nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}

const DefaultDocumentID = "default"

// Snapshot is the authoritative content of the active document at one instant.
type Snapshot struct {
	Content    string `json:"content"`
	DocumentID string `json:"documentId"`
}

// ResetOptions flags are independent. They apply in the order storage
// clearing, document id reset, content clearing.
type ResetOptions struct {
	ClearContent           bool `json:"clearContent"`
	ClearCurrentStorage    bool `json:"clearCurrentStorage"`
	ClearAllStorage        bool `json:"clearAllStorage"`
	ResetToDefaultDocument bool `json:"resetToDefaultDocument"`
}

// DefaultResetOptions clears the content and the active document's record.
func DefaultResetOptions() ResetOptions {
	return ResetOptions{
		ClearContent:        true,
		ClearCurrentStorage: true,
	}
}
