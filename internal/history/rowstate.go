package history

import "recall/internal/models"

// RowMode is the action mode of the history list. At most one row is ever
// outside RowNormal.
type RowMode int

const (
	RowNormal RowMode = iota
	RowEditing
	RowDeleting
)

func (m RowMode) String() string {
	switch m {
	case RowEditing:
		return "editing"
	case RowDeleting:
		return "deleting"
	default:
		return "normal"
	}
}

// RowState tracks which row, if any, is being renamed or deleted
type RowState struct {
	Mode  RowMode
	ID    string
	Draft string
}

// StartEdit puts chat into edit mode with its current title as the draft.
// Any pending delete is dropped.
func (r *RowState) StartEdit(chat models.Chat) {
	*r = RowState{Mode: RowEditing, ID: chat.ID, Draft: chat.Title}
}

// StartDelete puts the row id into delete confirmation. Any edit is dropped.
func (r *RowState) StartDelete(id string) {
	*r = RowState{Mode: RowDeleting, ID: id}
}

// ConfirmEdit leaves edit mode and returns what should be renamed. ok is
// false when no row was being edited.
func (r *RowState) ConfirmEdit() (id, title string, ok bool) {
	if r.Mode != RowEditing {
		return "", "", false
	}
	id, title = r.ID, r.Draft
	*r = RowState{}
	return id, title, true
}

// ConfirmDelete leaves delete mode and returns the id to delete
func (r *RowState) ConfirmDelete() (id string, ok bool) {
	if r.Mode != RowDeleting {
		return "", false
	}
	id = r.ID
	*r = RowState{}
	return id, true
}

// Cancel returns to normal mode, discarding any draft
func (r *RowState) Cancel() {
	*r = RowState{}
}

// Busy reports whether any row is being edited or deleted
func (r RowState) Busy() bool { return r.Mode != RowNormal }

// Editing reports whether id is the row being edited
func (r RowState) Editing(id string) bool { return r.Mode == RowEditing && r.ID == id }

// Deleting reports whether id is the row awaiting delete confirmation
func (r RowState) Deleting(id string) bool { return r.Mode == RowDeleting && r.ID == id }
