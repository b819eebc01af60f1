package history

import "recall/internal/models"

// Selection resolves which chat the preview pane shows. An explicit
// selection wins over hover.
type Selection struct {
	selectedID string
	hoveredID  string
}

// Select pins id as the explicit selection. Hover is left alone.
func (s *Selection) Select(id string) { s.selectedID = id }

// Unselect drops the explicit selection
func (s *Selection) Unselect() { s.selectedID = "" }

// Hover records the row under the pointer or cursor. It is ignored while a
// row is being edited or deleted.
func (s *Selection) Hover(id string, rowBusy bool) {
	if rowBusy {
		return
	}
	s.hoveredID = id
}

// SelectedID returns the explicit selection, or ""
func (s Selection) SelectedID() string { return s.selectedID }

// HoveredID returns the hovered chat id, or ""
func (s Selection) HoveredID() string { return s.hoveredID }

// Target returns the effective preview target id, or "" when there is none
func (s Selection) Target() string {
	if s.selectedID != "" {
		return s.selectedID
	}
	return s.hoveredID
}

// Reconcile clears ids that no longer reference a visible chat
func (s *Selection) Reconcile(visible []models.Chat) {
	if s.selectedID != "" && !containsChat(visible, s.selectedID) {
		s.selectedID = ""
	}
	if s.hoveredID != "" && !containsChat(visible, s.hoveredID) {
		s.hoveredID = ""
	}
}

// Reset clears both selection and hover
func (s *Selection) Reset() { *s = Selection{} }

func containsChat(chats []models.Chat, id string) bool {
	_, ok := findChat(chats, id)
	return ok
}

func findChat(chats []models.Chat, id string) (models.Chat, bool) {
	for _, c := range chats {
		if c.ID == id {
			return c, true
		}
	}
	return models.Chat{}, false
}
