package views

import (
	"context"
	"io"
	"strconv"

	"github.com/AdamBeresnev/cupmaker/internal/bracket"
	"github.com/AdamBeresnev/cupmaker/internal/middleware"
	users "github.com/AdamBeresnev/cupmaker/internal/user"
	"github.com/a-h/templ"
)

func GetUser(ctx context.Context) *users.User {
	return middleware.GetAuthenticatedUser(ctx)
}

// html writes markup and keeps the first write error
type html struct {
	w   io.Writer
	err error
}

func (h *html) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *html) attr(name, value string) {
	h.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

func SlotLabel(s bracket.Slot) string {
	switch {
	case s.IsBye():
		return "Bye"
	case s.IsResolved():
		if s.Player.TeamName != "" {
			return s.Player.Name + " (" + s.Player.TeamName + ")"
		}
		return s.Player.Name
	}
	return "TBD"
}

func scoreLabel(score *int) string {
	if score == nil {
		return "-"
	}
	return strconv.Itoa(*score)
}
