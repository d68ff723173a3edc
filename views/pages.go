package views

import (
	"context"
	"io"
	"strconv"

	"github.com/AdamBeresnev/cupmaker/internal/bracket"
	"github.com/AdamBeresnev/cupmaker/internal/service"
	"github.com/a-h/templ"
)

func page(title string, body func(h *html)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>`)
		h.text(title)
		h.raw(`</title><style>table{border-collapse:collapse}td,th{padding:2px 8px}.winner{font-weight:bold}.bracket{display:flex;gap:2em}</style></head><body><header><a href="/">Cupmaker</a>`)
		if user := GetUser(ctx); user != nil {
			h.raw(`<span class="user">`)
			h.text(user.Username)
			h.raw(`</span><form method="post" action="/logout"><button>Log out</button></form>`)
		}
		h.raw(`</header><main>`)
		body(h)
		h.raw(`</main></body></html>`)
		return h.err
	})
}

func LoginPage() templ.Component {
	return page("Sign in", func(h *html) {
		h.raw(`<h1>Sign in</h1>`)
		h.raw(`<form method="post" action="/auth/guest"><input name="name" placeholder="Your name"><button>Continue as guest</button></form>`)
		h.raw(`<p><a href="/auth/discord">Sign in with Discord</a> | <a href="/auth/google">Sign in with Google</a></p>`)
	})
}

func Index(tournaments []bracket.Tournament) templ.Component {
	return page("My tournaments", func(h *html) {
		h.raw(`<h1>My tournaments</h1>`)
		if len(tournaments) == 0 {
			h.raw(`<p>No tournaments yet.</p>`)
			return
		}
		h.raw(`<ul class="tournaments">`)
		for _, t := range tournaments {
			h.raw(`<li><a`)
			h.attr("href", "/tournaments/"+t.ID.String())
			h.raw(`>`)
			h.text(t.Name)
			h.raw(`</a> <span class="stage">`)
			h.text(string(t.Stage))
			h.raw(`</span></li>`)
		}
		h.raw(`</ul>`)
	})
}

func standingsTable(h *html, table GroupTable) {
	h.raw(`<section class="group"><h2>`)
	h.text(table.Group.Name)
	h.raw(`</h2><table><thead><tr><th>#</th><th>Player</th><th>P</th><th>W</th><th>D</th><th>L</th><th>GF</th><th>GA</th><th>GD</th><th>Pts</th></tr></thead><tbody>`)
	for _, s := range table.Standings {
		h.raw(`<tr><td>` + strconv.Itoa(s.Rank) + `</td><td>`)
		h.text(s.PlayerName)
		for _, n := range []int{s.Played, s.Wins, s.Draws, s.Losses, s.GoalsFor, s.GoalsAgainst, s.GoalDifference, s.Points} {
			h.raw(`</td><td>` + strconv.Itoa(n))
		}
		h.raw(`</td></tr>`)
	}
	h.raw(`</tbody></table>`)

	h.raw(`<ul class="fixtures">`)
	for _, card := range table.Matches {
		matchCard(h, card)
	}
	h.raw(`</ul></section>`)
}

func matchCard(h *html, card MatchCard) {
	h.raw(`<li class="match"`)
	h.attr("id", "match-"+card.ID)
	h.raw(`><span`)
	if card.WinnerSide == 1 {
		h.attr("class", "winner")
	}
	h.raw(`>`)
	h.text(card.Home)
	h.raw(`</span> <b>`)
	h.text(card.HomeScore + " : " + card.AwayScore)
	h.raw(`</b> <span`)
	if card.WinnerSide == 2 {
		h.attr("class", "winner")
	}
	h.raw(`>`)
	h.text(card.Away)
	h.raw(`</span></li>`)
}

func bracketView(h *html, columns []BracketColumn) {
	h.raw(`<section class="bracket">`)
	for _, column := range columns {
		h.raw(`<div class="round"><h3>`)
		h.text(column.Name)
		h.raw(`</h3><ul>`)
		for _, card := range column.Cards {
			matchCard(h, card)
		}
		h.raw(`</ul></div>`)
	}
	h.raw(`</section>`)
}

// TournamentView renders the standings, the bracket and, once decided, the champion.
// The page reloads itself whenever the live socket reports a change.
func TournamentView(data *service.TournamentData) templ.Component {
	return page(data.Tournament.Name, func(h *html) {
		h.raw(`<h1>`)
		h.text(data.Tournament.Name)
		h.raw(`</h1><p class="meta">`)
		if data.Tournament.Game != "" {
			h.text(data.Tournament.Game + " | ")
		}
		h.text(string(data.Tournament.Stage) + " | " + strconv.Itoa(len(data.Players)) + " players")
		h.raw(`</p>`)

		if data.Champion != nil {
			h.raw(`<p class="champion">Champion: `)
			h.text(data.Champion.Name)
			h.raw(`</p>`)
		}

		if len(data.Groups) == 0 {
			h.raw(`<ul class="players">`)
			for _, p := range data.Players {
				h.raw(`<li>`)
				h.text(SlotLabel(bracket.Resolved(p)))
				h.raw(`</li>`)
			}
			h.raw(`</ul>`)
		}
		for _, table := range PrepareGroupTables(data.Groups, data.Standings, data.Matches) {
			standingsTable(h, table)
		}

		if !data.Bracket.IsEmpty() {
			bracketView(h, PrepareBracketData(data.Bracket))
		}

		h.raw(`<script>new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws/tournaments/`)
		h.text(data.Tournament.ID.String())
		h.raw(`").onmessage = () => location.reload();</script>`)
	})
}
