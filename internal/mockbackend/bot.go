package mockbackend

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tanmayyjais/hostelMate-frontend/internal/nlu"
)

type intent struct {
	name     string
	keywords []string
	reply    string
}

// Ordered from least to most specific.
var intents = []intent{
	{"greeting", []string{"hello", "hi", "hey", "namaste"},
		"Hi! Ask me about mess timings, gate passes, fees, complaints, rooms or campus facilities."},
	{"thanks", []string{"thanks", "thank you", "thx"},
		"You're welcome! Anything else?"},
	{"facilities", []string{"facilities", "facility", "campus", "library", "gym", "wifi", "wi-fi", "sports"},
		"Campus facilities include the central library, a gym, sports grounds and Wi-Fi in every hostel block."},
	{"room", []string{"room", "roommate", "allotment", "allot", "shift"},
		"Room allotment is handled by the academic staff. Your current allotment is shown in the Room section."},
	{"mess", []string{"mess", "breakfast", "lunch", "dinner", "snacks", "food", "menu"},
		"Mess timings: breakfast 7:30-9:30, lunch 12:30-14:00, snacks 17:00-18:00 and dinner 20:00-21:30."},
	{"fees", []string{"fee", "fees", "receipt", "payment", "pay"},
		"Upload your fee receipt under Receipts. The office verifies it within two working days."},
	{"gate_pass", []string{"gate pass", "gatepass", "outing", "leave", "home"},
		"Apply for a gate pass from the Gate Pass section. The hostel office approves it before you leave."},
	{"health", []string{"doctor", "health", "medical", "sick", "fever", "medicine"},
		"The health centre is open 9:00-17:00 on weekdays. In an emergency call the warden on duty."},
	{"complaint", []string{"complaint", "repair", "broken", "fan", "light", "tap", "leak", "electric", "electrical", "plumbing"},
		"Raise a complaint from the Complaints section and pick the department. Department staff will update its status."},
}

// Bot is a keyword-matching stand-in for the assistant service. Unmatched
// utterances get an empty reply.
type Bot struct {
	log *slog.Logger

	mu    sync.Mutex
	turns map[string]int
}

// NewBot creates a Bot.
func NewBot(logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{log: logger, turns: make(map[string]int)}
}

// RecognizeText answers one turn.
func (b *Bot) RecognizeText(_ context.Context, req *nlu.Request) (*nlu.Response, error) {
	if req == nil || strings.TrimSpace(req.Text) == "" {
		return nil, status.Error(codes.InvalidArgument, "text is required")
	}
	if req.BotID == "" || req.BotAliasID == "" || req.SessionID == "" {
		return nil, status.Error(codes.InvalidArgument, "botId, botAliasId and sessionId are required")
	}

	b.mu.Lock()
	b.turns[req.SessionID]++
	turn := b.turns[req.SessionID]
	b.mu.Unlock()

	in, ok := match(req.Text)
	b.log.Debug("bot turn", "session_id", req.SessionID, "turn", turn, "intent", in.name, "matched", ok)
	if !ok {
		return &nlu.Response{}, nil
	}
	return &nlu.Response{Messages: []nlu.Segment{{Content: in.reply, ContentType: "PlainText"}}}, nil
}

// Turns returns how many turns sessionID has taken.
func (b *Bot) Turns(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.turns[sessionID]
}

func match(text string) (intent, bool) {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	padded := " " + strings.Join(words, " ") + " "

	// Search from the end so specific intents win over the greeting.
	for i := len(intents) - 1; i >= 0; i-- {
		for _, kw := range intents[i].keywords {
			if strings.Contains(padded, " "+kw+" ") {
				return intents[i], true
			}
		}
	}
	return intent{}, false
}
