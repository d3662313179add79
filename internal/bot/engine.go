package bot

import (
	"strings"

	"github.com/torneiomaker/messenger-bot/internal/conversation"
	"github.com/torneiomaker/messenger-bot/internal/lolapi"
	"github.com/torneiomaker/messenger-bot/internal/messenger"
)

// LookupKind selects the outbound lookup a decision asks for.
type LookupKind int

const (
	// LookupProfile fetches the user's first name from the platform.
	LookupProfile LookupKind = iota + 1
	// LookupSummoner resolves Handle against the stats service.
	LookupSummoner
)

func (k LookupKind) String() string {
	switch k {
	case LookupProfile:
		return "profile"
	case LookupSummoner:
		return "summoner"
	}
	return "none"
}

// Lookup is a request to run an outbound lookup and feed its outcome back
// through ApplyFirstName or ApplySummoner.
type Lookup struct {
	Kind   LookupKind
	Handle string
}

// Decision is the outcome of one engine step: the next profile, the
// actions to send in order and an optional lookup to run afterwards.
type Decision struct {
	Profile conversation.Profile
	Actions []messenger.Action
	Lookup  *Lookup
}

// Engine is the conversation state machine. It performs no I/O.
type Engine struct {
	catalog *Catalog
}

// NewEngine creates an engine replying with catalog content.
func NewEngine(catalog *Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// Handle decides the reply to ev for a user currently in state p.
func (e *Engine) Handle(p conversation.Profile, ev Event) Decision {
	switch ev := ev.(type) {
	case QuickReply:
		return e.handleQuickReply(p, ev.Payload)
	case Message:
		return e.handleMessage(p, ev)
	case Postback:
		if ev.Payload == PayloadStart {
			return reply(p, e.catalog.InitialMenu())
		}
		return reply(p, messenger.Text(ev.Payload))
	case Optin:
		return reply(p, messenger.Text(TextAuthSuccessful))
	}
	// Echoes, receipts and account links are observed only.
	return Decision{Profile: p}
}

func (e *Engine) handleQuickReply(p conversation.Profile, payload string) Decision {
	switch payload {
	case PayloadCreateUser:
		return reply(p, messenger.Text(TextAskName))

	case PayloadNameFail:
		p.DisplayName = ""
		p.PendingName = ""
		p.SummonerHandle = ""
		p.Stage = conversation.StageAwaitingName
		return reply(p, messenger.Text(TextRetryName))

	case PayloadNameOK:
		d := reply(p, e.catalog.SuccessImage(), e.catalog.RepeatMenu(TextNameConfirmed))
		if !p.HasName() {
			d.Lookup = &Lookup{Kind: LookupProfile}
		}
		return d

	case PayloadCreateTeam, PayloadCreateTournament, PayloadJoinTeam:
		return reply(p, messenger.Text(TextChoicePrefix+payload))
	}
	return reply(p, messenger.Text(TextQuickReplyTapped))
}

func (e *Engine) handleMessage(p conversation.Profile, msg Message) Decision {
	if msg.Text == "" {
		if len(msg.Attachments) > 0 {
			return reply(p, messenger.Text(TextAttachmentReceived))
		}
		return Decision{Profile: p}
	}

	// Name capture takes priority over every keyword until a name is recorded.
	if !p.HasName() {
		p.PendingName = msg.Text
		p.Stage = conversation.StageAwaitingNameConfirmation
		return reply(p, e.catalog.NameConfirmation(msg.Text))
	}

	if !p.HasSummoner() {
		return Decision{Profile: p, Lookup: &Lookup{Kind: LookupSummoner, Handle: msg.Text}}
	}

	if action, ok := e.catalog.Keyword(msg.Text); ok {
		return reply(p, action)
	}
	return reply(p, messenger.Text(msg.Text))
}

// ApplyFirstName records the first name returned by the profile lookup.
// An empty name falls back to the pending name the user typed. With no
// usable name, or when a display name is already set, nothing changes.
func (e *Engine) ApplyFirstName(p conversation.Profile, firstName string) Decision {
	if p.HasName() {
		return Decision{Profile: p}
	}
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = strings.TrimSpace(p.PendingName)
	}
	if name == "" {
		return Decision{Profile: p}
	}

	p.DisplayName = name
	p.PendingName = ""
	p.Stage = conversation.StageAwaitingSummonerName
	return reply(p, messenger.Text(WelcomeSummonerPrompt(name)))
}

// ApplySummoner records the stats lookup outcome. A miss re-prompts for
// the same field without advancing.
func (e *Engine) ApplySummoner(p conversation.Profile, res lolapi.Result) Decision {
	if !res.Found {
		return reply(p, messenger.Text(TextSummonerNotFound))
	}
	p.SummonerHandle = res.Name
	p.Stage = conversation.StageReady
	return reply(p, e.catalog.RepeatMenu(TextSummonerVerified))
}

func reply(p conversation.Profile, actions ...messenger.Action) Decision {
	return Decision{Profile: p, Actions: actions}
}
