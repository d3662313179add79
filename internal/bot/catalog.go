package bot

import (
	"math/rand/v2"
	"strconv"

	"github.com/torneiomaker/messenger-bot/internal/messenger"
)

// Quick reply payloads. The literals are part of the wire contract: they
// come back verbatim when a user taps a chip.
const (
	PayloadCreateUser       = "CREATE_USER"
	PayloadCreateTeam       = "CREATE_TEAM"
	PayloadCreateTournament = "CREATE_TOURNAMENT"
	PayloadJoinTeam         = "JOIN_TEAM"
	PayloadJoinTournament   = "JOIN_TOURNAMENT"
	PayloadNameOK           = "NAME_OK"
	PayloadNameFail         = "NAME_FAIL"
)

// Postback payloads registered through thread settings.
const (
	PayloadStart          = "START"
	PayloadMenuHelp       = "MENU_HELP"
	PayloadFindTournament = "FIND_TOURNMENT"
	PayloadFindTeam       = "FIND_TEAM"
)

// User-visible texts.
const (
	TextAskName            = "Vamos lá! Qual o seu  nome?"
	TextRetryName          = "Vamos tentar novamente, digite o seu nome. Plz!"
	TextNameConfirmed      = "Isso aí!!! Agora vamos para diversão."
	TextChoicePrefix       = "Voce escolheu, "
	TextQuickReplyTapped   = "Quick reply tapped"
	TextConfirmSuffix      = ", certo?"
	TextAttachmentReceived = "Message with attachment received"
	TextWelcomeMenu        = "Seja bem vindo! Selecione umas das opções para iniciarmos nossa jornada!"
	TextAuthSuccessful     = "Authentication successful"
	TextSummonerVerified   = "Verificamos com sucesso seu usuário"
	TextSummonerNotFound   = "Não conseguimos encontrar seu usuário, por favor digite novamente."
	TextGreeting           = "Olá {{user_first_name}}, seja bem vindo ao Torneio Maker Bot."
	TextLinkAccount        = "Welcome. Link your account."
)

// InfoPageURL is the page opened by the persistent menu info item.
const InfoPageURL = "https://www.facebook.com/Torneio-maker-bot-101132157069633/"

// WelcomeSummonerPrompt greets a user whose name was resolved and asks for the summoner name.
func WelcomeSummonerPrompt(name string) string {
	return "Hi " + name + ", seja bem vindo. Vamos começar pelo seu summoner name, digite-o por favor."
}

// Catalog builds the fixed replies. Asset URLs are rooted at the public
// server URL.
type Catalog struct {
	serverURL string
	orderID   func() int
}

// NewCatalog creates a catalog serving assets from serverURL.
func NewCatalog(serverURL string) *Catalog {
	return &Catalog{
		serverURL: serverURL,
		orderID:   func() int { return rand.IntN(1000) },
	}
}

func (c *Catalog) asset(name string) string {
	return c.serverURL + "/assets/" + name
}

// AuthorizeURL is the account linking landing page.
func (c *Catalog) AuthorizeURL() string {
	return c.serverURL + "/authorize"
}

// InitialMenu is the menu offered after the get started button.
func (c *Catalog) InitialMenu() messenger.Action {
	return messenger.QuickReplies(TextWelcomeMenu,
		messenger.TextReply("Criar usuário", PayloadCreateUser),
		messenger.TextReply("Criar time", PayloadCreateTeam),
		messenger.TextReply("Criar campeonato", PayloadCreateTournament),
		messenger.TextReply("Entrar time", PayloadJoinTeam),
		messenger.TextReply("Entrar campeonato", PayloadJoinTournament),
	)
}

// RepeatMenu is the menu offered once a user exists.
func (c *Catalog) RepeatMenu(text string) messenger.Action {
	return messenger.QuickReplies(text,
		messenger.TextReply("Criar time", PayloadCreateTeam),
		messenger.TextReply("Criar campeonato", PayloadCreateTournament),
		messenger.TextReply("Entrar time", PayloadJoinTeam),
		messenger.TextReply("Entrar campeonato", PayloadJoinTournament),
	)
}

// NameConfirmation asks the user to confirm a captured name.
func (c *Catalog) NameConfirmation(name string) messenger.Action {
	return messenger.QuickReplies(name+TextConfirmSuffix,
		messenger.TextReply("sim", PayloadNameOK),
		messenger.TextReply("não", PayloadNameFail),
	)
}

// SuccessImage is sent when a name is confirmed.
func (c *Catalog) SuccessImage() messenger.Action {
	return messenger.Image(c.asset("sucesso.jpg"))
}

func (c *Catalog) image() messenger.Action { return messenger.Image(c.asset("rift.png")) }
func (c *Catalog) gif() messenger.Action   { return messenger.Image(c.asset("instagram_logo.gif")) }
func (c *Catalog) audio() messenger.Action { return messenger.Audio(c.asset("sample.mp3")) }
func (c *Catalog) video() messenger.Action { return messenger.Video(c.asset("allofus480.mov")) }
func (c *Catalog) file() messenger.Action  { return messenger.File(c.asset("test.txt")) }

func (c *Catalog) button() messenger.Action {
	return messenger.Buttons("This is test text",
		messenger.Button{Type: messenger.ButtonWebURL, Title: "Open Web URL", URL: "https://www.oculus.com/en-us/rift/"},
		messenger.Button{Type: messenger.ButtonPostback, Title: "Trigger Postback", Payload: "DEVELOPER_DEFINED_PAYLOAD"},
		messenger.Button{Type: messenger.ButtonPhoneNumber, Title: "Call Phone Number", Payload: "+16505551234"},
	)
}

func (c *Catalog) generic() messenger.Action {
	return messenger.Generic(
		messenger.GenericElement{
			Title:    "rift",
			Subtitle: "Next-generation virtual reality",
			ItemURL:  "https://www.oculus.com/en-us/rift/",
			ImageURL: c.asset("rift.png"),
			Buttons: []messenger.Button{
				{Type: messenger.ButtonWebURL, Title: "Open Web URL", URL: "https://www.oculus.com/en-us/rift/"},
				{Type: messenger.ButtonPostback, Title: "Call Postback", Payload: "Payload for first bubble"},
			},
		},
		messenger.GenericElement{
			Title:    "touch",
			Subtitle: "Your Hands, Now in VR",
			ItemURL:  "https://www.oculus.com/en-us/touch/",
			ImageURL: c.asset("touch.png"),
			Buttons: []messenger.Button{
				{Type: messenger.ButtonWebURL, Title: "Open Web URL", URL: "https://www.oculus.com/en-us/touch/"},
				{Type: messenger.ButtonPostback, Title: "Call Postback", Payload: "Payload for second bubble"},
			},
		},
	)
}

func (c *Catalog) receipt() messenger.Action {
	return messenger.Receipt(messenger.ReceiptTemplate{
		RecipientName: "Peter Chang",
		OrderNumber:   "order" + strconv.Itoa(c.orderID()),
		Currency:      "USD",
		PaymentMethod: "Visa 1234",
		Timestamp:     "1428444852",
		Elements: []messenger.ReceiptElement{
			{
				Title:    "Oculus Rift",
				Subtitle: "Includes: headset, sensor, remote",
				Quantity: 1,
				Price:    599.00,
				Currency: "USD",
				ImageURL: c.asset("riftsq.png"),
			},
			{
				Title:    "Samsung Gear VR",
				Subtitle: "Frost White",
				Quantity: 1,
				Price:    99.99,
				Currency: "USD",
				ImageURL: c.asset("gearvrsq.png"),
			},
		},
		Address: &messenger.ReceiptAddress{
			Street1:    "1 Hacker Way",
			City:       "Menlo Park",
			PostalCode: "94025",
			State:      "CA",
			Country:    "US",
		},
		Summary: messenger.ReceiptSummary{
			Subtotal:     698.99,
			ShippingCost: 20.00,
			TotalTax:     57.67,
			TotalCost:    626.66,
		},
		Adjustments: []messenger.ReceiptAdjustment{
			{Name: "New Customer Discount", Amount: -50},
			{Name: "$100 Off Coupon", Amount: -100},
		},
	})
}

func (c *Catalog) movieGenres() messenger.Action {
	return messenger.QuickReplies("What's your favorite movie genre?",
		messenger.TextReply("Action", "DEVELOPER_DEFINED_PAYLOAD_FOR_PICKING_ACTION"),
		messenger.TextReply("Comedy", "DEVELOPER_DEFINED_PAYLOAD_FOR_PICKING_COMEDY"),
		messenger.TextReply("Drama", "DEVELOPER_DEFINED_PAYLOAD_FOR_PICKING_DRAMA"),
	)
}

func (c *Catalog) accountLinking() messenger.Action {
	return messenger.AccountLink(TextLinkAccount, c.AuthorizeURL())
}

// Keyword returns the demo reply for an exact, case-sensitive keyword.
func (c *Catalog) Keyword(text string) (messenger.Action, bool) {
	var build func() messenger.Action
	switch text {
	case "image":
		build = c.image
	case "gif":
		build = c.gif
	case "audio":
		build = c.audio
	case "video":
		build = c.video
	case "file":
		build = c.file
	case "button":
		build = c.button
	case "generic":
		build = c.generic
	case "receipt":
		build = c.receipt
	case "quick reply":
		build = c.movieGenres
	case "read receipt":
		build = messenger.MarkSeen
	case "typing on":
		build = messenger.TypingOn
	case "typing off":
		build = messenger.TypingOff
	case "account linking":
		build = c.accountLinking
	default:
		return messenger.Action{}, false
	}
	return build(), true
}

// ThreadSettings returns the get started button, greeting and persistent
// menu registered by the setup command, in that order.
func (c *Catalog) ThreadSettings() []messenger.ThreadSetting {
	return []messenger.ThreadSetting{
		{
			SettingType:   messenger.SettingCallToActions,
			ThreadState:   messenger.ThreadStateNew,
			CallToActions: []messenger.CallToAction{{Payload: PayloadStart}},
		},
		{
			SettingType: messenger.SettingGreeting,
			Greeting:    &messenger.Greeting{Text: TextGreeting},
		},
		{
			SettingType: messenger.SettingCallToActions,
			ThreadState: messenger.ThreadStateExisting,
			CallToActions: []messenger.CallToAction{
				{Type: messenger.ButtonPostback, Title: "Ajuda", Payload: PayloadMenuHelp},
				{Type: messenger.ButtonPostback, Title: "Encontrar Torneio", Payload: PayloadFindTournament},
				{Type: messenger.ButtonPostback, Title: "Encontrar Time", Payload: PayloadFindTeam},
				{
					Type:                messenger.ButtonWebURL,
					Title:               "informações",
					URL:                 InfoPageURL,
					WebviewHeightRatio:  "full",
					MessengerExtensions: true,
				},
			},
		},
	}
}
