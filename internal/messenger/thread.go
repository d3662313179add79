package messenger

// Thread setting types accepted by POST /me/thread_settings.
const (
	SettingGreeting      = "greeting"
	SettingCallToActions = "call_to_actions"

	ThreadStateNew      = "new_thread"
	ThreadStateExisting = "existing_thread"
)

// ThreadSetting is the body of POST /me/thread_settings. It configures the
// get started button, the greeting text or the persistent menu.
type ThreadSetting struct {
	SettingType   string         `json:"setting_type"`
	ThreadState   string         `json:"thread_state,omitempty"`
	Greeting      *Greeting      `json:"greeting,omitempty"`
	CallToActions []CallToAction `json:"call_to_actions,omitempty"`
}

// Greeting is shown before the user starts a conversation.
type Greeting struct {
	Text string `json:"text"`
}

// CallToAction is a get started payload or a persistent menu item.
type CallToAction struct {
	Type                string `json:"type,omitempty"`
	Title               string `json:"title,omitempty"`
	Payload             string `json:"payload,omitempty"`
	URL                 string `json:"url,omitempty"`
	WebviewHeightRatio  string `json:"webview_height_ratio,omitempty"`
	MessengerExtensions bool   `json:"messenger_extensions,omitempty"`
}
