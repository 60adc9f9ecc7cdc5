package sipbridge

// NCCO actions for inbound call control. Only the three shapes this
// service emits are modeled.

type TalkAction struct {
	Action string `json:"action"`
	Text   string `json:"text"`
}

type PhoneEndpoint struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type ConnectAction struct {
	Action   string          `json:"action"`
	From     string          `json:"from,omitempty"`
	Endpoint []PhoneEndpoint `json:"endpoint"`
}

type ConversationAction struct {
	Action       string `json:"action"`
	Name         string `json:"name"`
	StartOnEnter bool   `json:"startOnEnter"`
	EndOnExit    bool   `json:"endOnExit"`
}

const inboundGreeting = "Welcome. Connecting you to the conference now."

// InboundRouting decides how an inbound telephony leg is handled. Pure:
// the result depends only on the arguments.
//
// A target number short-circuits everything into a single connect
// action. Otherwise the caller joins the named conference, preceded by a
// spoken greeting unless the leg originated from the platform's own SIP
// connector.
func InboundRouting(conversationName string, fromConnector bool, targetNumber, conferenceNumber string) []any {
	if targetNumber != "" {
		return []any{ConnectAction{
			Action:   "connect",
			From:     conferenceNumber,
			Endpoint: []PhoneEndpoint{{Type: "phone", Number: targetNumber}},
		}}
	}

	var actions []any
	if !fromConnector {
		actions = append(actions, TalkAction{Action: "talk", Text: inboundGreeting})
	}
	actions = append(actions, ConversationAction{
		Action:       "conversation",
		Name:         conversationName,
		StartOnEnter: true,
		EndOnExit:    false,
	})
	return actions
}
