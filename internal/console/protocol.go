// Package console implements the session-based JSON/WebSocket protocol
// toward the lighting console (spec.md §4.6-§4.7, C6/C7), grounded on
// original_source/src/ma_connection/{requests.rs, responses.rs, objects.rs}
// and the gorilla/websocket client idiom in
// other_examples/45fa9c5b_chrisuthe-SendspinDroid.
package console

// Outbound button position codes (original_source/ma_interface/requests.rs).
const (
	buttonIDTop    = 2
	buttonIDMid    = 1
	buttonIDBottom = 0
)

// sessionRequest is the lone request with no requestType discriminator:
// {session: 0} asks the server to assign a new session id.
type sessionRequest struct {
	Session int32 `json:"session"`
}

// keepAliveRequest re-sends the assigned session id to hold it open.
type keepAliveRequest struct {
	Session int32 `json:"session"`
}

type loginRequest struct {
	RequestType string `json:"requestType"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	Session     int32  `json:"session"`
	MaxRequests int32  `json:"maxRequests"`
}

// newLoginRequest builds the login frame. password must already be the
// MD5-hex digest of the plaintext (spec.md §6).
func newLoginRequest(session int32, username, passwordMD5Hex string) loginRequest {
	return loginRequest{
		RequestType: "login",
		Username:    username,
		Password:    passwordMD5Hex,
		Session:     session,
		MaxRequests: 10,
	}
}

type playbacksRequest struct {
	RequestType        string   `json:"requestType"`
	StartIndex         []uint32 `json:"startIndex"`
	ItemsCount         []uint32 `json:"itemsCount"`
	PageIndex          uint32   `json:"pageIndex"`
	ItemsType          []uint32 `json:"itemsType"`
	View               int      `json:"view"`
	ExecButtonViewMode int      `json:"execButtonViewMode"`
	ButtonsViewMode    int      `json:"buttonsViewMode"`
	Session            int32    `json:"session"`
}

// pollItemsCount is the fixed executor count requested by every fader poll.
const pollItemsCount = 10

// newPlaybacksRequest builds the fader-value poll request. page_index is
// hard-coded to 0 throughout; multi-page behavior is out of scope
// (spec.md §9).
func newPlaybacksRequest(session int32) playbacksRequest {
	return playbacksRequest{
		RequestType:        "playbacks",
		StartIndex:         []uint32{0},
		ItemsCount:         []uint32{pollItemsCount},
		PageIndex:          0,
		ItemsType:          []uint32{2},
		View:               2,
		ExecButtonViewMode: 2,
		ButtonsViewMode:    0,
		Session:            session,
	}
}

type faderInputRequest struct {
	RequestType string  `json:"requestType"`
	ExecIndex   uint8   `json:"execIndex"`
	PageIndex   uint32  `json:"pageIndex"`
	FaderValue  float32 `json:"faderValue"`
	Type        int     `json:"type"`
	Session     int32   `json:"session"`
}

func newFaderInputRequest(session int32, execIndex uint8, normalized float32) faderInputRequest {
	return faderInputRequest{
		RequestType: "playbacks_userInput",
		ExecIndex:   execIndex,
		PageIndex:   0,
		FaderValue:  normalized,
		Type:        1,
		Session:     session,
	}
}

type buttonInputRequest struct {
	RequestType string `json:"requestType"`
	ExecIndex   uint8  `json:"execIndex"`
	PageIndex   uint32 `json:"pageIndex"`
	Cmdline     string `json:"cmdline"`
	ButtonID    uint8  `json:"buttonId"`
	Pressed     bool   `json:"pressed"`
	Released    bool   `json:"released"`
	Type        int    `json:"type"`
	Session     int32  `json:"session"`
}

// ButtonPosition mirrors config.ButtonPosition without importing internal
// config into the wire layer; the bridge translates between the two.
type ButtonPosition int

const (
	PositionTop ButtonPosition = iota
	PositionMid
	PositionBottom
)

func newButtonInputRequest(session int32, execIndex uint8, pressed bool, position ButtonPosition) buttonInputRequest {
	var id uint8
	switch position {
	case PositionTop:
		id = buttonIDTop
	case PositionMid:
		id = buttonIDMid
	case PositionBottom:
		id = buttonIDBottom
	}
	return buttonInputRequest{
		RequestType: "playbacks_userInput",
		ExecIndex:   execIndex,
		PageIndex:   0,
		Cmdline:     "",
		ButtonID:    id,
		Pressed:     pressed,
		Released:    !pressed,
		Type:        0,
		Session:     session,
	}
}

// responseEnvelope is tried first against every inbound text frame to read
// its discriminator, if any.
type responseEnvelope struct {
	ResponseType string `json:"responseType"`
}

// sessionIDResponse is the one untyped reply. The server is observed to
// sometimes duplicate the forceLogin/worldIndex keys in the object;
// encoding/json already keeps the last occurrence of a duplicate key, so no
// extra sanitization is needed here (unlike the Rust original).
type sessionIDResponse struct {
	Realtime    bool  `json:"realtime"`
	Session     int32 `json:"session"`
	ForceLogin  *bool `json:"forceLogin"`
	WorldIndex  *int32 `json:"worldIndex"`
}

type loginResponse struct {
	Realtime     bool    `json:"realtime"`
	ResponseType string  `json:"responseType"`
	Result       bool    `json:"result"`
	Prompt       *string `json:"prompt"`
	PromptColor  *string `json:"promptcolor"`
	WorldIndex   *int32  `json:"worldIndex"`
}

type playbacksResponse struct {
	Realtime        bool        `json:"realtime"`
	ResponseType    string      `json:"responseType"`
	ResponseSubType int32       `json:"responseSubType"`
	IPage           int32       `json:"iPage"`
	ItemGroups      []itemGroup `json:"itemGroups"`
	WorldIndex      *int32      `json:"worldIndex"`
}

type itemGroup struct {
	ItemsType int32         `json:"itemsType"`
	CntPages  int32         `json:"cntPages"`
	Items     [][]executor  `json:"items"`
}

type executor struct {
	TextColor            string          `json:"bC"`
	BackgroundColor      string          `json:"bdC"`
	CombinedExecutorBlocks int32         `json:"combinedItems"`
	IExec                int32           `json:"iExec"`
	IsRun                int32           `json:"isRun"`
	ExecutorBlocks       []executorBlock `json:"executorBlocks"`
}

type executorBlock struct {
	Button1 button `json:"button1"`
	Button2 button `json:"button2"`
	Button3 button `json:"button3"`
	Fader   fader  `json:"fader"`
}

type fader struct {
	Value float32 `json:"v"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

type button struct {
	ID      int32  `json:"id"`
	Type    string `json:"t"`
	Pressed bool   `json:"s"`
}

// faderValues flattens a playbacks response into the ordered sequence of
// executor_blocks[*].fader.v, the only field the poll loop consumes
// (spec.md §4.6: "buttons' reported press state is presently ignored").
func (r playbacksResponse) faderValues() []float32 {
	var out []float32
	for _, group := range r.ItemGroups {
		for _, execs := range group.Items {
			for _, e := range execs {
				for _, block := range e.ExecutorBlocks {
					out = append(out, block.Fader.Value)
				}
			}
		}
	}
	return out
}
