package remote

// Message types on the bridge socket
const (
	// page to host
	msgReady = "ready"
	msgCall  = "call"

	// host to page
	msgEval     = "eval"
	msgReturn   = "return"
	msgBind     = "bind"
	msgTitle    = "title"
	msgNavigate = "navigate"
	msgResize   = "resize"
)

// inbound is any message sent by the page
type inbound struct {
	Type string `json:"type"`
	Seq  string `json:"seq,omitempty"`
	Name string `json:"name,omitempty"`
	Req  string `json:"req,omitempty"`
}

type evalMsg struct {
	Type string `json:"type"`
	JS   string `json:"js"`
}

type returnMsg struct {
	Type   string `json:"type"`
	Seq    string `json:"seq"`
	Status int    `json:"status"`
	Result string `json:"result"`
}

type bindMsg struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type titleMsg struct {
	Type  string `json:"type"`
	Title string `json:"title"`
}

type navigateMsg struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type resizeMsg struct {
	Type   string `json:"type"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Hint   string `json:"hint"`
}
