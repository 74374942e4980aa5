package debugserver

import "github.com/vmihailenco/msgpack/v5"

// frame is the wire envelope pushed to every connected dashboard. Small
// and flat by design: there is no request/reply envelope here since the
// feed is one-directional.
type frame struct {
	Kind    string `msgpack:"kind" json:"kind"`
	Payload any    `msgpack:"payload" json:"payload"`
}

func encodeFrame(kind string, payload any) ([]byte, error) {
	return msgpack.Marshal(frame{Kind: kind, Payload: payload})
}
