package hint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/miracleos/notifyd/internal/pixbuf"
)

// Scalars encode as plain JSON values so state files written by the legacy
// daemon load unchanged. Binary values are wrapped in a single-key object.
type bytesJSON struct {
	Bytes []byte `json:"bytes"`
}

type imageJSON struct {
	Image *pixbuf.Raw `json:"image"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindInt:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.flag)
	case KindBytes:
		return json.Marshal(bytesJSON{Bytes: v.bytes})
	case KindImage:
		img := v.image
		return json.Marshal(imageJSON{Image: &img})
	case KindInvalid:
	}
	return []byte("null"), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("hint: empty value")
	}

	switch data[0] {
	case 'n':
		*v = Value{}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
		return nil
	case '{':
		return v.unmarshalObject(data)
	case '[':
		return fmt.Errorf("hint: arrays are not supported")
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*v = Int(i)
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return err
	}
	*v = Int(int64(math.Trunc(f)))
	return nil
}

func (v *Value) unmarshalObject(data []byte) error {
	var shape map[string]json.RawMessage
	if err := json.Unmarshal(data, &shape); err != nil {
		return err
	}

	if _, ok := shape["image"]; ok {
		var img imageJSON
		if err := json.Unmarshal(data, &img); err != nil {
			return err
		}
		if img.Image == nil {
			*v = Value{}
			return nil
		}
		*v = Image(*img.Image)
		return nil
	}
	if _, ok := shape["bytes"]; ok {
		var b bytesJSON
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bytes(b.Bytes)
		return nil
	}
	return fmt.Errorf("hint: unknown object value")
}

// UnmarshalJSON drops null entries.
func (m *Map) UnmarshalJSON(data []byte) error {
	var raw map[string]Value
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Map, len(raw))
	for k, v := range raw {
		if v.kind == KindInvalid {
			continue
		}
		out[k] = v
	}
	*m = out
	return nil
}
