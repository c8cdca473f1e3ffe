package notify

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/miracleos/notifyd/internal/hint"
	"github.com/miracleos/notifyd/internal/pixbuf"
)

// rawImage marshals as the (iiibiiay) struct.
type rawImage struct {
	Width         int32
	Height        int32
	RowStride     int32
	HasAlpha      bool
	BitsPerSample int32
	Channels      int32
	Data          []byte
}

// hintsFromDBus converts the a{sv} hints argument. Values of a type no
// hint can carry are reported in skipped and left out of the map.
func hintsFromDBus(in map[string]dbus.Variant) (out hint.Map, skipped []string) {
	out = make(hint.Map, len(in))
	for key, variant := range in {
		v, err := valueFromDBus(variant.Value())
		if err != nil {
			skipped = append(skipped, key)
			continue
		}
		out[key] = v
	}
	return out, skipped
}

func valueFromDBus(raw any) (hint.Value, error) {
	switch v := raw.(type) {
	case string:
		return hint.String(v), nil
	case dbus.ObjectPath:
		return hint.String(string(v)), nil
	case bool:
		return hint.Bool(v), nil
	case byte:
		return hint.Int(int64(v)), nil
	case int16:
		return hint.Int(int64(v)), nil
	case uint16:
		return hint.Int(int64(v)), nil
	case int32:
		return hint.Int(int64(v)), nil
	case uint32:
		return hint.Int(int64(v)), nil
	case int64:
		return hint.Int(v), nil
	case uint64:
		return hint.Int(int64(v)), nil
	case []byte:
		return hint.Bytes(v), nil
	case []any:
		raw, err := imageFromStruct(v)
		if err != nil {
			return hint.Value{}, err
		}
		return hint.Image(raw), nil
	case rawImage:
		return hint.Image(pixbuf.Raw(v)), nil
	default:
		return hint.Value{}, fmt.Errorf("unsupported hint type %T", raw)
	}
}

// imageFromStruct unpacks a (iiibiiay) struct as decoded by godbus.
func imageFromStruct(fields []any) (pixbuf.Raw, error) {
	var raw pixbuf.Raw
	if len(fields) != 7 {
		return raw, fmt.Errorf("image struct has %d fields, want 7", len(fields))
	}

	ints := []*int32{&raw.Width, &raw.Height, &raw.RowStride, nil, &raw.BitsPerSample, &raw.Channels}
	for i, dst := range ints {
		if dst == nil {
			continue
		}
		n, ok := fields[i].(int32)
		if !ok {
			return raw, fmt.Errorf("image field %d is %T, want int32", i, fields[i])
		}
		*dst = n
	}

	alpha, ok := fields[3].(bool)
	if !ok {
		return raw, fmt.Errorf("image field 3 is %T, want bool", fields[3])
	}
	raw.HasAlpha = alpha

	data, ok := fields[6].([]byte)
	if !ok {
		return raw, fmt.Errorf("image field 6 is %T, want []byte", fields[6])
	}
	raw.Data = data

	return raw, nil
}

// hintsToDBus is the client-side inverse of hintsFromDBus. Urgency is
// sent as a byte, the type servers expect.
func hintsToDBus(in hint.Map) map[string]dbus.Variant {
	out := make(map[string]dbus.Variant, len(in))
	for key, v := range in {
		switch v.Kind() {
		case hint.KindString:
			s, _ := v.AsString()
			out[key] = dbus.MakeVariant(s)
		case hint.KindBool:
			b, _ := v.AsBool()
			out[key] = dbus.MakeVariant(b)
		case hint.KindInt:
			n, _ := v.AsInt()
			if key == hint.KeyUrgency {
				out[key] = dbus.MakeVariant(byte(n))
			} else {
				out[key] = dbus.MakeVariant(int32(n))
			}
		case hint.KindBytes:
			p, _ := v.AsBytes()
			out[key] = dbus.MakeVariant(p)
		case hint.KindImage:
			raw, _ := v.AsImage()
			out[key] = dbus.MakeVariant(rawImage(raw))
		}
	}
	return out
}
