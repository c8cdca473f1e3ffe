// Package hint models the typed values of a notification's hints dictionary.
package hint

import (
	"strings"

	"github.com/miracleos/notifyd/internal/pixbuf"
)

// Well-known hint keys.
const (
	KeyUrgency      = "urgency"
	KeyDesktopEntry = "desktop-entry"
	KeyImageData    = "image-data"
	KeyImagePath    = "image-path"
	KeyIconData     = "icon_data"

	// Spellings from protocol 1.1, still sent by older clients.
	KeyImageDataLegacy = "image_data"
	KeyImagePathLegacy = "image_path"
)

// Kind identifies which field of a Value is set.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindInt
	KindBool
	KindBytes
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindBytes:
		return "bytes"
	case KindImage:
		return "image"
	case KindInvalid:
	}
	return "invalid"
}

// Value is a tagged variant. The zero Value is KindInvalid.
type Value struct {
	kind  Kind
	str   string
	num   int64
	flag  bool
	bytes []byte
	image pixbuf.Raw
}

func String(s string) Value      { return Value{kind: KindString, str: s} }
func Int(n int64) Value          { return Value{kind: KindInt, num: n} }
func Bool(b bool) Value          { return Value{kind: KindBool, flag: b} }
func Bytes(p []byte) Value       { return Value{kind: KindBytes, bytes: p} }
func Image(raw pixbuf.Raw) Value { return Value{kind: KindImage, image: raw} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }
func (v Value) AsInt() (int64, bool)     { return v.num, v.kind == KindInt }
func (v Value) AsBool() (bool, bool)     { return v.flag, v.kind == KindBool }
func (v Value) AsBytes() ([]byte, bool)  { return v.bytes, v.kind == KindBytes }

func (v Value) AsImage() (pixbuf.Raw, bool) { return v.image, v.kind == KindImage }

// IsInlineImage reports whether the value carries image content rather than a reference.
func (v Value) IsInlineImage() bool {
	return v.kind == KindImage || v.kind == KindBytes
}

// Urgency is the notification priority level.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Map is the hints dictionary.
type Map map[string]Value

// Lookup returns the first present key.
func (m Map) Lookup(keys ...string) (string, Value, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return k, v, true
		}
	}
	return "", Value{}, false
}

// Urgency returns the urgency hint, defaulting to UrgencyNormal when missing or not numeric.
func (m Map) Urgency() Urgency {
	n, ok := m[KeyUrgency].AsInt()
	if !ok || n < 0 || n > int64(UrgencyCritical) {
		return UrgencyNormal
	}
	return Urgency(n)
}

// DesktopEntry returns the desktop-entry hint if set to a string.
func (m Map) DesktopEntry() (string, bool) {
	return m[KeyDesktopEntry].AsString()
}

// ImagePath returns the image-path hint with any file:// scheme removed.
func (m Map) ImagePath() (string, bool) {
	_, v, ok := m.Lookup(KeyImagePath, KeyImagePathLegacy)
	if !ok {
		return "", false
	}
	s, ok := v.AsString()
	if !ok {
		return "", false
	}
	return StripFileScheme(s), true
}

// WithoutInlineImages returns a copy without the image content hints.
// Path hints are kept.
func (m Map) WithoutInlineImages() Map {
	out := make(Map, len(m))
	for k, v := range m {
		switch k {
		case KeyImageData, KeyImageDataLegacy, KeyIconData:
			if v.IsInlineImage() {
				continue
			}
		}
		out[k] = v
	}
	return out
}

// StripFileScheme removes a leading file:// from a path or URI.
func StripFileScheme(s string) string {
	return strings.TrimPrefix(s, "file://")
}
