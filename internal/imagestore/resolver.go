package imagestore

import (
	"errors"
	"fmt"

	"github.com/miracleos/notifyd/internal/hint"
	"github.com/miracleos/notifyd/internal/pixbuf"
)

// ErrNoImage means no image hint was present.
var ErrNoImage = errors.New("no image hint")

// Canonicalizer turns image payloads into canonical bytes.
type Canonicalizer interface {
	Canonicalize(raw pixbuf.Raw) ([]byte, error)
	CanonicalizeBlob(data []byte) ([]byte, error)
}

// Resolution is the outcome of resolving a record's image hints.
// Path is empty when there is no usable image; Err says why if a hint was present.
type Resolution struct {
	Key  string
	Path string
	Err  error
}

// OK reports whether an image path was resolved.
func (r Resolution) OK() bool {
	return r.Path != "" && r.Err == nil
}

type candidateKind int

const (
	inline candidateKind = iota
	reference
)

type candidate struct {
	kind candidateKind
	keys []string
}

// candidates in precedence order. Only the first present one is considered.
var candidates = []candidate{
	{kind: inline, keys: []string{hint.KeyImageData, hint.KeyImageDataLegacy}},
	{kind: reference, keys: []string{hint.KeyImagePath, hint.KeyImagePathLegacy}},
	{kind: inline, keys: []string{hint.KeyIconData}},
}

// Resolver picks the image hint of a notification and stores its content.
type Resolver struct {
	canon Canonicalizer
	store *Store
}

// NewResolver creates a resolver backed by canon and store.
func NewResolver(canon Canonicalizer, store *Store) *Resolver {
	return &Resolver{canon: canon, store: store}
}

// Resolve returns the path of the notification image. It never panics on bad
// input; failures come back in Resolution.Err with an empty Path.
func (r *Resolver) Resolve(hints hint.Map) Resolution {
	for _, c := range candidates {
		key, v, ok := hints.Lookup(c.keys...)
		if !ok {
			continue
		}

		res := Resolution{Key: key}
		switch c.kind {
		case reference:
			res.Path, res.Err = referencePath(v)
		case inline:
			res.Path, res.Err = r.storeInline(v)
		}
		if res.Err != nil {
			res.Path = ""
			res.Err = fmt.Errorf("%s: %w", key, res.Err)
		}
		return res
	}
	return Resolution{Err: ErrNoImage}
}

func referencePath(v hint.Value) (string, error) {
	s, ok := v.AsString()
	if !ok {
		return "", fmt.Errorf("expected string, got %s", v.Kind())
	}
	p := hint.StripFileScheme(s)
	if p == "" {
		return "", errors.New("empty path")
	}
	return p, nil
}

func (r *Resolver) storeInline(v hint.Value) (string, error) {
	var (
		data []byte
		err  error
	)
	switch v.Kind() {
	case hint.KindImage:
		raw, _ := v.AsImage()
		data, err = r.canon.Canonicalize(raw)
	case hint.KindBytes:
		blob, _ := v.AsBytes()
		data, err = r.canon.CanonicalizeBlob(blob)
	case hint.KindInvalid, hint.KindString, hint.KindInt, hint.KindBool:
		return "", fmt.Errorf("expected image data, got %s", v.Kind())
	}
	if err != nil {
		return "", err
	}
	return r.store.Put(data)
}
