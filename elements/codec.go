package elements

import (
	"encoding/json"
	"fmt"
)

// The wire shape is the editor's own: camelCase keys with a `type` discriminant.

func (t *Text) MarshalJSON() ([]byte, error) {
	type plain Text
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{KindText, (*plain)(t)})
}

func (i *Image) MarshalJSON() ([]byte, error) {
	type plain Image
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{KindImage, (*plain)(i)})
}

func (s *Shape) MarshalJSON() ([]byte, error) {
	type plain Shape
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{KindShape, (*plain)(s)})
}

func (p *Placeholder) MarshalJSON() ([]byte, error) {
	type plain Placeholder
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{KindPlaceholder, (*plain)(p)})
}

// UnmarshalElement decodes one element, dispatching on its `type`.
// An absent opacity decodes as fully opaque.
func UnmarshalElement(data []byte) (Element, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	var (
		e   Element
		err error
	)
	switch head.Type {
	case KindText:
		type plain Text
		v := &plain{Base: Base{Opacity: 1}}
		err = json.Unmarshal(data, v)
		e = (*Text)(v)
	case KindImage:
		type plain Image
		v := &plain{Base: Base{Opacity: 1}}
		err = json.Unmarshal(data, v)
		e = (*Image)(v)
	case KindShape:
		type plain Shape
		v := &plain{Base: Base{Opacity: 1}}
		err = json.Unmarshal(data, v)
		e = (*Shape)(v)
	case KindPlaceholder:
		type plain Placeholder
		v := &plain{Base: Base{Opacity: 1}}
		err = json.Unmarshal(data, v)
		e = (*Placeholder)(v)
	default:
		return nil, fmt.Errorf("unknown element type %q", head.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s element: %w", head.Type, err)
	}
	return e, nil
}

func (l *List) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	if raws == nil {
		*l = nil
		return nil
	}
	out := make(List, 0, len(raws))
	for i, raw := range raws {
		e, err := UnmarshalElement(raw)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, e)
	}
	*l = out
	return nil
}
