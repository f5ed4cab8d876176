package assetpack

import (
	"fmt"
	"strings"
)

// Kind selects how content is decoded.
type Kind uint8

const (
	// KindBytes is raw content.
	KindBytes Kind = iota
	// KindImage is a still image decoded to pixels.
	KindImage
	// KindAnimation is an APNG composited into a playable sequence.
	KindAnimation
	// KindEffect is compiled shader or effect bytecode handed to the effect
	// factory.
	KindEffect
)

func (k Kind) String() string {
	switch k {
	case KindBytes:
		return "bytes"
	case KindImage:
		return "image"
	case KindAnimation:
		return "animation"
	case KindEffect:
		return "effect"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind parses the name returned by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bytes", "raw":
		return KindBytes, nil
	case "image":
		return KindImage, nil
	case "animation":
		return KindAnimation, nil
	case "effect", "shader":
		return KindEffect, nil
	default:
		return 0, fmt.Errorf("unknown asset kind %q", s)
	}
}
