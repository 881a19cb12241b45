package core

const (
	// JWSSegments is the segment count of a compact signed token.
	JWSSegments = 3

	// JWESegments is the segment count of a compact encrypted token.
	JWESegments = 5

	// MaxTokenLength bounds the size of a compact token accepted by the parser.
	MaxTokenLength = 256 << 10

	// TokenType is the only typ value written by the engine.
	TokenType = "JWT"
)

// Header is the protected JOSE header. Field order is fixed so the encoded
// header is deterministic for identical inputs.
type Header struct {
	Typ string `json:"typ,omitempty"`
	Alg string `json:"alg"`
	Enc string `json:"enc,omitempty"`
}
