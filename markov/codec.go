package markov

// Storage reserves map keys beginning with keyPrefix for its own metadata,
// and document stores reject operator-like field names outright, so tokens
// that begin with the prefix are escaped before use as keys. The escape
// byte cannot occur in user-authored text, which keeps the transform a
// two-sided inverse on every token the chain can see.
const (
	keyPrefix  = '$'
	escapeByte = '\x00'
)

// EncodeField escapes a token whose literal form would collide with the
// reserved key prefix. The empty boundary token passes through unchanged.
func EncodeField(token string) string {
	if len(token) > 0 && token[0] == keyPrefix {
		return string(escapeByte) + token
	}
	return token
}

// DecodeField reverses EncodeField.
func DecodeField(field string) string {
	if len(field) > 1 && field[0] == escapeByte && field[1] == keyPrefix {
		return field[1:]
	}
	return field
}
