package tokenize

// Kind namespaces tokens. The kind name is the token prefix, so tokens of
// different kinds can never collide as literal strings.
type Kind string

const (
	KindAccount     Kind = "Account"
	KindInstitution Kind = "Institution"
	KindMerchant    Kind = "Merchant"
	KindSecurity    Kind = "Security"
	KindLiability   Kind = "Liability"

	// KindEntity holds anything tokenized under an unsupported kind.
	KindEntity Kind = "Entity"
)

// Field names of the natural key, per kind, in key order.
const (
	FieldName        = "name"
	FieldInstitution = "institution"
	FieldTicker      = "ticker"
	FieldType        = "type"
)

var schemas = map[Kind][]string{
	KindAccount:     {FieldName, FieldInstitution},
	KindInstitution: {FieldName},
	KindMerchant:    {FieldName},
	KindSecurity:    {FieldName, FieldTicker, FieldType},
	KindLiability:   {FieldName, FieldType, FieldInstitution},
}

// Kinds lists the supported kinds in a stable order.
func Kinds() []Kind {
	return []Kind{KindAccount, KindInstitution, KindMerchant, KindSecurity, KindLiability}
}

// Fields returns the natural key field names for k. Unknown kinds key on a single name.
func (k Kind) Fields() []string {
	if f, ok := schemas[k]; ok {
		return f
	}
	return []string{FieldName}
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	_, ok := schemas[k]
	return ok
}
