package models

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// OperatorKeyKind tags which operator-derived value a record carries.
type OperatorKeyKind int

const (
	OperatorKeyNone OperatorKeyKind = iota
	OperatorKeyOP
	OperatorKeyOPc
)

func (k OperatorKeyKind) String() string {
	switch k {
	case OperatorKeyOP:
		return "OP"
	case OperatorKeyOPc:
		return "OPc"
	default:
		return "none"
	}
}

// Field is the document key the value is stored under.
func (k OperatorKeyKind) Field() string {
	switch k {
	case OperatorKeyOP:
		return "op"
	case OperatorKeyOPc:
		return "opc"
	default:
		return ""
	}
}

// OperatorKey holds either OP or OPc, never both.
type OperatorKey struct {
	Kind  OperatorKeyKind
	Value string
}

func OP(value string) OperatorKey {
	return OperatorKey{Kind: OperatorKeyOP, Value: value}
}

func OPc(value string) OperatorKey {
	return OperatorKey{Kind: OperatorKeyOPc, Value: value}
}

type Security struct {
	K        string
	AMF      string
	Operator OperatorKey
}

// securityDoc is the stored shape: the unused operator field is written as null.
type securityDoc struct {
	K   string  `bson:"k"`
	AMF string  `bson:"amf"`
	OP  *string `bson:"op"`
	OPc *string `bson:"opc"`
}

func (s Security) MarshalBSON() ([]byte, error) {
	doc := securityDoc{K: s.K, AMF: s.AMF}
	value := s.Operator.Value
	switch s.Operator.Kind {
	case OperatorKeyOP:
		doc.OP = &value
	case OperatorKeyOPc:
		doc.OPc = &value
	default:
		return nil, fmt.Errorf("%w: security needs one of op or opc", ErrInvalidRecord)
	}
	return bson.Marshal(doc)
}

func (s *Security) UnmarshalBSON(data []byte) error {
	var doc securityDoc
	if err := bson.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decoding security: %w", err)
	}

	switch {
	case doc.OP != nil && doc.OPc != nil:
		return fmt.Errorf("%w: security carries both op and opc", ErrCorruptRecord)
	case doc.OP != nil:
		s.Operator = OP(*doc.OP)
	case doc.OPc != nil:
		s.Operator = OPc(*doc.OPc)
	default:
		return fmt.Errorf("%w: security carries neither op nor opc", ErrCorruptRecord)
	}
	s.K = doc.K
	s.AMF = doc.AMF
	return nil
}
