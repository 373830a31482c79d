package models

import "fmt"

const DefaultSQN = "000000000000"

// Credential is the row an AKA-only authentication server keeps per
// subscriber.
type Credential struct {
	IMSI string `db:"imsi"`
	Ki   string `db:"ki"`
	Opc  string `db:"opc"`
	SQN  string `db:"sqn"`
	AMF  string `db:"amf"`
}

// CredentialFromSubscriber requires the record to carry OPc; callers holding
// only OP derive it first.
func CredentialFromSubscriber(sub Subscriber) (Credential, error) {
	if sub.Security.Operator.Kind != OperatorKeyOPc {
		return Credential{}, fmt.Errorf("%w: credential mirror needs opc, record has %s",
			ErrInvalidRecord, sub.Security.Operator.Kind)
	}
	return Credential{
		IMSI: sub.IMSI,
		Ki:   sub.Security.K,
		Opc:  sub.Security.Operator.Value,
		SQN:  DefaultSQN,
		AMF:  sub.Security.AMF,
	}, nil
}
