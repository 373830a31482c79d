package models

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subscriber is one Open5GS subscriber document. Field names and nesting
// follow the collection schema read by the core network functions.
type Subscriber struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	IMSI      string             `bson:"imsi"`
	MSISDN    []string           `bson:"msisdn"`
	IMEISV    string             `bson:"imeisv"`
	MMEHost   string             `bson:"mme_host"`
	MMERealm  string             `bson:"mme_realm"`
	PurgeFlag []bool             `bson:"purge_flag"`
	Security  Security           `bson:"security"`
	AMBR      AMBR               `bson:"ambr"`
	Slices    []Slice            `bson:"slice"`
}

type BitrateUnit int32

const (
	UnitBps BitrateUnit = iota
	UnitKbps
	UnitMbps
	UnitGbps
	UnitTbps
)

type Bitrate struct {
	Value int32       `bson:"value"`
	Unit  BitrateUnit `bson:"unit"`
}

type AMBR struct {
	Downlink Bitrate `bson:"downlink"`
	Uplink   Bitrate `bson:"uplink"`
}

type Slice struct {
	SST              int32     `bson:"sst"`
	SD               string    `bson:"sd,omitempty"`
	DefaultIndicator bool      `bson:"default_indicator"`
	Sessions         []Session `bson:"session"`
}

type SessionType int32

const (
	SessionIPv4 SessionType = iota + 1
	SessionIPv6
	SessionIPv4v6
)

type Session struct {
	Name     string      `bson:"name"`
	Type     SessionType `bson:"type"`
	PccRules []bson.M    `bson:"pcc_rule"`
	AMBR     AMBR        `bson:"ambr"`
	QoS      QoS         `bson:"qos"`
}

type QoS struct {
	Index int32 `bson:"index"`
	ARP   ARP   `bson:"arp"`
}

type ARP struct {
	PriorityLevel           int32 `bson:"priority_level"`
	PreEmptionCapability    int32 `bson:"pre_emption_capability"`
	PreEmptionVulnerability int32 `bson:"pre_emption_vulnerability"`
}

// subscriberDoc drops the Subscriber methods so MarshalBSON can encode
// through the default struct codec.
type subscriberDoc Subscriber

// MarshalBSON writes empty arrays instead of null for the list fields the
// core expects to iterate.
func (s Subscriber) MarshalBSON() ([]byte, error) {
	doc := subscriberDoc(s)
	if doc.MSISDN == nil {
		doc.MSISDN = []string{}
	}
	if doc.PurgeFlag == nil {
		doc.PurgeFlag = []bool{}
	}
	if doc.Slices == nil {
		doc.Slices = []Slice{}
	}

	slices := make([]Slice, len(doc.Slices))
	for i, sl := range doc.Slices {
		sessions := make([]Session, len(sl.Sessions))
		for j, sess := range sl.Sessions {
			if sess.PccRules == nil {
				sess.PccRules = []bson.M{}
			}
			sessions[j] = sess
		}
		sl.Sessions = sessions
		slices[i] = sl
	}
	doc.Slices = slices

	return bson.Marshal(doc)
}

// DefaultAPN is the name of the first session of the first slice, the value
// operators check after provisioning.
func (s Subscriber) DefaultAPN() string {
	if len(s.Slices) == 0 || len(s.Slices[0].Sessions) == 0 {
		return ""
	}
	return s.Slices[0].Sessions[0].Name
}
