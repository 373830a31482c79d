package models

import "go.mongodb.org/mongo-driver/bson"

const DefaultIMSI = "999700000000001"

// TestNetworkSubscriber returns the subscriber used by the lab core network:
// one eMBB slice with an "internet" IPv4v6 session at 1 Gbps both ways.
func TestNetworkSubscriber() Subscriber {
	rate := AMBR{
		Downlink: Bitrate{Value: 1, Unit: UnitGbps},
		Uplink:   Bitrate{Value: 1, Unit: UnitGbps},
	}
	return Subscriber{
		IMSI:      DefaultIMSI,
		MSISDN:    []string{},
		IMEISV:    "4370816125816151",
		PurgeFlag: []bool{},
		Security: Security{
			K:        "465B5CE8B199B49FAA5F0A2EE238A6BC",
			AMF:      "8000",
			Operator: OPc("E8ED289DEBA952E4283B54E88E6183CA"),
		},
		AMBR: rate,
		Slices: []Slice{
			{
				SST:              1,
				SD:               "010203",
				DefaultIndicator: true,
				Sessions: []Session{
					{
						Name:     "internet",
						Type:     SessionIPv4v6,
						PccRules: []bson.M{},
						AMBR:     rate,
						QoS: QoS{
							Index: 9,
							ARP: ARP{
								PriorityLevel:           8,
								PreEmptionCapability:    1,
								PreEmptionVulnerability: 1,
							},
						},
					},
				},
			},
		},
	}
}
