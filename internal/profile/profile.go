// Package profile loads subscriber payloads from TOML or YAML files so
// operators can provision something other than the built-in lab subscriber.
package profile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.mongodb.org/mongo-driver/bson"
	"gopkg.in/yaml.v3"

	"github.com/umit144/subscriber-provisioner/internal/models"
)

// File is the on-disk layout. Keys mirror the stored document so a profile
// reads like the record it produces.
type File struct {
	IMSI     string   `toml:"imsi" yaml:"imsi"`
	MSISDN   []string `toml:"msisdn" yaml:"msisdn"`
	IMEISV   string   `toml:"imeisv" yaml:"imeisv"`
	MMEHost  string   `toml:"mme_host" yaml:"mme_host"`
	MMERealm string   `toml:"mme_realm" yaml:"mme_realm"`
	Security Security `toml:"security" yaml:"security"`
	AMBR     AMBR     `toml:"ambr" yaml:"ambr"`
	Slices   []Slice  `toml:"slice" yaml:"slice"`
}

type Security struct {
	K   string `toml:"k" yaml:"k"`
	AMF string `toml:"amf" yaml:"amf"`
	OP  string `toml:"op" yaml:"op"`
	OPc string `toml:"opc" yaml:"opc"`
}

type Bitrate struct {
	Value int32 `toml:"value" yaml:"value"`
	Unit  int32 `toml:"unit" yaml:"unit"`
}

type AMBR struct {
	Downlink Bitrate `toml:"downlink" yaml:"downlink"`
	Uplink   Bitrate `toml:"uplink" yaml:"uplink"`
}

type Slice struct {
	SST              int32     `toml:"sst" yaml:"sst"`
	SD               string    `toml:"sd" yaml:"sd"`
	DefaultIndicator bool      `toml:"default_indicator" yaml:"default_indicator"`
	Sessions         []Session `toml:"session" yaml:"session"`
}

type Session struct {
	Name string `toml:"name" yaml:"name"`
	Type int32  `toml:"type" yaml:"type"`
	AMBR AMBR   `toml:"ambr" yaml:"ambr"`
	QoS  QoS    `toml:"qos" yaml:"qos"`
}

type QoS struct {
	Index int32 `toml:"index" yaml:"index"`
	ARP   ARP   `toml:"arp" yaml:"arp"`
}

type ARP struct {
	PriorityLevel           int32 `toml:"priority_level" yaml:"priority_level"`
	PreEmptionCapability    int32 `toml:"pre_emption_capability" yaml:"pre_emption_capability"`
	PreEmptionVulnerability int32 `toml:"pre_emption_vulnerability" yaml:"pre_emption_vulnerability"`
}

// Load reads a profile by extension (.toml, .yaml, .yml). Unknown keys are
// rejected so a typo does not silently drop a field.
func Load(path string) (models.Subscriber, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Subscriber{}, fmt.Errorf("profile load failed (%s): %w", path, err)
	}

	var f File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = decodeTOML(data, &f)
	case ".yaml", ".yml":
		err = decodeYAML(data, &f)
	default:
		return models.Subscriber{}, fmt.Errorf("profile %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return models.Subscriber{}, fmt.Errorf("profile parse failed (%s): %w", path, err)
	}

	sub, err := f.Subscriber()
	if err != nil {
		return models.Subscriber{}, fmt.Errorf("profile %s: %w", path, err)
	}
	return sub, nil
}

func decodeTOML(data []byte, f *File) error {
	meta, err := toml.Decode(string(data), f)
	if err != nil {
		return err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown keys %v", undecoded)
	}
	return nil
}

func decodeYAML(data []byte, f *File) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(f)
}

// Subscriber converts the file into a record. Exactly one of op and opc
// must be set.
func (f File) Subscriber() (models.Subscriber, error) {
	var operator models.OperatorKey
	switch {
	case f.Security.OP != "" && f.Security.OPc != "":
		return models.Subscriber{}, fmt.Errorf("%w: set op or opc, not both", models.ErrInvalidRecord)
	case f.Security.OP != "":
		operator = models.OP(f.Security.OP)
	case f.Security.OPc != "":
		operator = models.OPc(f.Security.OPc)
	default:
		return models.Subscriber{}, fmt.Errorf("%w: one of op or opc is required", models.ErrInvalidRecord)
	}

	msisdn := f.MSISDN
	if msisdn == nil {
		msisdn = []string{}
	}

	sub := models.Subscriber{
		IMSI:      f.IMSI,
		MSISDN:    msisdn,
		IMEISV:    f.IMEISV,
		MMEHost:   f.MMEHost,
		MMERealm:  f.MMERealm,
		PurgeFlag: []bool{},
		Security: models.Security{
			K:        f.Security.K,
			AMF:      f.Security.AMF,
			Operator: operator,
		},
		AMBR:   f.AMBR.model(),
		Slices: make([]models.Slice, 0, len(f.Slices)),
	}

	for _, sl := range f.Slices {
		slice := models.Slice{
			SST:              sl.SST,
			SD:               sl.SD,
			DefaultIndicator: sl.DefaultIndicator,
			Sessions:         make([]models.Session, 0, len(sl.Sessions)),
		}
		for _, sess := range sl.Sessions {
			slice.Sessions = append(slice.Sessions, models.Session{
				Name:     sess.Name,
				Type:     models.SessionType(sess.Type),
				PccRules: []bson.M{},
				AMBR:     sess.AMBR.model(),
				QoS: models.QoS{
					Index: sess.QoS.Index,
					ARP: models.ARP{
						PriorityLevel:           sess.QoS.ARP.PriorityLevel,
						PreEmptionCapability:    sess.QoS.ARP.PreEmptionCapability,
						PreEmptionVulnerability: sess.QoS.ARP.PreEmptionVulnerability,
					},
				},
			})
		}
		sub.Slices = append(sub.Slices, slice)
	}

	return sub, nil
}

func (a AMBR) model() models.AMBR {
	return models.AMBR{
		Downlink: models.Bitrate{Value: a.Downlink.Value, Unit: models.BitrateUnit(a.Downlink.Unit)},
		Uplink:   models.Bitrate{Value: a.Uplink.Value, Unit: models.BitrateUnit(a.Uplink.Unit)},
	}
}
