package models

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	imsiPattern   = regexp.MustCompile(`^[0-9]{5,15}$`)
	msisdnPattern = regexp.MustCompile(`^[0-9]{1,15}$`)
	imeisvPattern = regexp.MustCompile(`^[0-9]{16}$`)
	key128Pattern = regexp.MustCompile(`^[0-9A-Fa-f]{32}$`)
	amfPattern    = regexp.MustCompile(`^[0-9A-Fa-f]{4}$`)
	sdPattern     = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)
)

// Validate reports every problem found in the record, wrapped in
// ErrInvalidRecord.
func (s Subscriber) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if !imsiPattern.MatchString(s.IMSI) {
		add("imsi %q must be 5-15 digits", s.IMSI)
	}
	for _, m := range s.MSISDN {
		if !msisdnPattern.MatchString(m) {
			add("msisdn %q must be 1-15 digits", m)
		}
	}
	if s.IMEISV != "" && !imeisvPattern.MatchString(s.IMEISV) {
		add("imeisv %q must be 16 digits", s.IMEISV)
	}

	if !key128Pattern.MatchString(s.Security.K) {
		add("security.k must be 32 hex characters")
	}
	if !amfPattern.MatchString(s.Security.AMF) {
		add("security.amf %q must be 4 hex characters", s.Security.AMF)
	}
	switch s.Security.Operator.Kind {
	case OperatorKeyOP, OperatorKeyOPc:
		if !key128Pattern.MatchString(s.Security.Operator.Value) {
			add("security.%s must be 32 hex characters", s.Security.Operator.Kind.Field())
		}
	default:
		add("security needs one of op or opc")
	}

	errs = append(errs, s.AMBR.validate("ambr")...)

	defaults := 0
	for i, sl := range s.Slices {
		path := fmt.Sprintf("slice[%d]", i)
		if sl.SST < 1 || sl.SST > 255 {
			add("%s.sst %d out of range 1-255", path, sl.SST)
		}
		if sl.SD != "" && !sdPattern.MatchString(sl.SD) {
			add("%s.sd %q must be 6 hex characters", path, sl.SD)
		}
		if sl.DefaultIndicator {
			defaults++
		}
		for j, sess := range sl.Sessions {
			errs = append(errs, sess.validate(fmt.Sprintf("%s.session[%d]", path, j))...)
		}
	}
	if len(s.Slices) > 0 && defaults != 1 {
		add("exactly one slice must set default_indicator, found %d", defaults)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidRecord, errors.Join(errs...))
}

func (a AMBR) validate(path string) []error {
	var errs []error
	rates := []struct {
		name string
		b    Bitrate
	}{{"downlink", a.Downlink}, {"uplink", a.Uplink}}
	for _, r := range rates {
		name, b := r.name, r.b
		if b.Value < 0 {
			errs = append(errs, fmt.Errorf("%s.%s.value %d is negative", path, name, b.Value))
		}
		if b.Unit < UnitBps || b.Unit > UnitTbps {
			errs = append(errs, fmt.Errorf("%s.%s.unit %d out of range 0-4", path, name, b.Unit))
		}
	}
	return errs
}

func (s Session) validate(path string) []error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, fmt.Errorf("%s.name is empty", path))
	}
	if s.Type < SessionIPv4 || s.Type > SessionIPv4v6 {
		errs = append(errs, fmt.Errorf("%s.type %d out of range 1-3", path, s.Type))
	}
	errs = append(errs, s.AMBR.validate(path+".ambr")...)
	if s.QoS.Index < 1 || s.QoS.Index > 255 {
		errs = append(errs, fmt.Errorf("%s.qos.index %d out of range 1-255", path, s.QoS.Index))
	}
	arp := s.QoS.ARP
	if arp.PriorityLevel < 1 || arp.PriorityLevel > 15 {
		errs = append(errs, fmt.Errorf("%s.qos.arp.priority_level %d out of range 1-15", path, arp.PriorityLevel))
	}
	if arp.PreEmptionCapability < 1 || arp.PreEmptionCapability > 2 {
		errs = append(errs, fmt.Errorf("%s.qos.arp.pre_emption_capability %d out of range 1-2", path, arp.PreEmptionCapability))
	}
	if arp.PreEmptionVulnerability < 1 || arp.PreEmptionVulnerability > 2 {
		errs = append(errs, fmt.Errorf("%s.qos.arp.pre_emption_vulnerability %d out of range 1-2", path, arp.PreEmptionVulnerability))
	}
	return errs
}
