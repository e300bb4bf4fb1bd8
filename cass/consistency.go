package cass

import (
	"fmt"
	"strings"

	"github.com/gocql/gocql"
)

type Consistency string

const (
	All         Consistency = "ALL"
	Any         Consistency = "ANY"
	EachQuorum  Consistency = "EACH_QUORUM"
	LocalOne    Consistency = "LOCAL_ONE"
	LocalQuorum Consistency = "LOCAL_QUORUM"
	LocalSerial Consistency = "LOCAL_SERIAL"
	One         Consistency = "ONE"
	Quorum      Consistency = "QUORUM"
	Serial      Consistency = "SERIAL"
	Three       Consistency = "THREE"
	Two         Consistency = "TWO"
)

// used whenever neither the statement nor the configuration picks a level
const DefaultConsistency = LocalOne

var consistencies = map[Consistency]gocql.Consistency{
	All:         gocql.All,
	Any:         gocql.Any,
	EachQuorum:  gocql.EachQuorum,
	LocalOne:    gocql.LocalOne,
	LocalQuorum: gocql.LocalQuorum,
	LocalSerial: gocql.Consistency(gocql.LocalSerial),
	One:         gocql.One,
	Quorum:      gocql.Quorum,
	Serial:      gocql.Consistency(gocql.Serial),
	Three:       gocql.Three,
	Two:         gocql.Two,
}

func Consistencies() []Consistency {
	return []Consistency{
		All, Any, EachQuorum, LocalOne, LocalQuorum, LocalSerial,
		One, Quorum, Serial, Three, Two,
	}
}

func ParseConsistency(s string) (Consistency, error) {
	c := Consistency(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := consistencies[c]; !ok {
		return "", invalidArgument("ParseConsistency", "unknown consistency level %q", s)
	}
	return c, nil
}

func (c Consistency) Valid() bool {
	_, ok := consistencies[c]
	return ok
}

// empty resolves to def
func (c Consistency) Or(def Consistency) Consistency {
	if c == "" {
		return def
	}
	return c
}

func (c Consistency) Gocql() gocql.Consistency {
	if v, ok := consistencies[c]; ok {
		return v
	}
	return gocql.LocalOne
}

func (c *Consistency) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		*c = ""
		return nil
	}
	v, err := ParseConsistency(s)
	if err != nil {
		return fmt.Errorf("consistency: %v", err)
	}
	*c = v
	return nil
}
